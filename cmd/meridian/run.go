package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"meridian-hq/meridian/pkg/auth"
	"meridian-hq/meridian/pkg/cli"
	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/providers"
	"meridian-hq/meridian/pkg/proxy/handlers"
	"meridian-hq/meridian/pkg/relay"
	"meridian-hq/meridian/pkg/routing"
	"meridian-hq/meridian/pkg/server"
	"meridian-hq/meridian/pkg/telemetry/logging"
	"meridian-hq/meridian/pkg/telemetry/metrics"
	"meridian-hq/meridian/pkg/usage"
	"meridian-hq/meridian/pkg/usage/retention"
	usagestorage "meridian-hq/meridian/pkg/usage/storage"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	logFormat     string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the meridian gateway",
	Long: `Start the meridian gateway with the specified configuration.

The gateway listens on the configured address and routes OpenAI-compatible
chat completion requests across the configured upstream providers.

Examples:
  # Start with default config
  meridian run

  # Start with custom config
  meridian run --config /etc/meridian/config.yaml

  # Override listen address
  meridian run --listen 0.0.0.0:8080

  # Validate config without starting the gateway
  meridian run --dry-run`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.logFormat, "log-format", "", "override log format (json, text)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

func runGateway(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Gateway.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.logFormat != "" {
		cfg.Telemetry.Logging.Format = runFlags.logFormat
	}

	if _, err := logging.Setup(cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		cli.Okf(os.Stdout, "Configuration valid")
		return nil
	}

	printBanner(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics collector, nil when disabled. Every component accepts a
	// nil collector and records nothing.
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled == nil || *cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		cli.Okf(os.Stdout, "Metrics enabled (path: %s)", cfg.Telemetry.Metrics.Path)
	}

	// Provider registry and health monitor
	registry := providers.NewRegistry(cfg.Providers)
	cli.Okf(os.Stdout, "Providers registered (%d providers)", registry.Len())

	monitor := providers.NewMonitor(registry, cfg.Health, collector)
	monitor.Start(ctx)
	defer monitor.Stop()

	// Auth gate, quota store and optional users-file watcher
	store, err := auth.NewStore(cfg.Auth.Store)
	if err != nil {
		return fmt.Errorf("creating auth store: %w", err)
	}
	defer store.Close()

	if cfg.Auth.Mode == auth.ModeMultiUser {
		users, err := auth.LoadUsers(cfg.Auth)
		if err != nil {
			return fmt.Errorf("loading users: %w", err)
		}
		if err := auth.ApplyUsers(ctx, store, users); err != nil {
			return fmt.Errorf("seeding user store: %w", err)
		}
	}

	gate := auth.NewGate(cfg.Auth, store, collector)
	cli.Okf(os.Stdout, "Auth gate ready (mode: %s)", gate.Mode())

	var watcher *auth.Watcher
	if cfg.Auth.Watch && cfg.Auth.UsersFile != "" {
		watcher = auth.NewWatcher(cfg.Auth.UsersFile, func() error {
			users, err := auth.LoadUsers(cfg.Auth)
			if err != nil {
				return err
			}
			return auth.ApplyUsers(context.Background(), store, users)
		})
		if err := watcher.Start(ctx); err != nil {
			slog.Warn("users file watcher failed to start", "error", err)
			watcher = nil
		} else {
			defer watcher.Stop()
			cli.Okf(os.Stdout, "Watching users file: %s", cfg.Auth.UsersFile)
		}
	}

	// Usage ledger with async recorder and retention pruning
	var recorder *usage.Recorder
	var pruner *retention.Pruner
	if cfg.Usage.Enabled == nil || *cfg.Usage.Enabled {
		var ledger usage.Storage
		switch cfg.Usage.Backend {
		case "sqlite":
			ledger, err = usagestorage.NewSQLiteStorage(cfg.Usage.SQLite.Path, cfg.Usage.SQLite.BusyTimeout)
			if err != nil {
				return fmt.Errorf("creating usage ledger: %w", err)
			}
		case "memory", "":
			ledger = usagestorage.NewMemoryStorage()
		default:
			return fmt.Errorf("unsupported usage backend: %s", cfg.Usage.Backend)
		}
		defer ledger.Close()

		recorder = usage.NewRecorder(ledger, cfg.Usage.Recorder)
		defer recorder.Close()

		if cfg.Usage.Retention.PruneSchedule != "" && cfg.Usage.Retention.Days > 0 {
			pruner = retention.NewPruner(ledger, cfg.Usage.Retention)
			if err := pruner.Start(ctx); err != nil {
				slog.Warn("retention pruner failed to start", "error", err)
			} else {
				defer pruner.Stop()
				if next := pruner.NextPruning(); !next.IsZero() {
					slog.Debug("usage retention scheduled", "next_pruning", next)
				}
			}
		}
		cli.Okf(os.Stdout, "Usage ledger ready (backend: %s)", cfg.Usage.Backend)
	}

	// Upstream forwarder and routing
	forwarder := relay.NewForwarder(cfg.Relay, collector)
	defer forwarder.Close()

	h := handlers.New(handlers.Deps{
		Config:    cfg,
		Registry:  registry,
		Selector:  routing.NewSelector(registry, cfg.Health, collector),
		ModelMap:  routing.NewModelMap(cfg.ModelAliases),
		Stats:     routing.NewStats(),
		Forwarder: forwarder,
		Gate:      gate,
		Store:     store,
		Recorder:  recorder,
		Metrics:   collector,
	})

	srv := server.New(cfg, h, registry, collector)
	if err := srv.Start(); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println()
	cli.Okf(os.Stdout, "Gateway listening on %s", cfg.Gateway.ListenAddress)
	cli.Okf(os.Stdout, "Health endpoint: http://%s/health", cfg.Gateway.ListenAddress)
	if collector != nil {
		cli.Okf(os.Stdout, "Metrics endpoint: http://%s%s", cfg.Gateway.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for shutdown signal or server error
	sigChan := cli.WaitForShutdown()

	select {
	case err := <-srv.Errors():
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		cli.Okf(os.Stdout, "Gateway stopped")
		return nil
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Meridian v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	cli.Okf(os.Stdout, "Configuration loaded")

	slog.Debug("configuration summary",
		"providers", len(cfg.Providers),
		"auth_mode", cfg.Auth.Mode,
		"usage_backend", cfg.Usage.Backend,
	)
}
