package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"meridian-hq/meridian/pkg/cli"
	"meridian-hq/meridian/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the gateway.

Checks that the YAML parses, secret references resolve, defaults apply,
and the result passes validation (unique provider names, positive
weights, alias targets served by the named provider, and so on).

Exits non-zero when the configuration is invalid.

Examples:
  # Validate the default config
  meridian validate

  # Validate a specific file
  meridian validate --config /etc/meridian/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		cli.Failf(os.Stdout, "Configuration invalid: %s", cfgFile)
		return cli.NewConfigError("", err.Error())
	}

	cli.Okf(os.Stdout, "Configuration valid: %s", cfgFile)
	fmt.Println()
	fmt.Printf("Listen address: %s\n", cfg.Gateway.ListenAddress)
	fmt.Printf("Auth mode:      %s\n", cfg.Auth.Mode)
	fmt.Printf("Usage backend:  %s\n", cfg.Usage.Backend)
	fmt.Printf("Providers:      %d\n", len(cfg.Providers))
	for _, p := range cfg.Providers {
		fmt.Printf("  - %s (weight %d, %d models)\n", p.Name, p.Weight, len(p.Models))
	}
	if len(cfg.ModelAliases) > 0 {
		fmt.Printf("Model aliases:  %d\n", len(cfg.ModelAliases))
	}
	return nil
}
