package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Gateway.ListenAddress != DefaultListenAddress {
					t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Gateway.ListenAddress)
				}
				if cfg.Gateway.ReadTimeout != DefaultReadTimeout {
					t.Errorf("expected read timeout %v, got %v", DefaultReadTimeout, cfg.Gateway.ReadTimeout)
				}
				if cfg.Gateway.WriteTimeout != 0 {
					t.Errorf("write timeout should stay disabled for streaming, got %v", cfg.Gateway.WriteTimeout)
				}
				if cfg.Health.Interval != DefaultHealthInterval {
					t.Errorf("expected health interval %v, got %v", DefaultHealthInterval, cfg.Health.Interval)
				}
				if cfg.Health.ProbeTimeout != DefaultHealthProbeTimeout {
					t.Errorf("expected probe timeout %v, got %v", DefaultHealthProbeTimeout, cfg.Health.ProbeTimeout)
				}
				if cfg.Health.ErrorCeiling != DefaultHealthErrorCeiling {
					t.Errorf("expected error ceiling %d, got %d", DefaultHealthErrorCeiling, cfg.Health.ErrorCeiling)
				}
				if cfg.Relay.RequestTimeout != DefaultRelayRequestTimeout {
					t.Errorf("expected request timeout %v, got %v", DefaultRelayRequestTimeout, cfg.Relay.RequestTimeout)
				}
				if cfg.Relay.ChunkSize != DefaultRelayChunkSize {
					t.Errorf("expected chunk size %d, got %d", DefaultRelayChunkSize, cfg.Relay.ChunkSize)
				}
				if cfg.Relay.BufferedYieldEvery != DefaultRelayBufferedYieldEvery {
					t.Errorf("expected buffered yield %d, got %d", DefaultRelayBufferedYieldEvery, cfg.Relay.BufferedYieldEvery)
				}
				if cfg.Relay.DirectYieldEvery != DefaultRelayDirectYieldEvery {
					t.Errorf("expected direct yield %d, got %d", DefaultRelayDirectYieldEvery, cfg.Relay.DirectYieldEvery)
				}
				if cfg.Auth.Mode != DefaultAuthMode {
					t.Errorf("expected auth mode %q, got %q", DefaultAuthMode, cfg.Auth.Mode)
				}
				if cfg.Auth.Store.Backend != DefaultAuthStoreBackend {
					t.Errorf("expected store backend %q, got %q", DefaultAuthStoreBackend, cfg.Auth.Store.Backend)
				}
				if cfg.Usage.Enabled == nil || !*cfg.Usage.Enabled {
					t.Error("usage should default to enabled")
				}
				if cfg.Usage.Backend != DefaultUsageBackend {
					t.Errorf("expected usage backend %q, got %q", DefaultUsageBackend, cfg.Usage.Backend)
				}
				if cfg.Usage.Retention.Days != DefaultUsageRetentionDays {
					t.Errorf("expected retention days %d, got %d", DefaultUsageRetentionDays, cfg.Usage.Retention.Days)
				}
				if cfg.Usage.Retention.PruneSchedule != DefaultUsageRetentionSchedule {
					t.Errorf("expected prune schedule %q, got %q", DefaultUsageRetentionSchedule, cfg.Usage.Retention.PruneSchedule)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Logging.Format != DefaultLoggingFormat {
					t.Errorf("expected logging format %q, got %q", DefaultLoggingFormat, cfg.Telemetry.Logging.Format)
				}
				if cfg.Telemetry.Logging.RedactCredentials == nil || !*cfg.Telemetry.Logging.RedactCredentials {
					t.Error("credential redaction should default to enabled")
				}
				if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
					t.Errorf("expected metrics path %q, got %q", DefaultMetricsPath, cfg.Telemetry.Metrics.Path)
				}
				if cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
					t.Errorf("expected metrics namespace %q, got %q", DefaultMetricsNamespace, cfg.Telemetry.Metrics.Namespace)
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Gateway: GatewayConfig{
					ListenAddress: "127.0.0.1:8123",
					ReadTimeout:   90 * time.Second,
				},
				Health: HealthConfig{
					Interval:     10 * time.Second,
					ErrorCeiling: 3,
				},
				Relay: RelayConfig{
					ChunkSize: 4096,
				},
				Telemetry: TelemetryConfig{
					Logging: LoggingConfig{Level: "debug"},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Gateway.ListenAddress != "127.0.0.1:8123" {
					t.Errorf("listen address overwritten: %q", cfg.Gateway.ListenAddress)
				}
				if cfg.Gateway.ReadTimeout != 90*time.Second {
					t.Errorf("read timeout overwritten: %v", cfg.Gateway.ReadTimeout)
				}
				if cfg.Health.Interval != 10*time.Second {
					t.Errorf("health interval overwritten: %v", cfg.Health.Interval)
				}
				if cfg.Health.ErrorCeiling != 3 {
					t.Errorf("error ceiling overwritten: %d", cfg.Health.ErrorCeiling)
				}
				if cfg.Relay.ChunkSize != 4096 {
					t.Errorf("chunk size overwritten: %d", cfg.Relay.ChunkSize)
				}
				if cfg.Telemetry.Logging.Level != "debug" {
					t.Errorf("logging level overwritten: %q", cfg.Telemetry.Logging.Level)
				}
				// Untouched fields still get defaults
				if cfg.Health.ProbeTimeout != DefaultHealthProbeTimeout {
					t.Errorf("probe timeout default missing: %v", cfg.Health.ProbeTimeout)
				}
			},
		},
		{
			name: "provider entries get weight default",
			input: Config{
				Providers: []ProviderConfig{
					{Name: "a", BaseURL: "http://a/v1", Models: []string{"m"}},
					{Name: "b", BaseURL: "http://b/v1", Models: []string{"m"}, Weight: 5},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Providers[0].Weight != DefaultProviderWeight {
					t.Errorf("expected default weight, got %d", cfg.Providers[0].Weight)
				}
				if cfg.Providers[1].Weight != 5 {
					t.Errorf("explicit weight overwritten: %d", cfg.Providers[1].Weight)
				}
			},
		},
		{
			name: "user entries get limit and active defaults",
			input: Config{
				Auth: AuthConfig{
					Mode: "multi_user",
					Users: []UserConfig{
						{UserID: "alice", APIKey: "sk-a"},
						{UserID: "bob", APIKey: "sk-b", DailyLimit: 50},
					},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Auth.Users[0].DailyLimit != DefaultUserDailyLimit {
					t.Errorf("expected default daily limit, got %d", cfg.Auth.Users[0].DailyLimit)
				}
				if cfg.Auth.Users[0].Active == nil || !*cfg.Auth.Users[0].Active {
					t.Error("active should default to true")
				}
				if cfg.Auth.Users[1].DailyLimit != 50 {
					t.Errorf("explicit daily limit overwritten: %d", cfg.Auth.Users[1].DailyLimit)
				}
			},
		},
		{
			name: "advertised models get catalogue defaults",
			input: Config{
				AdvertisedModels: []AdvertisedModelConfig{
					{ID: "gpt-4"},
					{ID: "claude-3", OwnedBy: "anthropic", Created: 1700000000},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.AdvertisedModels[0].OwnedBy != DefaultAdvertisedOwnedBy {
					t.Errorf("expected default owner, got %q", cfg.AdvertisedModels[0].OwnedBy)
				}
				if cfg.AdvertisedModels[0].Created != DefaultAdvertisedCreated {
					t.Errorf("expected default created, got %d", cfg.AdvertisedModels[0].Created)
				}
				if cfg.AdvertisedModels[1].OwnedBy != "anthropic" {
					t.Errorf("explicit owner overwritten: %q", cfg.AdvertisedModels[1].OwnedBy)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := Config{}
	ApplyDefaults(&cfg)
	first := cfg

	ApplyDefaults(&cfg)

	if cfg.Gateway.ListenAddress != first.Gateway.ListenAddress {
		t.Error("second ApplyDefaults changed listen address")
	}
	if cfg.Health.Interval != first.Health.Interval {
		t.Error("second ApplyDefaults changed health interval")
	}
	if cfg.Relay.ChannelBuffer != first.Relay.ChannelBuffer {
		t.Error("second ApplyDefaults changed channel buffer")
	}
}

func TestApplyCORSDefaults(t *testing.T) {
	t.Run("defaults applied to empty config", func(t *testing.T) {
		cfg := Config{}
		ApplyDefaults(&cfg)

		cors := cfg.Gateway.CORS
		if !cors.Enabled {
			t.Error("CORS should default to enabled")
		}
		if len(cors.AllowedOrigins) != 1 || cors.AllowedOrigins[0] != "*" {
			t.Errorf("unexpected allowed origins: %v", cors.AllowedOrigins)
		}

		foundRelay := false
		for _, h := range cors.AllowedHeaders {
			if h == "X-Use-Direct-Relay" {
				foundRelay = true
			}
		}
		if !foundRelay {
			t.Errorf("allowed headers should include the relay toggle, got %v", cors.AllowedHeaders)
		}

		foundProvider := false
		for _, h := range cors.ExposedHeaders {
			if h == "X-Gateway-Provider" {
				foundProvider = true
			}
		}
		if !foundProvider {
			t.Errorf("exposed headers should include the provider echo, got %v", cors.ExposedHeaders)
		}
	})

	t.Run("explicit values preserved", func(t *testing.T) {
		cfg := Config{
			Gateway: GatewayConfig{
				CORS: CORSConfig{
					Enabled:        true,
					AllowedOrigins: []string{"https://app.example.com"},
					MaxAge:         600,
				},
			},
		}
		ApplyDefaults(&cfg)

		if len(cfg.Gateway.CORS.AllowedOrigins) != 1 || cfg.Gateway.CORS.AllowedOrigins[0] != "https://app.example.com" {
			t.Errorf("allowed origins overwritten: %v", cfg.Gateway.CORS.AllowedOrigins)
		}
		if cfg.Gateway.CORS.MaxAge != 600 {
			t.Errorf("max age overwritten: %d", cfg.Gateway.CORS.MaxAge)
		}
	})
}
