package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It resolves secret references, applies default values, validates the
// configuration, and returns any errors. The configuration is not modified
// by environment variables; use LoadConfigWithEnvOverrides for that
// functionality.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Resolve ${env:VAR} secret references
	if err := resolveSecrets(&cfg); err != nil {
		return nil, err
	}

	// Apply defaults
	ApplyDefaults(&cfg)

	// Validate
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention MERIDIAN_SECTION_FIELD (e.g., MERIDIAN_GATEWAY_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Resolve ${env:VAR} secret references
// 3. Apply default values
// 4. Apply environment variable overrides
// 5. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// resolveSecrets replaces "${env:VAR}" references in credential fields with
// the value of the named environment variable. A reference to an unset
// variable is an error: starting with an empty upstream key would only
// surface later as confusing 401s from the backend.
func resolveSecrets(cfg *Config) error {
	var err error

	for i := range cfg.Providers {
		cfg.Providers[i].APIKey, err = resolveSecretRef(cfg.Providers[i].APIKey)
		if err != nil {
			return fmt.Errorf("provider %q api_key: %w", cfg.Providers[i].Name, err)
		}
	}

	cfg.Auth.SharedKey, err = resolveSecretRef(cfg.Auth.SharedKey)
	if err != nil {
		return fmt.Errorf("auth shared_key: %w", err)
	}

	for i := range cfg.Auth.Users {
		cfg.Auth.Users[i].APIKey, err = resolveSecretRef(cfg.Auth.Users[i].APIKey)
		if err != nil {
			return fmt.Errorf("auth user %q api_key: %w", cfg.Auth.Users[i].UserID, err)
		}
	}

	return nil
}

// resolveSecretRef resolves a single "${env:VAR}" reference. Values that are
// not references pass through unchanged.
func resolveSecretRef(value string) (string, error) {
	if !strings.HasPrefix(value, "${env:") || !strings.HasSuffix(value, "}") {
		return value, nil
	}

	name := strings.TrimSuffix(strings.TrimPrefix(value, "${env:"), "}")
	if name == "" {
		return "", fmt.Errorf("empty environment variable reference")
	}

	resolved, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", name)
	}

	return resolved, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format MERIDIAN_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Gateway overrides
	if val := os.Getenv("MERIDIAN_GATEWAY_LISTEN_ADDRESS"); val != "" {
		cfg.Gateway.ListenAddress = val
	}
	if val := os.Getenv("MERIDIAN_GATEWAY_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gateway.ReadTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_GATEWAY_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gateway.WriteTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_GATEWAY_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gateway.IdleTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_GATEWAY_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gateway.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_GATEWAY_MAX_HEADER_BYTES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Gateway.MaxHeaderBytes = i
		}
	}
	if val := os.Getenv("MERIDIAN_GATEWAY_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Gateway.MaxBodyBytes = i
		}
	}

	// Provider overrides follow MERIDIAN_PROVIDERS_<NAME>_<FIELD>, keyed by
	// the uppercase catalogue name.
	for i := range cfg.Providers {
		applyProviderEnvOverrides(&cfg.Providers[i])
	}

	// Health overrides
	if val := os.Getenv("MERIDIAN_HEALTH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Health.Interval = d
		}
	}
	if val := os.Getenv("MERIDIAN_HEALTH_PROBE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Health.ProbeTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_HEALTH_ERROR_CEILING"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Health.ErrorCeiling = i
		}
	}

	// Relay overrides
	if val := os.Getenv("MERIDIAN_RELAY_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Relay.RequestTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_RELAY_CONNECT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Relay.ConnectTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_RELAY_CHUNK_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Relay.ChunkSize = i
		}
	}

	// Auth overrides
	if val := os.Getenv("MERIDIAN_AUTH_MODE"); val != "" {
		cfg.Auth.Mode = val
	}
	if val := os.Getenv("MERIDIAN_AUTH_SHARED_KEY"); val != "" {
		cfg.Auth.SharedKey = val
	}
	if val := os.Getenv("MERIDIAN_AUTH_USERS_FILE"); val != "" {
		cfg.Auth.UsersFile = val
	}
	if val := os.Getenv("MERIDIAN_AUTH_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Auth.Watch = b
		}
	}
	if val := os.Getenv("MERIDIAN_AUTH_STORE_BACKEND"); val != "" {
		cfg.Auth.Store.Backend = val
	}
	if val := os.Getenv("MERIDIAN_AUTH_STORE_SQLITE_PATH"); val != "" {
		cfg.Auth.Store.SQLite.Path = val
	}

	// Usage overrides
	if val := os.Getenv("MERIDIAN_USAGE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Usage.Enabled = &b
		}
	}
	if val := os.Getenv("MERIDIAN_USAGE_BACKEND"); val != "" {
		cfg.Usage.Backend = val
	}
	if val := os.Getenv("MERIDIAN_USAGE_SQLITE_PATH"); val != "" {
		cfg.Usage.SQLite.Path = val
	}
	if val := os.Getenv("MERIDIAN_USAGE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Usage.Retention.Days = i
		}
	}
	if val := os.Getenv("MERIDIAN_USAGE_RETENTION_PRUNE_SCHEDULE"); val != "" {
		cfg.Usage.Retention.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("MERIDIAN_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = &b
		}
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}

// applyProviderEnvOverrides applies environment variable overrides for a
// single catalogue entry. Provider environment variables follow the format
// MERIDIAN_PROVIDERS_<NAME>_<FIELD> where NAME is the uppercase provider name.
func applyProviderEnvOverrides(provider *ProviderConfig) {
	prefix := fmt.Sprintf("MERIDIAN_PROVIDERS_%s_",
		strings.ToUpper(strings.ReplaceAll(provider.Name, "-", "_")))

	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		provider.BaseURL = val
	}
	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		provider.APIKey = val
	}
	if val := os.Getenv(prefix + "WEIGHT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			provider.Weight = i
		}
	}
}
