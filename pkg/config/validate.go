package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "gateway.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	// Validate gateway configuration
	errs = append(errs, validateGateway(&cfg.Gateway)...)

	// Validate provider catalogue
	errs = append(errs, validateProviders(cfg.Providers)...)

	// Validate model alias table against the catalogue
	errs = append(errs, validateModelAliases(cfg)...)

	// Validate health probe configuration
	errs = append(errs, validateHealth(&cfg.Health)...)

	// Validate relay configuration
	errs = append(errs, validateRelay(&cfg.Relay)...)

	// Validate auth configuration
	errs = append(errs, validateAuth(&cfg.Auth)...)

	// Validate usage ledger configuration
	errs = append(errs, validateUsage(&cfg.Usage)...)

	// Validate telemetry configuration
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateGateway validates gateway server configuration.
func validateGateway(cfg *GatewayConfig) []FieldError {
	var errs []FieldError

	// Validate listen address is not empty
	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "gateway.listen_address",
			Message: "listen address is required",
		})
	}

	// Validate timeouts are non-negative
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.read_timeout",
			Message: "read timeout must be non-negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.write_timeout",
			Message: "write timeout must be non-negative",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.idle_timeout",
			Message: "idle timeout must be non-negative",
		})
	}

	// Validate max header bytes is reasonable
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "gateway.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}

	return errs
}

// validateProviders validates the provider catalogue.
func validateProviders(providers []ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		errs = append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be configured",
		})
		return errs
	}

	seen := make(map[string]bool, len(providers))
	for i, provider := range providers {
		prefix := fmt.Sprintf("providers[%d]", i)

		// Validate name
		if provider.Name == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".name",
				Message: "provider name is required",
			})
		} else {
			prefix = fmt.Sprintf("providers.%s", provider.Name)
			if seen[provider.Name] {
				errs = append(errs, FieldError{
					Field:   prefix + ".name",
					Message: fmt.Sprintf("duplicate provider name %q", provider.Name),
				})
			}
			seen[provider.Name] = true
		}

		// Validate base URL
		if provider.BaseURL == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: "base URL is required",
			})
		} else {
			u, err := url.Parse(provider.BaseURL)
			if err != nil {
				errs = append(errs, FieldError{
					Field:   prefix + ".base_url",
					Message: fmt.Sprintf("invalid URL format: %v", err),
				})
			} else if u.Scheme != "http" && u.Scheme != "https" {
				errs = append(errs, FieldError{
					Field:   prefix + ".base_url",
					Message: fmt.Sprintf("invalid URL scheme %q: must be 'http' or 'https'", u.Scheme),
				})
			}
		}

		// Every provider needs at least its default model: it is what health
		// probes send and what translation falls back to.
		if len(provider.Models) == 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".models",
				Message: "at least one model is required",
			})
		}
		for j, model := range provider.Models {
			if model == "" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("%s.models[%d]", prefix, j),
					Message: "model id must not be empty",
				})
			}
		}

		// Validate weight
		if provider.Weight <= 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".weight",
				Message: "weight must be positive",
			})
		}

		// API key may legitimately be empty (local backends like Ollama),
		// so it is not validated here.
	}

	return errs
}

// validateModelAliases validates the model alias table against the provider
// catalogue. Every inner key must name a configured provider, and every
// translated model id must appear in that provider's model list. Catching
// a typo here beats silently routing every request to the wrong model.
func validateModelAliases(cfg *Config) []FieldError {
	var errs []FieldError

	byName := make(map[string]*ProviderConfig, len(cfg.Providers))
	for i := range cfg.Providers {
		byName[cfg.Providers[i].Name] = &cfg.Providers[i]
	}

	for alias, targets := range cfg.ModelAliases {
		prefix := fmt.Sprintf("model_aliases.%s", alias)

		if alias == "" {
			errs = append(errs, FieldError{
				Field:   "model_aliases",
				Message: "alias name must not be empty",
			})
			continue
		}

		for providerName, modelID := range targets {
			provider, ok := byName[providerName]
			if !ok {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("%s.%s", prefix, providerName),
					Message: fmt.Sprintf("unknown provider %q", providerName),
				})
				continue
			}

			if modelID == "" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("%s.%s", prefix, providerName),
					Message: "translated model id must not be empty",
				})
				continue
			}

			found := false
			for _, m := range provider.Models {
				if m == modelID {
					found = true
					break
				}
			}
			if !found {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("%s.%s", prefix, providerName),
					Message: fmt.Sprintf("model %q is not served by provider %q", modelID, providerName),
				})
			}
		}
	}

	return errs
}

// validateHealth validates health probe configuration.
func validateHealth(cfg *HealthConfig) []FieldError {
	var errs []FieldError

	if cfg.Interval <= 0 {
		errs = append(errs, FieldError{
			Field:   "health.interval",
			Message: "interval must be positive",
		})
	}
	if cfg.ProbeTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "health.probe_timeout",
			Message: "probe timeout must be positive",
		})
	}
	if cfg.ProbeTimeout > cfg.Interval && cfg.Interval > 0 {
		errs = append(errs, FieldError{
			Field:   "health.probe_timeout",
			Message: "probe timeout must not exceed the probe interval",
		})
	}
	if cfg.ErrorCeiling <= 0 {
		errs = append(errs, FieldError{
			Field:   "health.error_ceiling",
			Message: "error ceiling must be positive",
		})
	}

	return errs
}

// validateRelay validates relay transport configuration.
func validateRelay(cfg *RelayConfig) []FieldError {
	var errs []FieldError

	if cfg.RequestTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "relay.request_timeout",
			Message: "request timeout must be positive",
		})
	}
	if cfg.ConnectTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "relay.connect_timeout",
			Message: "connect timeout must be positive",
		})
	}
	if cfg.ChunkSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "relay.chunk_size",
			Message: "chunk size must be positive",
		})
	}
	if cfg.ChunkSize > 1024*1024 {
		errs = append(errs, FieldError{
			Field:   "relay.chunk_size",
			Message: "chunk size exceeds reasonable limit (1MB)",
		})
	}
	if cfg.BufferedYieldEvery <= 0 {
		errs = append(errs, FieldError{
			Field:   "relay.buffered_yield_every",
			Message: "buffered yield interval must be positive",
		})
	}
	if cfg.DirectYieldEvery <= 0 {
		errs = append(errs, FieldError{
			Field:   "relay.direct_yield_every",
			Message: "direct yield interval must be positive",
		})
	}
	if cfg.ChannelBuffer <= 0 {
		errs = append(errs, FieldError{
			Field:   "relay.channel_buffer",
			Message: "channel buffer must be positive",
		})
	}

	return errs
}

// validateAuth validates authentication configuration.
func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	// Validate mode
	validModes := map[string]bool{"shared": true, "multi_user": true}
	if cfg.Mode == "" {
		errs = append(errs, FieldError{
			Field:   "auth.mode",
			Message: "mode is required",
		})
	} else if !validModes[cfg.Mode] {
		errs = append(errs, FieldError{
			Field:   "auth.mode",
			Message: fmt.Sprintf("invalid mode %q: must be 'shared' or 'multi_user'", cfg.Mode),
		})
	}

	// Shared mode needs its single credential
	if cfg.Mode == "shared" && cfg.SharedKey == "" {
		errs = append(errs, FieldError{
			Field:   "auth.shared_key",
			Message: "shared key is required when mode is 'shared'",
		})
	}

	// Multi-user mode needs a user table from somewhere
	if cfg.Mode == "multi_user" {
		if len(cfg.Users) == 0 && cfg.UsersFile == "" {
			errs = append(errs, FieldError{
				Field:   "auth.users",
				Message: "either users or users_file is required when mode is 'multi_user'",
			})
		}
		errs = append(errs, validateUsers(cfg.Users)...)
	}

	// Watching only makes sense for a file-backed table
	if cfg.Watch && cfg.UsersFile == "" {
		errs = append(errs, FieldError{
			Field:   "auth.watch",
			Message: "watch requires users_file to be set",
		})
	}

	// Validate store backend
	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if cfg.Store.Backend != "" && !validBackends[cfg.Store.Backend] {
		errs = append(errs, FieldError{
			Field:   "auth.store.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Store.Backend),
		})
	}
	if cfg.Store.Backend == "sqlite" && cfg.Store.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "auth.store.sqlite.path",
			Message: "SQLite path is required when backend is 'sqlite'",
		})
	}

	return errs
}

// validateUsers validates the inline user table.
func validateUsers(users []UserConfig) []FieldError {
	var errs []FieldError

	seenIDs := make(map[string]bool, len(users))
	seenKeys := make(map[string]bool, len(users))
	for i, user := range users {
		prefix := fmt.Sprintf("auth.users[%d]", i)

		if user.UserID == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".user_id",
				Message: "user id is required",
			})
		} else if seenIDs[user.UserID] {
			errs = append(errs, FieldError{
				Field:   prefix + ".user_id",
				Message: fmt.Sprintf("duplicate user id %q", user.UserID),
			})
		}
		seenIDs[user.UserID] = true

		if user.APIKey == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".api_key",
				Message: "api key is required",
			})
		} else if seenKeys[user.APIKey] {
			// Two users sharing a key makes lookup ambiguous
			errs = append(errs, FieldError{
				Field:   prefix + ".api_key",
				Message: "api key is already assigned to another user",
			})
		}
		seenKeys[user.APIKey] = true

		if user.DailyLimit < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".daily_limit",
				Message: "daily limit must be non-negative",
			})
		}
	}

	return errs
}

// validateUsage validates usage ledger configuration.
func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	// If usage recording is disabled, skip validation
	if cfg.Enabled != nil && !*cfg.Enabled {
		return errs
	}

	// Validate backend
	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if cfg.Backend != "" && !validBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "usage.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "usage.sqlite.path",
			Message: "SQLite path is required when backend is 'sqlite'",
		})
	}

	// Validate recorder tuning
	if cfg.Recorder.AsyncBuffer < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.recorder.async_buffer",
			Message: "async buffer must be non-negative",
		})
	}
	if cfg.Recorder.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.recorder.write_timeout",
			Message: "write timeout must be non-negative",
		})
	}

	// Validate retention
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.Days > 3650 { // 10 years is excessive
		errs = append(errs, FieldError{
			Field:   "usage.retention.days",
			Message: "retention days exceeds reasonable limit (3650 days / 10 years)",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	// Validate metrics path
	metricsEnabled := cfg.Metrics.Enabled == nil || *cfg.Metrics.Enabled
	if metricsEnabled {
		if cfg.Metrics.Path == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path is required when metrics are enabled",
			})
		} else if cfg.Metrics.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
	}

	// Validate histogram buckets are strictly increasing
	for i := 1; i < len(cfg.Metrics.RequestDurationBuckets); i++ {
		if cfg.Metrics.RequestDurationBuckets[i] <= cfg.Metrics.RequestDurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.request_duration_buckets",
				Message: "histogram buckets must be strictly increasing",
			})
			break
		}
	}

	return errs
}
