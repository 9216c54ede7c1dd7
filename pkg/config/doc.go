// Package config provides configuration management for Meridian.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention MERIDIAN_SECTION_FIELD.
// For example:
//
//   - MERIDIAN_GATEWAY_LISTEN_ADDRESS overrides gateway.listen_address
//   - MERIDIAN_PROVIDERS_DEEPSEEK_API_KEY overrides the deepseek catalogue entry's api_key
//   - MERIDIAN_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Secret References
//
// Credential fields (provider api_key, auth shared_key, user api_key) accept
// "${env:VAR}" references that are resolved against the process environment
// at load time. A reference to an unset variable fails the load, so a missing
// secret is caught at startup rather than as upstream 401s later.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Gateway.ListenAddress)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Required field checks (e.g., provider base URLs and model lists)
//   - Range validation (e.g., weights must be positive)
//   - Format validation (e.g., valid URL format)
//   - Cross-section validation (e.g., model aliases must reference
//     configured providers and models those providers actually serve)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - providers.deepseek.base_url: base URL is required
//	  - model_aliases.gpt-4.ollama: unknown provider "ollama"
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	gateway:
//	  listen_address: "0.0.0.0:9000"
//
//	providers:
//	  - name: "deepseek"
//	    base_url: "https://api.deepseek.com/v1"
//	    api_key: "${env:DEEPSEEK_API_KEY}"
//	    models: ["deepseek-chat", "deepseek-coder"]
//	    weight: 3
//
//	model_aliases:
//	  gpt-4:
//	    deepseek: "deepseek-chat"
//
//	auth:
//	  mode: "shared"
//	  shared_key: "${env:MERIDIAN_SHARED_KEY}"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses read-write
// locks to allow concurrent reads while the instance is being installed.
package config
