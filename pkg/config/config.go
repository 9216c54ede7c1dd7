package config

import "time"

// Config is the root configuration structure for Meridian.
// It contains all configuration sections for the gateway server, upstream
// providers, model translation, health probing, relay transports,
// authentication, usage recording, and telemetry.
type Config struct {
	// Gateway contains HTTP server configuration including listen address,
	// timeouts, and request size limits.
	Gateway GatewayConfig `yaml:"gateway"`

	// Providers is the ordered catalogue of upstream AI backends.
	// Provider names must be unique. The catalogue is fixed for the life
	// of the process; changing it requires a restart.
	Providers []ProviderConfig `yaml:"providers"`

	// ModelAliases maps a caller-facing generic model name to
	// provider-specific model ids. Outer key is the alias, inner key is a
	// provider name. Providers without an entry for an alias fall back to
	// their default (first) model.
	// Example: "gpt-4" -> {"deepseek": "deepseek-chat"}
	ModelAliases map[string]map[string]string `yaml:"model_aliases"`

	// AdvertisedModels is the curated model catalogue returned by the
	// models listing endpoint. It may be narrower than the union of all
	// provider model lists.
	AdvertisedModels []AdvertisedModelConfig `yaml:"advertised_models"`

	// Health contains background health probe configuration.
	Health HealthConfig `yaml:"health"`

	// Relay contains upstream forwarding and streaming transport tuning.
	Relay RelayConfig `yaml:"relay"`

	// Auth contains authentication mode, credentials, and the quota store.
	Auth AuthConfig `yaml:"auth"`

	// Usage contains per-request usage ledger configuration.
	Usage UsageConfig `yaml:"usage"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GatewayConfig contains configuration for the HTTP gateway server.
type GatewayConfig struct {
	// ListenAddress is the address and port for the gateway to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:9000", "0.0.0.0:9000").
	// Default: "0.0.0.0:9000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Streaming responses may legitimately run for minutes, so
	// this defaults to disabled; set it only if no streaming clients exist.
	// Default: 0 (disabled)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// If requests are still in-flight after this timeout, the server will
	// force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values, including the
	// request line. It does not limit the size of the request body.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of request bodies in bytes.
	// Requests with larger bodies are rejected before parsing.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS is enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins for CORS requests.
	// Use ["*"] to allow all origins (not recommended for production).
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers for CORS requests.
	// Default: ["Authorization", "Content-Type", "X-Request-ID", "X-Use-Direct-Relay"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers that are exposed to the client.
	// Default: ["X-Request-ID", "X-Gateway-Provider", "X-Gateway-Transport"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight request cache.
	// Default: 3600 (1 hour)
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls whether credentials (cookies, auth headers)
	// are allowed in CORS requests.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// ProviderConfig contains configuration for a single upstream AI backend.
type ProviderConfig struct {
	// Name is the unique provider identifier (e.g., "deepseek", "ollama").
	Name string `yaml:"name"`

	// BaseURL is the base URL for the provider's OpenAI-compatible API.
	// The gateway appends "/chat/completions" to it.
	// Example: "https://api.deepseek.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key sent to the provider as a bearer
	// token. Supports "${env:VAR}" references resolved at load time.
	APIKey string `yaml:"api_key"`

	// Models is the ordered list of model ids this provider serves.
	// The first entry is the provider's default model, used both for
	// health probes and as the fallback when model translation has no
	// entry for this provider.
	Models []string `yaml:"models"`

	// Weight is the static selection weight. Higher values receive
	// proportionally more traffic. Must be positive.
	// Default: 1
	Weight int `yaml:"weight"`
}

// AdvertisedModelConfig describes one entry of the public model catalogue.
type AdvertisedModelConfig struct {
	// ID is the model identifier shown to callers.
	ID string `yaml:"id"`

	// OwnedBy is the organization reported as owning the model.
	// Default: "meridian"
	OwnedBy string `yaml:"owned_by"`

	// Created is the Unix timestamp reported for the model.
	// Default: 1677649963
	Created int64 `yaml:"created"`
}

// HealthConfig contains background health probe configuration.
type HealthConfig struct {
	// Interval is how often every provider is probed.
	// Default: 30s
	Interval time.Duration `yaml:"interval"`

	// ProbeTimeout is the per-probe timeout, deliberately shorter than the
	// normal request timeout so a hung backend is detected quickly.
	// Default: 10s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// ErrorCeiling is the consecutive-error count at which a provider is
	// excluded from the primary selection set.
	// Default: 5
	ErrorCeiling int `yaml:"error_ceiling"`
}

// RelayConfig contains upstream forwarding and streaming transport tuning.
type RelayConfig struct {
	// RequestTimeout is the overall timeout for non-streaming forwards and
	// the read timeout for streaming relays.
	// Default: 60s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ConnectTimeout is the timeout for establishing the upstream
	// connection.
	// Default: 10s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// ChunkSize is the read size in bytes for streaming relays. 1 KiB
	// balances latency against syscall overhead.
	// Default: 1024
	ChunkSize int `yaml:"chunk_size"`

	// BufferedYieldEvery is how many chunks the buffered transport relays
	// before voluntarily yielding the scheduler.
	// Default: 100
	BufferedYieldEvery int `yaml:"buffered_yield_every"`

	// DirectYieldEvery is how many chunks the direct transport relays
	// before voluntarily yielding. The direct loop is tighter, so it
	// yields more often.
	// Default: 50
	DirectYieldEvery int `yaml:"direct_yield_every"`

	// ChannelBuffer is the chunk channel capacity for the buffered
	// transport.
	// Default: 64
	ChannelBuffer int `yaml:"channel_buffer"`
}

// AuthConfig contains authentication and quota configuration.
type AuthConfig struct {
	// Mode selects how callers are authenticated.
	// Options: "shared" (one secret, unlimited synthetic user),
	// "multi_user" (per-user credentials with daily limits).
	// Default: "shared"
	Mode string `yaml:"mode"`

	// SharedKey is the single credential accepted in "shared" mode.
	// Supports "${env:VAR}" references resolved at load time.
	SharedKey string `yaml:"shared_key"`

	// Users is the inline user table for "multi_user" mode.
	// Ignored when UsersFile is set.
	Users []UserConfig `yaml:"users"`

	// UsersFile is a YAML file containing the user table for "multi_user"
	// mode. The file holds a top-level "users" list of UserConfig entries.
	UsersFile string `yaml:"users_file"`

	// Watch enables reloading UsersFile when it changes on disk. Live
	// usage counters of unchanged users are preserved across reloads.
	// Default: false
	Watch bool `yaml:"watch"`

	// Store configures where per-user quota state lives.
	Store AuthStoreConfig `yaml:"store"`
}

// UserConfig describes one caller identity in "multi_user" mode.
type UserConfig struct {
	// UserID is the stable user identifier.
	UserID string `yaml:"user_id"`

	// APIKey is the credential presented by this user.
	// Supports "${env:VAR}" references resolved at load time.
	APIKey string `yaml:"api_key"`

	// DailyLimit is the number of requests allowed per calendar day.
	// Default: 1000
	DailyLimit int `yaml:"daily_limit"`

	// Active controls whether the account may authenticate at all.
	// Default: true
	Active *bool `yaml:"active"`
}

// AuthStoreConfig configures the quota state backend.
type AuthStoreConfig struct {
	// Backend specifies the storage backend to use.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite AuthSQLiteConfig `yaml:"sqlite"`
}

// AuthSQLiteConfig contains SQLite quota store configuration.
type AuthSQLiteConfig struct {
	// Path is the path to the SQLite database file.
	// Default: "data/users.db"
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// UsageConfig contains per-request usage ledger configuration.
type UsageConfig struct {
	// Enabled controls whether usage recording is active.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Backend specifies the ledger storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite UsageSQLiteConfig `yaml:"sqlite"`

	// Recorder contains async recorder tuning.
	Recorder UsageRecorderConfig `yaml:"recorder"`

	// Retention contains ledger retention configuration.
	Retention UsageRetentionConfig `yaml:"retention"`
}

// UsageSQLiteConfig contains SQLite ledger configuration.
type UsageSQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/usage.db"
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// UsageRecorderConfig contains async usage recorder tuning.
type UsageRecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Records are dropped (and counted) when the buffer is full.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// UsageRetentionConfig contains ledger retention configuration.
type UsageRetentionConfig struct {
	// Days is the number of days to retain usage records.
	// Records older than this are eligible for deletion.
	// 0 means keep records forever (no pruning).
	// Default: 30
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactCredentials masks API keys and bearer tokens in log output.
	// Default: true
	RedactCredentials *bool `yaml:"redact_credentials"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "meridian"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for forward
	// duration (seconds).
	// Default: [0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}
