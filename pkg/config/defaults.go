package config

import "time"

// Default values for configuration fields.
const (
	// Gateway defaults
	DefaultListenAddress   = "0.0.0.0:9000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 0 * time.Second // disabled, streams may run for minutes
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576  // 1MB
	DefaultMaxBodyBytes    = 10485760 // 10MB

	// CORS defaults
	DefaultCORSEnabled          = true
	DefaultCORSMaxAge           = 3600 // 1 hour
	DefaultCORSAllowCredentials = false

	// Provider defaults
	DefaultProviderWeight = 1

	// Advertised model defaults
	DefaultAdvertisedOwnedBy = "meridian"
	DefaultAdvertisedCreated = int64(1677649963)

	// Health probe defaults
	DefaultHealthInterval     = 30 * time.Second
	DefaultHealthProbeTimeout = 10 * time.Second
	DefaultHealthErrorCeiling = 5

	// Relay defaults
	DefaultRelayRequestTimeout     = 60 * time.Second
	DefaultRelayConnectTimeout     = 10 * time.Second
	DefaultRelayChunkSize          = 1024
	DefaultRelayBufferedYieldEvery = 100
	DefaultRelayDirectYieldEvery   = 50
	DefaultRelayChannelBuffer      = 64

	// Auth defaults
	DefaultAuthMode              = "shared"
	DefaultUserDailyLimit        = 1000
	DefaultAuthStoreBackend      = "memory"
	DefaultAuthSQLitePath        = "data/users.db"
	DefaultAuthSQLiteBusyTimeout = 5 * time.Second

	// Usage defaults
	DefaultUsageBackend           = "memory"
	DefaultUsageSQLitePath        = "data/usage.db"
	DefaultUsageSQLiteBusyTimeout = 5 * time.Second
	DefaultUsageAsyncBuffer       = 1000
	DefaultUsageWriteTimeout      = 5 * time.Second
	DefaultUsageRetentionDays     = 30
	DefaultUsageRetentionSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "meridian"
	DefaultMetricsSubsystem = "gateway"
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Gateway defaults
	if cfg.Gateway.ListenAddress == "" {
		cfg.Gateway.ListenAddress = DefaultListenAddress
	}
	if cfg.Gateway.ReadTimeout == 0 {
		cfg.Gateway.ReadTimeout = DefaultReadTimeout
	}
	// WriteTimeout intentionally keeps its zero value: a write deadline
	// would sever long-lived streaming responses.
	if cfg.Gateway.IdleTimeout == 0 {
		cfg.Gateway.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Gateway.ShutdownTimeout == 0 {
		cfg.Gateway.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Gateway.MaxHeaderBytes == 0 {
		cfg.Gateway.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Gateway.MaxBodyBytes == 0 {
		cfg.Gateway.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Provider defaults - applied to each catalogue entry
	for i := range cfg.Providers {
		if cfg.Providers[i].Weight == 0 {
			cfg.Providers[i].Weight = DefaultProviderWeight
		}
	}

	// Advertised model defaults
	for i := range cfg.AdvertisedModels {
		if cfg.AdvertisedModels[i].OwnedBy == "" {
			cfg.AdvertisedModels[i].OwnedBy = DefaultAdvertisedOwnedBy
		}
		if cfg.AdvertisedModels[i].Created == 0 {
			cfg.AdvertisedModels[i].Created = DefaultAdvertisedCreated
		}
	}

	// Health probe defaults
	if cfg.Health.Interval == 0 {
		cfg.Health.Interval = DefaultHealthInterval
	}
	if cfg.Health.ProbeTimeout == 0 {
		cfg.Health.ProbeTimeout = DefaultHealthProbeTimeout
	}
	if cfg.Health.ErrorCeiling == 0 {
		cfg.Health.ErrorCeiling = DefaultHealthErrorCeiling
	}

	// Relay defaults
	if cfg.Relay.RequestTimeout == 0 {
		cfg.Relay.RequestTimeout = DefaultRelayRequestTimeout
	}
	if cfg.Relay.ConnectTimeout == 0 {
		cfg.Relay.ConnectTimeout = DefaultRelayConnectTimeout
	}
	if cfg.Relay.ChunkSize == 0 {
		cfg.Relay.ChunkSize = DefaultRelayChunkSize
	}
	if cfg.Relay.BufferedYieldEvery == 0 {
		cfg.Relay.BufferedYieldEvery = DefaultRelayBufferedYieldEvery
	}
	if cfg.Relay.DirectYieldEvery == 0 {
		cfg.Relay.DirectYieldEvery = DefaultRelayDirectYieldEvery
	}
	if cfg.Relay.ChannelBuffer == 0 {
		cfg.Relay.ChannelBuffer = DefaultRelayChannelBuffer
	}

	// Auth defaults
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = DefaultAuthMode
	}
	for i := range cfg.Auth.Users {
		if cfg.Auth.Users[i].DailyLimit == 0 {
			cfg.Auth.Users[i].DailyLimit = DefaultUserDailyLimit
		}
		if cfg.Auth.Users[i].Active == nil {
			active := true
			cfg.Auth.Users[i].Active = &active
		}
	}
	if cfg.Auth.Store.Backend == "" {
		cfg.Auth.Store.Backend = DefaultAuthStoreBackend
	}
	if cfg.Auth.Store.SQLite.Path == "" {
		cfg.Auth.Store.SQLite.Path = DefaultAuthSQLitePath
	}
	if cfg.Auth.Store.SQLite.BusyTimeout == 0 {
		cfg.Auth.Store.SQLite.BusyTimeout = DefaultAuthSQLiteBusyTimeout
	}

	// Usage defaults
	if cfg.Usage.Enabled == nil {
		enabled := true
		cfg.Usage.Enabled = &enabled
	}
	if cfg.Usage.Backend == "" {
		cfg.Usage.Backend = DefaultUsageBackend
	}
	if cfg.Usage.SQLite.Path == "" {
		cfg.Usage.SQLite.Path = DefaultUsageSQLitePath
	}
	if cfg.Usage.SQLite.BusyTimeout == 0 {
		cfg.Usage.SQLite.BusyTimeout = DefaultUsageSQLiteBusyTimeout
	}
	if cfg.Usage.Recorder.AsyncBuffer == 0 {
		cfg.Usage.Recorder.AsyncBuffer = DefaultUsageAsyncBuffer
	}
	if cfg.Usage.Recorder.WriteTimeout == 0 {
		cfg.Usage.Recorder.WriteTimeout = DefaultUsageWriteTimeout
	}
	if cfg.Usage.Retention.Days == 0 {
		cfg.Usage.Retention.Days = DefaultUsageRetentionDays
	}
	if cfg.Usage.Retention.PruneSchedule == "" {
		cfg.Usage.Retention.PruneSchedule = DefaultUsageRetentionSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Logging.RedactCredentials == nil {
		redact := true
		cfg.Telemetry.Logging.RedactCredentials = &redact
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		enabled := true
		cfg.Telemetry.Metrics.Enabled = &enabled
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = DefaultRequestDurationBuckets()
	}

	// CORS defaults
	applyCORSDefaults(cfg)
}

// DefaultRequestDurationBuckets returns the default histogram buckets for
// request duration metrics, sized for chat completion latencies that run
// from sub-second JSON exchanges to minute-long streams. Returns a fresh
// slice so callers can modify it safely.
func DefaultRequestDurationBuckets() []float64 {
	return []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}
}

// applyCORSDefaults applies default values to CORS configuration.
func applyCORSDefaults(cfg *Config) {
	cors := &cfg.Gateway.CORS

	// Set enabled default (true)
	if !cors.Enabled {
		// Check if any CORS fields are set - if so, the user configured
		// CORS deliberately. Otherwise, use default.
		hasAnyConfig := len(cors.AllowedOrigins) > 0 ||
			len(cors.AllowedMethods) > 0 ||
			len(cors.AllowedHeaders) > 0 ||
			len(cors.ExposedHeaders) > 0 ||
			cors.MaxAge > 0

		if !hasAnyConfig {
			cors.Enabled = DefaultCORSEnabled
		}
	}

	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Request-ID", "X-Use-Direct-Relay"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{"X-Request-ID", "X-Gateway-Provider", "X-Gateway-Transport"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
	// AllowCredentials defaults to false (zero value), which is correct
}
