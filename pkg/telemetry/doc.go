// Package telemetry provides observability for the meridian gateway.
//
// # Components
//
//   - logging: structured slog logging with credential redaction
//   - metrics: Prometheus metrics collection
//
// # Usage
//
//	// Install the process logger
//	logger, err := logging.Setup(cfg.Telemetry.Logging)
//
//	// Create the metrics collector
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRequest("deepseek", "deepseek-chat", "buffered", "success", elapsed)
//
// Every component accepts a nil *metrics.Collector and records nothing,
// so metrics can be switched off without conditional call sites.
//
// # Credential Protection
//
// API keys are redacted from logs by default: sk-abc123... → sk-***.
package telemetry
