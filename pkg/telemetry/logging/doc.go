// Package logging builds the gateway's structured logger with credential
// redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging in JSON or text format
//   - Automatic credential redaction (upstream API keys, bearer tokens)
//   - Request-scoped context fields (request ID, user ID)
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	// During startup, install the process logger once:
//	logger, err := logging.Setup(cfg.Telemetry.Logging)
//	if err != nil {
//	    return err
//	}
//
//	// Everywhere else, log through the slog default:
//	slog.Info("request forwarded",
//	    "provider", "deepseek",
//	    "api_key", "sk-abc123xyz",  // Automatically redacted
//	    "duration_ms", 1234,
//	)
//
// # Credential Redaction
//
// Redaction happens inside the handler, so every call site is covered
// without opting in. Two mechanisms apply:
//
//   - Key-based: values under sensitive keys (api_key, authorization,
//     shared_key, ...) are masked down to a four-character prefix.
//   - Pattern-based: sk-... tokens and "Bearer ..." header values are
//     scrubbed wherever they appear in messages or string values.
//
// Redaction can be disabled via telemetry.logging.redact_credentials for
// local debugging; production configurations should leave it on.
package logging
