package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"meridian-hq/meridian/pkg/config"
)

// Format is the log output encoding.
type Format string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = "json"
	// FormatText outputs logs in plain text format.
	FormatText Format = "text"
)

// New builds a structured logger from the logging configuration, writing
// to w. When credential redaction is enabled (the default), API keys and
// bearer tokens are scrubbed from messages and attribute values before
// they reach the output.
func New(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	if cfg.RedactCredentials == nil || *cfg.RedactCredentials {
		handler = &redactingHandler{inner: handler, redactor: NewRedactor()}
	}

	return slog.New(handler), nil
}

// Setup builds the process logger from the logging configuration and
// installs it as the slog default. Every package logs through the default
// logger, so this runs once during startup before any component is wired.
func Setup(cfg config.LoggingConfig) (*slog.Logger, error) {
	logger, err := New(cfg, os.Stdout)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// parseLevel parses a log level string into slog.Level.
func parseLevel(levelStr string) (slog.Level, error) {
	switch levelStr {
	case "debug", "DEBUG":
		return slog.LevelDebug, nil
	case "info", "INFO", "":
		return slog.LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn, nil
	case "error", "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseFormat parses a log format string into Format.
func parseFormat(formatStr string) (Format, error) {
	switch formatStr {
	case "json", "JSON", "":
		return FormatJSON, nil
	case "text", "TEXT":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", formatStr)
	}
}

// redactingHandler wraps a slog.Handler and scrubs credentials from the
// record before it reaches the underlying handler. Wrapping the handler
// keeps call sites on the plain slog API while guaranteeing that no
// upstream API key survives into log output.
type redactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

// Enabled reports whether the wrapped handler handles records at the given level.
func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle redacts the record's message and attributes, then delegates.
func (h *redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, h.redactor.RedactString(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(h.redactor.RedactAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

// WithAttrs returns a new handler with the redacted attributes attached.
func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		clean[i] = h.redactor.RedactAttr(attr)
	}
	return &redactingHandler{inner: h.inner.WithAttrs(clean), redactor: h.redactor}
}

// WithGroup returns a new handler with the given group name.
func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}
