package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"meridian-hq/meridian/pkg/config"
)

func boolPtr(b bool) *bool {
	return &b
}

// lastLine returns the final non-empty log line written to buf.
func lastLine(t *testing.T, buf *bytes.Buffer) string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("no log output captured")
	}
	return lines[len(lines)-1]
}

// parseJSONLine unmarshals a single JSON log line into a map.
func parseJSONLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v\nline: %s", err, line)
	}
	return entry
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("gateway started", "listen_address", "127.0.0.1:9000")

	entry := parseJSONLine(t, lastLine(t, &buf))
	if entry["msg"] != "gateway started" {
		t.Errorf("msg = %v, want %q", entry["msg"], "gateway started")
	}
	if entry["listen_address"] != "127.0.0.1:9000" {
		t.Errorf("listen_address = %v, want %q", entry["listen_address"], "127.0.0.1:9000")
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("gateway started")

	out := buf.String()
	if !strings.Contains(out, "msg=") {
		t.Errorf("text output missing msg key: %s", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("text format produced JSON output: %s", out)
	}
}

func TestNew_DefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("hello")

	parseJSONLine(t, lastLine(t, &buf))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for unknown level, got nil")
	}
	if !strings.Contains(err.Error(), "log level") {
		t.Errorf("error = %v, want mention of log level", err)
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for unknown format, got nil")
	}
	if !strings.Contains(err.Error(), "log format") {
		t.Errorf("error = %v, want mention of log format", err)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("should be filtered")
	if buf.Len() != 0 {
		t.Errorf("info line emitted at warn level: %s", buf.String())
	}

	logger.Warn("should pass")
	if buf.Len() == 0 {
		t.Error("warn line missing at warn level")
	}
}

func TestNew_RedactsSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("authorizing request", "api_key", "sk-test-1234567890abcdef")

	entry := parseJSONLine(t, lastLine(t, &buf))
	got, _ := entry["api_key"].(string)
	if strings.Contains(got, "1234567890") {
		t.Errorf("api_key leaked into log output: %s", got)
	}
	if got != "sk-t***" {
		t.Errorf("api_key = %q, want %q", got, "sk-t***")
	}
}

func TestNew_RedactsPatternInValue(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("upstream call failed",
		"detail", "request with key sk-abcdef123456 rejected",
	)

	entry := parseJSONLine(t, lastLine(t, &buf))
	got, _ := entry["detail"].(string)
	if strings.Contains(got, "abcdef123456") {
		t.Errorf("credential leaked into detail: %s", got)
	}
	if !strings.Contains(got, "sk-***") {
		t.Errorf("detail = %q, want sk-*** placeholder", got)
	}
}

func TestNew_RedactsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("rejected key sk-secret-key-material")

	entry := parseJSONLine(t, lastLine(t, &buf))
	msg, _ := entry["msg"].(string)
	if strings.Contains(msg, "secret-key-material") {
		t.Errorf("credential leaked into message: %s", msg)
	}
}

func TestNew_RedactsWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.With("authorization", "Bearer sk-test-ImALongKey").Info("request admitted")

	line := lastLine(t, &buf)
	if strings.Contains(line, "ImALongKey") {
		t.Errorf("credential leaked through With(): %s", line)
	}
}

func TestNew_RedactionDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{
		Level:             "info",
		Format:            "json",
		RedactCredentials: boolPtr(false),
	}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("debugging", "api_key", "sk-visible-key")

	entry := parseJSONLine(t, lastLine(t, &buf))
	if entry["api_key"] != "sk-visible-key" {
		t.Errorf("api_key = %v, want raw value with redaction disabled", entry["api_key"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"ERROR", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := parseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"text", FormatText, false},
		{"TEXT", FormatText, false},
		{"console", "", true},
	}

	for _, tt := range tests {
		got, err := parseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
