package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials in log fields. It scrubs both values whose
// key names look sensitive (api_key, authorization, ...) and values whose
// content matches a credential pattern regardless of key.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in credential pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
)

// NewRedactor creates a Redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*redactPattern{
			// Upstream and gateway API keys. Keys may carry hyphenated
			// suffixes (sk-router-2024-...), so the match runs to the end
			// of the token.
			{
				name:        PatternAPIKey,
				regex:       regexp.MustCompile(`sk-[a-zA-Z0-9_-]+`),
				replacement: "sk-***",
			},

			// Authorization header values.
			{
				name:        PatternBearerToken,
				regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
				replacement: "Bearer ***",
			},
		},
	}
}

// RedactString redacts credential patterns from a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}

	return redacted
}

// RedactAttr redacts a single log attribute. Sensitive keys have their
// value masked down to a short identifying prefix; other string values
// are pattern-scrubbed. Groups are redacted recursively.
func (r *Redactor) RedactAttr(attr slog.Attr) slog.Attr {
	if r.isSensitiveKey(attr.Key) {
		return slog.String(attr.Key, RedactAPIKey(attr.Value.String()))
	}

	switch attr.Value.Kind() {
	case slog.KindString:
		return slog.String(attr.Key, r.RedactString(attr.Value.String()))
	case slog.KindGroup:
		members := attr.Value.Group()
		clean := make([]slog.Attr, len(members))
		for i, member := range members {
			clean[i] = r.RedactAttr(member)
		}
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(clean...)}
	default:
		return attr
	}
}

// RedactArgs redacts credential material from variadic log arguments.
// Args are in the form: key1, value1, key2, value2, ...
func (r *Redactor) RedactArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		if key, ok := redacted[i-1].(string); ok && r.isSensitiveKey(key) {
			if str, ok := redacted[i].(string); ok {
				redacted[i] = RedactAPIKey(str)
				continue
			}
			redacted[i] = "***"
			continue
		}

		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}

	return redacted
}

// isSensitiveKey checks if a key name indicates credential material.
func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"api_key", "apikey",
		"auth", "authorization",
		"token", "secret", "credential",
		"shared_key",
		"password", "passwd", "pwd",
	}

	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	return false
}

// RedactAPIKey redacts an API key, keeping only a short prefix for
// identification.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "***"
	}

	return apiKey[:4] + "***"
}
