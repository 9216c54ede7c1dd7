package usage

import (
	"context"
	"time"
)

// Record is one ledger entry describing a single forwarded chat request.
type Record struct {
	// ID is the unique record identifier (UUID).
	ID string `json:"id"`

	// RequestID correlates the record with the gateway request logs.
	RequestID string `json:"request_id"`

	// UserID identifies the caller the request was billed to.
	UserID string `json:"user_id"`

	// Provider is the upstream backend the request was routed to. Empty
	// when the request failed before selection.
	Provider string `json:"provider"`

	// Model is the model id the caller asked for.
	Model string `json:"model"`

	// MappedModel is the provider-specific model id actually forwarded.
	MappedModel string `json:"mapped_model"`

	// Streaming reports whether the response was relayed as a stream.
	Streaming bool `json:"streaming"`

	// Transport is the stream delivery mechanism ("buffered" or
	// "direct"), empty for non-streaming requests.
	Transport string `json:"transport,omitempty"`

	// StatusCode is the HTTP status returned to the caller. Streams
	// that failed mid-relay still carry 200 here, with the failure in
	// ErrorKind.
	StatusCode int `json:"status_code"`

	// ErrorKind classifies the failure ("timeout_error",
	// "connection_error", ...), empty on success.
	ErrorKind string `json:"error_kind,omitempty"`

	// LatencyMs is the total request handling time in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// Timestamp is when the request completed.
	Timestamp time.Time `json:"timestamp"`
}

// Storage is the ledger backend interface.
type Storage interface {
	// Save persists one record.
	Save(ctx context.Context, record *Record) error

	// List returns up to limit records, newest first. A non-positive
	// limit returns everything.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Cleanup deletes records older than the cutoff and returns how
	// many were removed.
	Cleanup(ctx context.Context, olderThan time.Time) (int64, error)

	// Close releases the backend's resources.
	Close() error
}
