package relay

import (
	"errors"
	"fmt"
	"time"
)

// ErrSinkClosed is returned by sink operations after the consumer has
// stopped accepting bytes.
var ErrSinkClosed = errors.New("relay: sink closed")

// UpstreamError represents a non-200 response from a provider. The
// gateway passes the upstream status and body through to the caller
// instead of inventing its own.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider %q returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// ConnectionError represents a failure to reach a provider at all.
type ConnectionError struct {
	Provider string
	Cause    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("provider %q connection failed: %v", e.Provider, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents an exchange that exceeded the relay timeout,
// either while connecting or waiting between stream reads.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q timed out after %s", e.Provider, e.Timeout)
}

// StreamError represents an I/O failure after a stream was established.
// Bytes relayed before the failure have already reached the caller and
// cannot be taken back.
type StreamError struct {
	Provider string
	Cause    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("provider %q stream failed: %v", e.Provider, e.Cause)
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}
