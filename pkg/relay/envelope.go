package relay

import (
	"encoding/json"
	"fmt"
)

// Envelope types emitted on a stream when the relay cannot complete.
const (
	// TypeProviderError reports a non-200 upstream response on the
	// buffered transport.
	TypeProviderError = "provider_error"

	// TypeUpstreamError reports a non-200 upstream response on the
	// direct transport.
	TypeUpstreamError = "upstream_error"

	// TypeConnectionError reports a failure to reach the provider.
	TypeConnectionError = "connection_error"

	// TypeTimeoutError reports an exchange that exceeded the relay
	// timeout.
	TypeTimeoutError = "timeout_error"

	// TypeStreamError reports an I/O failure on an established stream.
	TypeStreamError = "stream_error"
)

// ErrorEnvelope is the payload delivered on an SSE stream when a relay
// fails. A broken stream still carries a parseable reason instead of
// just going quiet.
type ErrorEnvelope struct {
	Type     string `json:"type"`
	Code     int    `json:"code,omitempty"`
	Message  string `json:"message"`
	Provider string `json:"provider"`
}

// SSE renders the envelope as a server-sent event carrying the usual
// {"error": {...}} body.
func (e ErrorEnvelope) SSE() []byte {
	payload, _ := json.Marshal(map[string]ErrorEnvelope{"error": e})
	return []byte(fmt.Sprintf("data: %s\n\n", payload))
}
