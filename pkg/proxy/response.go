package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"

	"meridian-hq/meridian/pkg/proxy/types"
)

// WriteJSONResponse writes data as a JSON response with the given
// status code.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteError maps err to an OpenAI-compatible error response and
// writes it with the right status code.
func WriteError(w http.ResponseWriter, err error) error {
	errResp, statusCode := HandleError(err)
	return WriteJSONResponse(w, statusCode, errResp)
}

// WriteErrorResponse writes a pre-built error response, deriving the
// status code from the error type.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	return WriteJSONResponse(w, errResp.Error.HTTPStatusCode(), errResp)
}

// SetSSEHeaders sets the server-sent events response headers. Must be
// called before the first byte of the stream.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}
