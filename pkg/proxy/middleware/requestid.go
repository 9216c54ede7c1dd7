package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"meridian-hq/meridian/pkg/telemetry/logging"
)

// RequestIDHeader is the HTTP header for request id propagation.
const RequestIDHeader = "X-Request-ID"

// RequestID generates a unique request id for each request and adds it
// to the context and response headers. A client-provided X-Request-ID
// is passed through instead of generating a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// generateRequestID returns 16 random bytes as 32 hex characters.
func generateRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in deep trouble
		// anyway; a fixed id keeps requests flowing.
		return "fallback-request-id"
	}
	return hex.EncodeToString(b)
}
