package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"meridian-hq/meridian/pkg/proxy/types"
)

const (
	// AuthorizationHeader carries the caller's bearer credential.
	AuthorizationHeader = "Authorization"

	// RequestIDHeader propagates request ids end to end.
	RequestIDHeader = "X-Request-ID"

	// DirectRelayHeader selects the direct stream transport without
	// touching the request body.
	DirectRelayHeader = "X-Use-Direct-Relay"
)

// ParseChatCompletionRequest reads and validates a chat completion
// request body. The body is capped at maxBodyBytes to prevent memory
// exhaustion.
func ParseChatCompletionRequest(r *http.Request, maxBodyBytes int64) (*types.ChatCompletionRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	if int64(len(body)) > maxBodyBytes {
		return nil, &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBodyBytes),
			Code:    types.CodeRequestTooLarge,
			Param:   "body",
		}
	}

	var req types.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}

	if err := req.Validate(); err != nil {
		if valErr, ok := err.(*types.ValidationError); ok {
			return nil, &RequestError{
				Message: valErr.Message,
				Code:    "invalid_value",
				Param:   valErr.Field,
			}
		}
		return nil, err
	}

	return &req, nil
}

// ExtractAPIKey extracts the bearer credential from the Authorization
// header. The scheme match is case-insensitive. Returns an empty string
// when the header is missing or malformed.
func ExtractAPIKey(r *http.Request) string {
	authHeader := r.Header.Get(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// ExtractRequestID returns the caller-provided request id, if any.
// Absent ids are generated by the middleware.
func ExtractRequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

// WantsDirectRelay reports whether the request asked for the direct
// stream transport, via either the body flag or the header.
func WantsDirectRelay(r *http.Request, req *types.ChatCompletionRequest) bool {
	if req != nil && req.UseDirectRelay {
		return true
	}
	return strings.EqualFold(r.Header.Get(DirectRelayHeader), "true")
}

// RequestError represents a request parsing or validation failure.
type RequestError struct {
	Message string
	Code    string
	Param   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts the error to OpenAI error format.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}
