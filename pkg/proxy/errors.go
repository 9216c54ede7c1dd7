package proxy

import (
	"errors"
	"fmt"
	"net/http"

	"meridian-hq/meridian/pkg/auth"
	"meridian-hq/meridian/pkg/relay"
	"meridian-hq/meridian/pkg/routing"
	"meridian-hq/meridian/pkg/proxy/types"
)

// HandleError maps gateway errors to OpenAI-compatible error responses
// and HTTP status codes. Upstream failures keep the upstream's own
// status; everything the gateway itself rejects gets a 4xx.
func HandleError(err error) (*types.ErrorResponse, int) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		resp := reqErr.ToErrorResponse()
		return resp, resp.Error.HTTPStatusCode()
	}

	if errors.Is(err, auth.ErrInvalidKey) {
		return types.NewErrorResponse(
			"Invalid API key",
			types.ErrorTypeAuthentication,
			"",
			"invalid_api_key",
		), http.StatusUnauthorized
	}

	var inactiveErr *auth.InactiveUserError
	if errors.As(err, &inactiveErr) {
		return types.NewErrorResponse(
			fmt.Sprintf("User %s is inactive", inactiveErr.UserID),
			types.ErrorTypePermissionDenied,
			"",
			"user_inactive",
		), http.StatusForbidden
	}

	var quotaErr *auth.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return types.NewErrorResponse(
			fmt.Sprintf("Daily quota exceeded. Limit: %d, Used: %d", quotaErr.Limit, quotaErr.Used),
			types.ErrorTypeRateLimitExceeded,
			"",
			"quota_exceeded",
		), http.StatusTooManyRequests
	}

	if errors.Is(err, routing.ErrNoProviders) {
		return types.NewErrorResponse(
			"No healthy providers available",
			types.ErrorTypeServiceUnavailable,
			"",
			types.CodeProviderUnavailable,
		), http.StatusServiceUnavailable
	}

	// Upstream rejected the request: hand its status through instead
	// of inventing one.
	var upstreamErr *relay.UpstreamError
	if errors.As(err, &upstreamErr) {
		return types.NewErrorResponse(
			fmt.Sprintf("Provider %s returned status %d: %s",
				upstreamErr.Provider, upstreamErr.StatusCode, upstreamErr.Body),
			types.ErrorTypeBadGateway,
			"",
			types.CodeProviderError,
		), upstreamErr.StatusCode
	}

	var timeoutErr *relay.TimeoutError
	if errors.As(err, &timeoutErr) {
		return types.NewErrorResponse(
			fmt.Sprintf("Provider %s timed out after %s", timeoutErr.Provider, timeoutErr.Timeout),
			types.ErrorTypeGatewayTimeout,
			"",
			types.CodeProviderTimeout,
		), http.StatusGatewayTimeout
	}

	var connErr *relay.ConnectionError
	if errors.As(err, &connErr) {
		return types.NewErrorResponse(
			fmt.Sprintf("Failed to connect to provider %s", connErr.Provider),
			types.ErrorTypeBadGateway,
			"",
			types.CodeProviderError,
		), http.StatusBadGateway
	}

	var streamErr *relay.StreamError
	if errors.As(err, &streamErr) {
		return types.NewErrorResponse(
			fmt.Sprintf("Stream from provider %s failed", streamErr.Provider),
			types.ErrorTypeBadGateway,
			"",
			types.CodeProviderError,
		), http.StatusBadGateway
	}

	return types.NewServerError(
		"An internal error occurred. Please try again later.",
	), http.StatusInternalServerError
}

// ErrorKind classifies an error for the usage ledger. Returns an empty
// string for nil errors.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var upstreamErr *relay.UpstreamError
	var timeoutErr *relay.TimeoutError
	var connErr *relay.ConnectionError
	var streamErr *relay.StreamError
	var quotaErr *auth.QuotaExceededError
	var inactiveErr *auth.InactiveUserError
	var reqErr *RequestError

	switch {
	case errors.As(err, &upstreamErr):
		return relay.TypeUpstreamError
	case errors.As(err, &timeoutErr):
		return relay.TypeTimeoutError
	case errors.As(err, &connErr):
		return relay.TypeConnectionError
	case errors.As(err, &streamErr):
		return relay.TypeStreamError
	case errors.Is(err, auth.ErrInvalidKey):
		return "invalid_api_key"
	case errors.As(err, &quotaErr):
		return "quota_exceeded"
	case errors.As(err, &inactiveErr):
		return "user_inactive"
	case errors.Is(err, routing.ErrNoProviders):
		return "no_providers"
	case errors.As(err, &reqErr):
		return "invalid_request"
	default:
		return "internal_error"
	}
}
