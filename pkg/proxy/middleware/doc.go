// Package middleware provides the HTTP middleware chain for the
// gateway's cross-cutting concerns.
//
// Middleware is applied in a fixed order (outermost first):
//
//	handler = Recovery(RequestID(Logging(CORS(handler))))
//
//   - Recovery: recover from handler panics, return a generic 500
//   - RequestID: generate or propagate X-Request-ID (outside Logging
//     so both request log lines carry the id)
//   - Logging: structured request/response logging with latency
//   - CORS: Cross-Origin Resource Sharing headers per configuration
//
// No middleware enforces a per-request timeout: chat completions
// stream for minutes, and the relay layer owns its own watchdogs.
package middleware
