// Package proxy implements the gateway's HTTP boundary: the
// OpenAI-compatible chat completions endpoint, the operational
// endpoints (/health, /stats, /v1/models, /auth/info), and the
// middleware chain they run behind.
//
// The package is organized as:
//
//   - types: OpenAI-compatible request and error shapes
//   - handlers: request processing (chat, health, stats, models, auth info)
//   - middleware: recovery, logging, request ID, CORS
//
// Request flow for /v1/chat/completions:
//
//  1. Middleware chain (recovery → logging → request ID → CORS)
//  2. Credential check and quota accounting via the auth gate
//  3. Body parse + validation (10 MiB cap)
//  4. Provider selection and per-provider model mapping
//  5. Streaming relay (buffered or direct transport) or buffered
//     JSON forward with _router_info attached
//
// All failures are written in the OpenAI error format. Failures after
// a stream has started are delivered as a single SSE error envelope,
// since the 200 status is already on the wire.
package proxy
