// Package handlers implements the gateway's HTTP endpoints.
//
// The chat completion handler is the hot path: it authorizes the
// caller, bills the quota, picks a provider, maps the model name, and
// relays the exchange. Streaming responses go through one of two
// wire-compatible transports. The buffered transport pumps upstream
// chunks through a channel that the handler drains to the client; the
// direct transport writes them straight to the response writer. A
// client cannot tell the transports apart from the bytes.
//
// The remaining endpoints are operational: /health and /stats report
// provider live state and gateway counters, /v1/models advertises the
// curated catalogue, /auth/info describes the auth configuration.
package handlers
