// Meridian is an OpenAI-compatible AI gateway.
//
// It fronts a set of upstream AI providers behind a single
// /v1/chat/completions endpoint, providing:
//   - Weighted provider selection with health-aware fallback
//   - Model alias mapping per provider
//   - Streaming relay with buffered and direct transports
//   - API key authentication with daily quotas
//   - A per-request usage ledger with retention pruning
//
// Usage:
//
//	# Start the gateway with default configuration
//	meridian run
//
//	# Start with custom configuration file
//	meridian run --config /path/to/config.yaml
//
//	# Validate a configuration file
//	meridian validate --config /path/to/config.yaml
//
//	# Generate API keys for the multi-user auth mode
//	meridian keys generate --count 3
//
//	# Show version information
//	meridian version
package main

func main() {
	Execute()
}
