// Package types defines the OpenAI-compatible request types and error
// envelope used at the gateway's HTTP boundary.
//
// ChatCompletionRequest matches the OpenAI Chat Completions API format
// so standard OpenAI SDKs work unmodified against the gateway:
//
//	from openai import OpenAI
//	client = OpenAI(base_url="http://localhost:8000/v1")
//	response = client.chat.completions.create(
//	    model="gpt-4",
//	    messages=[{"role": "user", "content": "Hello!"}]
//	)
//
// Two gateway-specific extensions ride on the standard shape: stream
// defaults to TRUE when absent (the gateway is streaming-first), and
// use_direct_relay selects the direct-write stream transport. Neither
// field is forwarded upstream.
//
// ErrorResponse follows the OpenAI error format ({"error": {...}}) so
// failures are parseable by the same SDKs.
package types
