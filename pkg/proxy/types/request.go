package types

import "fmt"

// ChatCompletionRequest is an OpenAI-compatible chat completion request
// plus the gateway's routing extensions. A parsed request is treated as
// immutable: forwarders call WithModel to get a provider-specific copy
// instead of mutating the original.
type ChatCompletionRequest struct {
	// Model is the model id the caller asked for (e.g. "gpt-4").
	// Subject to per-provider mapping before forwarding.
	Model string `json:"model"`

	// Messages is the conversation history.
	Messages []Message `json:"messages"`

	// MaxTokens caps the number of generated tokens. Optional.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls sampling randomness (0.0 to 2.0). Optional.
	Temperature *float64 `json:"temperature,omitempty"`

	// Stream selects SSE streaming. Unlike the OpenAI API, an absent
	// value means TRUE.
	Stream *bool `json:"stream,omitempty"`

	// UseDirectRelay requests the direct-write stream transport. A
	// gateway extension, stripped before forwarding.
	UseDirectRelay bool `json:"use_direct_relay,omitempty"`
}

// Message is a single message in a conversation.
type Message struct {
	// Role is the author of the message ("system", "user",
	// "assistant", or "tool").
	Role string `json:"role"`

	// Content is the message content. A string for plain text, or an
	// array of content parts for multimodal models; the gateway
	// forwards it opaquely either way.
	Content interface{} `json:"content"`
}

// IsStreaming reports whether the request asked for a streamed
// response. Absent means yes.
func (r *ChatCompletionRequest) IsStreaming() bool {
	return r.Stream == nil || *r.Stream
}

// WithModel returns a copy of the request carrying the given model id,
// with the gateway-only routing flag stripped. The receiver is not
// modified.
func (r *ChatCompletionRequest) WithModel(model string) *ChatCompletionRequest {
	clone := *r
	clone.Model = model
	clone.Messages = append([]Message(nil), r.Messages...)
	clone.UseDirectRelay = false
	return &clone
}

// Validate checks that required fields are present and values are
// within acceptable ranges.
func (r *ChatCompletionRequest) Validate() error {
	if r.Model == "" {
		return &ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}

	if len(r.Messages) == 0 {
		return &ValidationError{
			Field:   "messages",
			Message: "messages must contain at least one message",
		}
	}

	for i, msg := range r.Messages {
		if msg.Role == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: "message role is required",
			}
		}
		if msg.Content == nil {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Message: "message content is required",
			}
		}
	}

	if r.Temperature != nil && (*r.Temperature < 0.0 || *r.Temperature > 2.0) {
		return &ValidationError{
			Field:   "temperature",
			Message: "temperature must be between 0.0 and 2.0",
		}
	}

	if r.MaxTokens != nil && *r.MaxTokens < 1 {
		return &ValidationError{
			Field:   "max_tokens",
			Message: "max_tokens must be greater than 0",
		}
	}

	return nil
}

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}
