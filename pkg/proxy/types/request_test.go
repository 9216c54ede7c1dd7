package types

import (
	"encoding/json"
	"testing"
)

func boolPtr(b bool) *bool       { return &b }
func intPtr(i int) *int          { return &i }
func floatPtr(f float64) *float64 { return &f }

func TestValidate(t *testing.T) {
	valid := func() *ChatCompletionRequest {
		return &ChatCompletionRequest{
			Model:    "gpt-4",
			Messages: []Message{{Role: "user", Content: "hello"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ChatCompletionRequest)
		wantErr bool
		field   string
	}{
		{"valid request", func(r *ChatCompletionRequest) {}, false, ""},
		{"missing model", func(r *ChatCompletionRequest) { r.Model = "" }, true, "model"},
		{"no messages", func(r *ChatCompletionRequest) { r.Messages = nil }, true, "messages"},
		{"missing role", func(r *ChatCompletionRequest) { r.Messages[0].Role = "" }, true, "messages[0].role"},
		{"missing content", func(r *ChatCompletionRequest) { r.Messages[0].Content = nil }, true, "messages[0].content"},
		{"temperature too high", func(r *ChatCompletionRequest) { r.Temperature = floatPtr(2.5) }, true, "temperature"},
		{"temperature in range", func(r *ChatCompletionRequest) { r.Temperature = floatPtr(0.7) }, false, ""},
		{"zero max_tokens", func(r *ChatCompletionRequest) { r.MaxTokens = intPtr(0) }, true, "max_tokens"},
		{"structured content", func(r *ChatCompletionRequest) {
			r.Messages[0].Content = []interface{}{map[string]interface{}{"type": "text", "text": "hi"}}
		}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)

			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				ve, ok := err.(*ValidationError)
				if !ok {
					t.Fatalf("expected *ValidationError, got %T", err)
				}
				if ve.Field != tt.field {
					t.Errorf("field = %q, want %q", ve.Field, tt.field)
				}
			}
		})
	}
}

func TestIsStreamingDefaultsTrue(t *testing.T) {
	tests := []struct {
		name   string
		stream *bool
		want   bool
	}{
		{"absent", nil, true},
		{"explicit true", boolPtr(true), true},
		{"explicit false", boolPtr(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &ChatCompletionRequest{Stream: tt.stream}
			if got := req.IsStreaming(); got != tt.want {
				t.Errorf("IsStreaming() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithModelDoesNotMutateOriginal(t *testing.T) {
	original := &ChatCompletionRequest{
		Model:          "gpt-4",
		Messages:       []Message{{Role: "user", Content: "hello"}},
		UseDirectRelay: true,
	}

	clone := original.WithModel("gpt-4-turbo")

	if clone.Model != "gpt-4-turbo" {
		t.Errorf("clone model = %q, want %q", clone.Model, "gpt-4-turbo")
	}
	if clone.UseDirectRelay {
		t.Error("routing flag must be stripped from the forwarded copy")
	}
	if original.Model != "gpt-4" || !original.UseDirectRelay {
		t.Error("original request was mutated")
	}

	clone.Messages[0].Role = "system"
	if original.Messages[0].Role != "user" {
		t.Error("clone shares message slice with original")
	}
}

func TestRoutingFlagNotForwarded(t *testing.T) {
	req := &ChatCompletionRequest{
		Model:          "gpt-4",
		Messages:       []Message{{Role: "user", Content: "hello"}},
		UseDirectRelay: true,
	}

	body, err := json.Marshal(req.WithModel("gpt-4"))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var forwarded map[string]interface{}
	if err := json.Unmarshal(body, &forwarded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, present := forwarded["use_direct_relay"]; present {
		t.Error("use_direct_relay leaked into the forwarded body")
	}
}
