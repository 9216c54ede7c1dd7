package proxy

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"meridian-hq/meridian/pkg/proxy/types"
)

const testMaxBody = 10 * 1024 * 1024

func TestParseChatCompletionRequest(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantErr  bool
		wantCode string
	}{
		{
			name: "valid request",
			body: `{"model":"gpt-4","messages":[{"role":"user","content":"hi"}]}`,
		},
		{
			name:     "invalid JSON",
			body:     `{"model":`,
			wantErr:  true,
			wantCode: types.CodeInvalidJSON,
		},
		{
			name:     "missing model",
			body:     `{"messages":[{"role":"user","content":"hi"}]}`,
			wantErr:  true,
			wantCode: "invalid_value",
		},
		{
			name:     "empty messages",
			body:     `{"model":"gpt-4","messages":[]}`,
			wantErr:  true,
			wantCode: "invalid_value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(tt.body))

			req, err := ParseChatCompletionRequest(r, testMaxBody)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				reqErr, ok := err.(*RequestError)
				if !ok {
					t.Fatalf("expected *RequestError, got %T", err)
				}
				if reqErr.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", reqErr.Code, tt.wantCode)
				}
				return
			}
			if req.Model != "gpt-4" {
				t.Errorf("model = %q, want %q", req.Model, "gpt-4")
			}
		})
	}
}

func TestParseChatCompletionRequestSizeLimit(t *testing.T) {
	padding := bytes.Repeat([]byte("x"), 2048)
	body := `{"model":"gpt-4","messages":[{"role":"user","content":"` + string(padding) + `"}]}`

	r := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(body))

	_, err := ParseChatCompletionRequest(r, 1024)
	reqErr, ok := err.(*RequestError)
	if !ok {
		t.Fatalf("expected *RequestError, got %v", err)
	}
	if reqErr.Code != types.CodeRequestTooLarge {
		t.Errorf("code = %q, want %q", reqErr.Code, types.CodeRequestTooLarge)
	}
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"standard bearer", "Bearer sk-test-123", "sk-test-123"},
		{"lowercase scheme", "bearer sk-test-123", "sk-test-123"},
		{"mixed case scheme", "BeArEr sk-test-123", "sk-test-123"},
		{"no header", "", ""},
		{"wrong scheme", "Basic sk-test-123", ""},
		{"missing key", "Bearer", ""},
		{"padded key", "Bearer  sk-test-123 ", "sk-test-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", nil)
			if tt.header != "" {
				r.Header.Set(AuthorizationHeader, tt.header)
			}
			if got := ExtractAPIKey(r); got != tt.want {
				t.Errorf("ExtractAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWantsDirectRelay(t *testing.T) {
	tests := []struct {
		name   string
		flag   bool
		header string
		want   bool
	}{
		{"neither", false, "", false},
		{"body flag", true, "", true},
		{"header true", false, "true", true},
		{"header mixed case", false, "True", true},
		{"header false", false, "false", false},
		{"both", true, "true", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", nil)
			if tt.header != "" {
				r.Header.Set(DirectRelayHeader, tt.header)
			}
			req := &types.ChatCompletionRequest{UseDirectRelay: tt.flag}
			if got := WantsDirectRelay(r, req); got != tt.want {
				t.Errorf("WantsDirectRelay() = %v, want %v", got, tt.want)
			}
		})
	}
}
