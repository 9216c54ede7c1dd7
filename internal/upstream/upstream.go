// Package upstream provides a scriptable mock AI backend for tests. It
// speaks just enough of the OpenAI chat completions API to stand in
// for a real provider: buffered JSON responses, SSE chunk scripts,
// error statuses, delays, and mid-stream connection drops.
package upstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Script configures how the backend answers /chat/completions.
type Script struct {
	// StatusCode is the response status. Zero means 200.
	StatusCode int

	// Body is the buffered JSON body. Strings and byte slices are
	// written as-is; everything else is JSON-encoded.
	Body interface{}

	// StreamChunks, when non-empty, makes the backend answer with an
	// SSE stream of these events (each already includes its own
	// payload; "data: " framing and the blank line are added here).
	StreamChunks []string

	// StreamDone appends the "data: [DONE]" terminator after the
	// chunks.
	StreamDone bool

	// Delay is slept before answering.
	Delay time.Duration

	// ChunkDelay is slept between stream chunks.
	ChunkDelay time.Duration

	// DropAfter, when positive, closes the connection after that many
	// chunks without finishing the stream.
	DropAfter int
}

// Backend is one scripted upstream provider.
type Backend struct {
	server *httptest.Server

	mu       sync.Mutex
	script   Script
	requests []CapturedRequest
}

// CapturedRequest is one request the backend received.
type CapturedRequest struct {
	Path          string
	Authorization string
	Body          map[string]interface{}
	RawBody       []byte
}

// New starts a backend that answers with the given script.
func New(script Script) *Backend {
	b := &Backend{script: script}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	return b
}

// URL returns the backend's base URL, suitable as a provider BaseURL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Close shuts the backend down.
func (b *Backend) Close() {
	b.server.Close()
}

// SetScript replaces the script for subsequent requests.
func (b *Backend) SetScript(script Script) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.script = script
}

// Requests returns the captured requests in arrival order.
func (b *Backend) Requests() []CapturedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]CapturedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// RequestCount returns how many requests the backend has received.
func (b *Backend) RequestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func (b *Backend) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	captured := CapturedRequest{
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		RawBody:       raw,
	}
	var parsed map[string]interface{}
	if json.Unmarshal(raw, &parsed) == nil {
		captured.Body = parsed
	}

	b.mu.Lock()
	b.requests = append(b.requests, captured)
	script := b.script
	b.mu.Unlock()

	if script.Delay > 0 {
		time.Sleep(script.Delay)
	}

	if len(script.StreamChunks) > 0 && (script.StatusCode == 0 || script.StatusCode == http.StatusOK) {
		b.stream(w, script)
		return
	}

	status := script.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch body := script.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, body)
	case []byte:
		_, _ = w.Write(body)
	default:
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (b *Backend) stream(w http.ResponseWriter, script Script) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	for i, chunk := range script.StreamChunks {
		if script.DropAfter > 0 && i >= script.DropAfter {
			// Abandon the response mid-stream. The httptest server
			// closes the connection when the handler returns without
			// a terminator, which readers see as an unexpected EOF.
			panic(http.ErrAbortHandler)
		}
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
		if script.ChunkDelay > 0 {
			time.Sleep(script.ChunkDelay)
		}
	}

	if script.StreamDone {
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

// ChatResponse builds an OpenAI-shaped chat completion body.
func ChatResponse(content, model string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

// ChatChunk builds one OpenAI-shaped streaming chunk payload.
func ChatChunk(delta, model string) string {
	chunk := map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"delta": map[string]interface{}{
					"content": delta,
				},
				"finish_reason": nil,
			},
		},
	}

	payload, _ := json.Marshal(chunk)
	return string(payload)
}
