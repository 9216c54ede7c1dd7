package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meridian-hq/meridian/internal/upstream"
	"meridian-hq/meridian/pkg/auth"
	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/providers"
	"meridian-hq/meridian/pkg/relay"
	"meridian-hq/meridian/pkg/routing"
	"meridian-hq/meridian/pkg/usage"
	usagestorage "meridian-hq/meridian/pkg/usage/storage"
)

const testSharedKey = "sk-gateway-shared-key"

type testGateway struct {
	handler *Handler
	ledger  *usagestorage.MemoryStorage
	rec     *usage.Recorder
}

func newTestGateway(t *testing.T, backendURL string) *testGateway {
	t.Helper()

	cfg := &config.Config{
		Providers: []config.ProviderConfig{{
			Name:    "deepseek",
			BaseURL: backendURL,
			APIKey:  "sk-upstream-key",
			Models:  []string{"deepseek-chat"},
			Weight:  1,
		}},
		Gateway: config.GatewayConfig{},
		Auth: config.AuthConfig{
			Mode:      auth.ModeShared,
			SharedKey: testSharedKey,
		},
	}
	config.ApplyDefaults(cfg)

	registry := providers.NewRegistry(cfg.Providers)
	// Mark the provider healthy so the selector keeps it in the
	// primary candidate set without a probe cycle.
	for _, p := range registry.Providers() {
		p.SetStatus(providers.StatusHealthy)
	}

	store, err := auth.NewStore(cfg.Auth.Store)
	if err != nil {
		t.Fatalf("creating auth store: %v", err)
	}

	forwarder := relay.NewForwarder(cfg.Relay, nil)
	t.Cleanup(forwarder.Close)

	ledger := usagestorage.NewMemoryStorage()
	rec := usage.NewRecorder(ledger, cfg.Usage.Recorder)
	t.Cleanup(func() { rec.Close() })

	h := New(Deps{
		Config:    cfg,
		Registry:  registry,
		Selector:  routing.NewSelector(registry, cfg.Health, nil),
		ModelMap:  routing.NewModelMap(cfg.ModelAliases),
		Stats:     routing.NewStats(),
		Forwarder: forwarder,
		Gate:      auth.NewGate(cfg.Auth, store, nil),
		Store:     store,
		Recorder:  rec,
	})

	return &testGateway{handler: h, ledger: ledger, rec: rec}
}

func chatRequest(body string) *http.Request {
	r := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(body))
	r.Header.Set("Authorization", "Bearer "+testSharedKey)
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestChatCompletionsNonStreaming(t *testing.T) {
	backend := upstream.New(upstream.Script{
		Body: upstream.ChatResponse("hello there", "deepseek-chat"),
	})
	defer backend.Close()

	gw := newTestGateway(t, backend.URL())

	rec := httptest.NewRecorder()
	gw.handler.ChatCompletions(rec, chatRequest(
		`{"model":"deepseek-chat","messages":[{"role":"user","content":"hi"}],"stream":false}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}

	info, ok := resp["_router_info"].(map[string]interface{})
	if !ok {
		t.Fatal("response is missing _router_info")
	}
	if info["provider"] != "deepseek" {
		t.Errorf("_router_info.provider = %v, want deepseek", info["provider"])
	}
	if info["streaming"] != false {
		t.Errorf("_router_info.streaming = %v, want false", info["streaming"])
	}
	if info["user_id"] != auth.SharedUserID {
		t.Errorf("_router_info.user_id = %v, want %s", info["user_id"], auth.SharedUserID)
	}
	if info["requests_today"].(float64) != 1 {
		t.Errorf("_router_info.requests_today = %v, want 1", info["requests_today"])
	}
}

func TestChatCompletionsForwardsMappedModel(t *testing.T) {
	backend := upstream.New(upstream.Script{
		Body: upstream.ChatResponse("ok", "deepseek-chat"),
	})
	defer backend.Close()

	gw := newTestGateway(t, backend.URL())
	gw.handler.modelMap = routing.NewModelMap(map[string]map[string]string{
		"gpt-4": {"deepseek": "deepseek-chat"},
	})

	rec := httptest.NewRecorder()
	gw.handler.ChatCompletions(rec, chatRequest(
		`{"model":"gpt-4","messages":[{"role":"user","content":"hi"}],"stream":false}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	reqs := backend.Requests()
	if len(reqs) != 1 {
		t.Fatalf("backend received %d requests, want 1", len(reqs))
	}
	if got := reqs[0].Body["model"]; got != "deepseek-chat" {
		t.Errorf("forwarded model = %v, want deepseek-chat", got)
	}
	if _, leaked := reqs[0].Body["use_direct_relay"]; leaked {
		t.Error("routing flag leaked upstream")
	}
	if reqs[0].Authorization != "Bearer sk-upstream-key" {
		t.Errorf("upstream auth = %q, want provider key", reqs[0].Authorization)
	}
}

func TestChatCompletionsStreamTransportsAreByteIdentical(t *testing.T) {
	chunks := []string{
		upstream.ChatChunk("Hello", "deepseek-chat"),
		upstream.ChatChunk(" world", "deepseek-chat"),
	}

	run := func(t *testing.T, body string) (*httptest.ResponseRecorder, string) {
		backend := upstream.New(upstream.Script{
			StreamChunks: chunks,
			StreamDone:   true,
		})
		defer backend.Close()

		gw := newTestGateway(t, backend.URL())
		rec := httptest.NewRecorder()
		gw.handler.ChatCompletions(rec, chatRequest(body))
		return rec, rec.Body.String()
	}

	buffered, bufferedBody := run(t, `{"model":"deepseek-chat","messages":[{"role":"user","content":"hi"}]}`)
	direct, directBody := run(t, `{"model":"deepseek-chat","messages":[{"role":"user","content":"hi"}],"use_direct_relay":true}`)

	if buffered.Code != http.StatusOK || direct.Code != http.StatusOK {
		t.Fatalf("statuses = %d / %d, want 200", buffered.Code, direct.Code)
	}
	if bufferedBody != directBody {
		t.Errorf("transports produced different bytes:\nbuffered: %q\ndirect:   %q", bufferedBody, directBody)
	}
	if !strings.Contains(bufferedBody, "data: [DONE]\n\n") {
		t.Error("stream is missing the upstream end marker")
	}
	if got := buffered.Header().Get(TransportHeader); got != relay.TransportBuffered {
		t.Errorf("buffered transport header = %q", got)
	}
	if got := direct.Header().Get(TransportHeader); got != relay.TransportDirect {
		t.Errorf("direct transport header = %q", got)
	}
	if got := buffered.Header().Get(ProviderHeader); got != "deepseek" {
		t.Errorf("provider header = %q", got)
	}
}

func TestChatCompletionsStreamDefaultsOn(t *testing.T) {
	backend := upstream.New(upstream.Script{
		StreamChunks: []string{upstream.ChatChunk("hi", "deepseek-chat")},
		StreamDone:   true,
	})
	defer backend.Close()

	gw := newTestGateway(t, backend.URL())

	rec := httptest.NewRecorder()
	gw.handler.ChatCompletions(rec, chatRequest(
		`{"model":"deepseek-chat","messages":[{"role":"user","content":"hi"}]}`))

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content-type = %q, want text/event-stream (stream must default on)", got)
	}

	reqs := backend.Requests()
	if len(reqs) != 1 {
		t.Fatalf("backend received %d requests, want 1", len(reqs))
	}
	if got := reqs[0].Body["stream"]; got != true {
		t.Errorf("forwarded stream flag = %v, want true", got)
	}
}

func TestChatCompletionsDirectHeaderSelectsTransport(t *testing.T) {
	backend := upstream.New(upstream.Script{
		StreamChunks: []string{upstream.ChatChunk("hi", "deepseek-chat")},
		StreamDone:   true,
	})
	defer backend.Close()

	gw := newTestGateway(t, backend.URL())

	r := chatRequest(`{"model":"deepseek-chat","messages":[{"role":"user","content":"hi"}]}`)
	r.Header.Set("X-Use-Direct-Relay", "true")
	rec := httptest.NewRecorder()
	gw.handler.ChatCompletions(rec, r)

	if got := rec.Header().Get(TransportHeader); got != relay.TransportDirect {
		t.Errorf("transport header = %q, want direct", got)
	}
}

func TestChatCompletionsDirectEndpointForcesStream(t *testing.T) {
	backend := upstream.New(upstream.Script{
		StreamChunks: []string{upstream.ChatChunk("hi", "deepseek-chat")},
		StreamDone:   true,
	})
	defer backend.Close()

	gw := newTestGateway(t, backend.URL())

	// stream:false is overridden by the dedicated endpoint.
	rec := httptest.NewRecorder()
	gw.handler.ChatCompletionsDirect(rec, chatRequest(
		`{"model":"deepseek-chat","messages":[{"role":"user","content":"hi"}],"stream":false}`))

	if got := rec.Header().Get(TransportHeader); got != relay.TransportDirect {
		t.Errorf("transport header = %q, want direct", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content-type = %q, want text/event-stream", got)
	}
}

func TestChatCompletionsUpstreamErrorBeforeStream(t *testing.T) {
	backend := upstream.New(upstream.Script{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":"backend exploded"}`,
	})
	defer backend.Close()

	gw := newTestGateway(t, backend.URL())

	rec := httptest.NewRecorder()
	gw.handler.ChatCompletions(rec, chatRequest(
		`{"model":"deepseek-chat","messages":[{"role":"user","content":"hi"}]}`))

	// The stream is already 200; the failure must arrive as exactly
	// one SSE error envelope and nothing else.
	body := rec.Body.String()
	if got := strings.Count(body, "data: "); got != 1 {
		t.Fatalf("stream carries %d events, want exactly 1 envelope: %q", got, body)
	}

	payload := strings.TrimPrefix(strings.TrimSpace(body), "data: ")
	var env struct {
		Error struct {
			Type     string `json:"type"`
			Code     int    `json:"code"`
			Provider string `json:"provider"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		t.Fatalf("envelope is not JSON: %v", err)
	}
	if env.Error.Type != relay.TypeProviderError {
		t.Errorf("envelope type = %q, want %q", env.Error.Type, relay.TypeProviderError)
	}
	if env.Error.Code != http.StatusInternalServerError {
		t.Errorf("envelope code = %d, want 500", env.Error.Code)
	}
	if env.Error.Provider != "deepseek" {
		t.Errorf("envelope provider = %q, want deepseek", env.Error.Provider)
	}
}

func TestChatCompletionsNonStreamingUpstreamStatusPassthrough(t *testing.T) {
	backend := upstream.New(upstream.Script{
		StatusCode: http.StatusBadRequest,
		Body:       `{"error":"bad model"}`,
	})
	defer backend.Close()

	gw := newTestGateway(t, backend.URL())

	rec := httptest.NewRecorder()
	gw.handler.ChatCompletions(rec, chatRequest(
		`{"model":"deepseek-chat","messages":[{"role":"user","content":"hi"}],"stream":false}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want upstream's 400", rec.Code)
	}
}

func TestChatCompletionsRejectsBadCredential(t *testing.T) {
	backend := upstream.New(upstream.Script{Body: upstream.ChatResponse("x", "m")})
	defer backend.Close()

	gw := newTestGateway(t, backend.URL())

	r := httptest.NewRequest("POST", "/v1/chat/completions",
		strings.NewReader(`{"model":"deepseek-chat","messages":[{"role":"user","content":"hi"}]}`))
	r.Header.Set("Authorization", "Bearer sk-wrong")
	rec := httptest.NewRecorder()
	gw.handler.ChatCompletions(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if backend.RequestCount() != 0 {
		t.Error("unauthorized request reached the upstream")
	}
}

func TestChatCompletionsRecordsUsageLedger(t *testing.T) {
	backend := upstream.New(upstream.Script{
		Body: upstream.ChatResponse("ok", "deepseek-chat"),
	})
	defer backend.Close()

	gw := newTestGateway(t, backend.URL())

	rec := httptest.NewRecorder()
	gw.handler.ChatCompletions(rec, chatRequest(
		`{"model":"deepseek-chat","messages":[{"role":"user","content":"hi"}],"stream":false}`))

	gw.rec.Close()
	if gw.ledger.Size() != 1 {
		t.Fatalf("ledger holds %d records, want 1", gw.ledger.Size())
	}
	records, _ := gw.ledger.List(context.Background(), 0)
	entry := records[0]
	if entry.Provider != "deepseek" || entry.UserID != auth.SharedUserID {
		t.Errorf("ledger entry = %+v", entry)
	}
	if entry.StatusCode != http.StatusOK || entry.Streaming {
		t.Errorf("ledger entry status/streaming = %d/%v", entry.StatusCode, entry.Streaming)
	}
}
