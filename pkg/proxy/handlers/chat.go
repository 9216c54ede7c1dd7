package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"meridian-hq/meridian/pkg/auth"
	"meridian-hq/meridian/pkg/providers"
	"meridian-hq/meridian/pkg/proxy"
	"meridian-hq/meridian/pkg/proxy/types"
	"meridian-hq/meridian/pkg/relay"
	"meridian-hq/meridian/pkg/telemetry/logging"
	"meridian-hq/meridian/pkg/usage"
)

// ChatCompletions serves POST /v1/chat/completions: the OpenAI-compatible
// endpoint. Streaming defaults to on; the transport follows the request's
// direct-relay flag or header.
func (h *Handler) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	h.serveChat(w, r, false)
}

// ChatCompletionsDirect serves POST /v1/chat/completions/direct: same
// contract, but streaming and the direct transport are forced on. Meant
// for callers that want the lowest-overhead path explicitly.
func (h *Handler) ChatCompletionsDirect(w http.ResponseWriter, r *http.Request) {
	h.serveChat(w, r, true)
}

func (h *Handler) serveChat(w http.ResponseWriter, r *http.Request, forceDirect bool) {
	start := time.Now()
	ctx := r.Context()

	rec := &usage.Record{RequestID: logging.GetRequestID(ctx)}

	user, err := h.gate.Authorize(ctx, proxy.ExtractAPIKey(r))
	if err != nil {
		h.fail(w, rec, start, err)
		return
	}
	rec.UserID = user.UserID

	h.stats.RecordRequest()

	if err := h.gate.RecordUsage(ctx, user); err != nil {
		h.stats.RecordFailure()
		h.fail(w, rec, start, err)
		return
	}

	req, err := proxy.ParseChatCompletionRequest(r, h.cfg.Gateway.MaxBodyBytes)
	if err != nil {
		h.stats.RecordFailure()
		h.fail(w, rec, start, err)
		return
	}
	rec.Model = req.Model

	p, err := h.selector.Select(req.Model)
	if err != nil {
		h.stats.RecordFailure()
		h.fail(w, rec, start, err)
		return
	}
	h.stats.RecordProviderUse(p.Name())
	rec.Provider = p.Name()

	mapped := h.modelMap.Map(req.Model, p)
	rec.MappedModel = mapped

	if forceDirect || req.IsStreaming() {
		direct := forceDirect || proxy.WantsDirectRelay(r, req)
		h.streamChat(w, r, req, p, mapped, user, rec, start, direct)
		return
	}
	h.forwardChat(w, r, req, p, mapped, user, rec, start)
}

// streamChat relays an SSE stream through the chosen transport. The 200
// status is on the wire before the first upstream byte, so failures
// after that point arrive as a single in-stream error envelope.
func (h *Handler) streamChat(w http.ResponseWriter, r *http.Request, req *types.ChatCompletionRequest, p *providers.Provider, mapped string, user *auth.User, rec *usage.Record, start time.Time, direct bool) {
	forward := req.WithModel(mapped)
	streaming := true
	forward.Stream = &streaming

	body, err := json.Marshal(forward)
	if err != nil {
		h.stats.RecordFailure()
		h.fail(w, rec, start, err)
		return
	}

	rec.Streaming = true
	transport := relay.TransportBuffered
	yieldEvery := h.cfg.Relay.BufferedYieldEvery
	if direct {
		transport = relay.TransportDirect
		yieldEvery = h.cfg.Relay.DirectYieldEvery
	}
	rec.Transport = transport
	rec.StatusCode = http.StatusOK

	w.Header().Set(ProviderHeader, p.Name())
	w.Header().Set(TransportHeader, transport)
	proxy.SetSSEHeaders(w)

	ctx := r.Context()
	var relayErr error
	if direct {
		relayErr = h.forwarder.RelayStream(ctx, p, body, relay.NewWriterSink(w), yieldEvery)
	} else {
		relayErr = h.relayBuffered(w, r, p, body, yieldEvery)
	}

	elapsed := time.Since(start)
	status := "success"
	if relayErr != nil {
		h.stats.RecordFailure()
		status = "error"
		rec.ErrorKind = proxy.ErrorKind(relayErr)
		h.logger.ErrorContext(ctx, "stream relay failed",
			"provider", p.Name(),
			"transport", transport,
			"user", user.UserID,
			"error", relayErr,
		)
	} else {
		h.stats.RecordSuccess()
	}
	h.metrics.RecordRequest(p.Name(), req.Model, transport, status, elapsed)

	rec.LatencyMs = elapsed.Milliseconds()
	h.recorder.Record(rec)
}

// relayBuffered runs the relay against a channel sink and drains the
// channel to the client, flushing per chunk. A write failure means the
// client went away: the sink is closed so the relay stops producing.
func (h *Handler) relayBuffered(w http.ResponseWriter, r *http.Request, p *providers.Provider, body []byte, yieldEvery int) error {
	sink := relay.NewChannelSink(h.cfg.Relay.ChannelBuffer)
	defer sink.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.forwarder.RelayStream(r.Context(), p, body, sink, yieldEvery)
	}()

	flusher, _ := w.(http.Flusher)
	for chunk := range sink.Chunks() {
		if _, err := w.Write(chunk); err != nil {
			sink.Close()
			break
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	return <-errCh
}

// forwardChat handles the non-streaming path: one buffered JSON
// exchange, with gateway routing details attached under _router_info.
func (h *Handler) forwardChat(w http.ResponseWriter, r *http.Request, req *types.ChatCompletionRequest, p *providers.Provider, mapped string, user *auth.User, rec *usage.Record, start time.Time) {
	body, err := json.Marshal(req.WithModel(mapped))
	if err != nil {
		h.stats.RecordFailure()
		h.fail(w, rec, start, err)
		return
	}

	result, upstreamElapsed, err := h.forwarder.ForwardJSON(r.Context(), p, body)
	elapsed := time.Since(start)
	if err != nil {
		h.stats.RecordFailure()
		h.metrics.RecordRequest(p.Name(), req.Model, "json", "error", elapsed)
		h.fail(w, rec, start, err)
		return
	}

	result["_router_info"] = map[string]interface{}{
		"provider":       p.Name(),
		"response_time":  upstreamElapsed.Seconds(),
		"timestamp":      time.Now().Unix(),
		"streaming":      false,
		"user_id":        user.UserID,
		"requests_today": user.RequestsToday,
		"daily_limit":    user.DailyLimit,
	}

	h.stats.RecordSuccess()
	h.metrics.RecordRequest(p.Name(), req.Model, "json", "success", elapsed)

	rec.StatusCode = http.StatusOK
	rec.LatencyMs = elapsed.Milliseconds()
	h.recorder.Record(rec)

	_ = proxy.WriteJSONResponse(w, http.StatusOK, result)
}

// fail writes the error response and ledgers the failed request.
func (h *Handler) fail(w http.ResponseWriter, rec *usage.Record, start time.Time, err error) {
	errResp, status := proxy.HandleError(err)
	_ = proxy.WriteJSONResponse(w, status, errResp)

	rec.StatusCode = status
	rec.ErrorKind = proxy.ErrorKind(err)
	rec.LatencyMs = time.Since(start).Milliseconds()
	h.recorder.Record(rec)
}
