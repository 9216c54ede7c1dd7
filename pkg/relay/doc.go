// Package relay forwards chat completion traffic to upstream providers.
//
// # Overview
//
// The Forwarder owns one pooled HTTP client shared by every upstream
// exchange. Non-streaming requests go through ForwardJSON, which returns
// the decoded upstream body; streaming requests go through RelayStream,
// which copies raw SSE bytes into a Sink chunk by chunk without parsing
// them. Either way the provider's live state moves with the outcome:
// response times blend in on every completed exchange, error counts
// climb on failures and decay on successes.
//
// # Transports
//
// Two sinks implement the two delivery transports:
//
//   - ChannelSink (TransportBuffered): chunks queue in a buffered
//     channel that the HTTP handler drains. A full buffer blocks the
//     upstream read, so slow clients apply backpressure.
//   - WriterSink (TransportDirect): chunks go straight to the
//     http.ResponseWriter and are flushed immediately, minimizing
//     per-chunk latency.
//
//	sink := relay.NewChannelSink(cfg.Relay.ChannelBuffer)
//	go func() {
//		err := fwd.RelayStream(ctx, provider, body, sink, cfg.Relay.BufferedYieldEvery)
//		...
//	}()
//	for chunk := range sink.Chunks() {
//		w.Write(chunk)
//	}
//
// # Failure Envelopes
//
// A stream that dies mid-flight cannot change its response status, so
// failures are delivered in-band as a final SSE event carrying an
// ErrorEnvelope. Non-200 upstream responses keep their status code in
// the envelope (typed provider_error on the buffered transport,
// upstream_error on the direct one); connection failures, timeouts, and
// mid-stream errors carry a message naming the provider.
//
// # Timeouts
//
// The connect timeout bounds dialing. The request timeout bounds the
// whole exchange for ForwardJSON, but for RelayStream it is a silence
// watchdog: the timer restarts on every read, so a stream may run for
// hours while a quiet upstream is cut off.
package relay
