package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"meridian-hq/meridian/pkg/providers"
)

// Transport labels for the two stream delivery mechanisms.
const (
	TransportBuffered = "buffered"
	TransportDirect   = "direct"
)

// Sink receives the bytes of a relayed stream. The relay loop is the
// same for both transports; the sink decides how bytes reach the
// client.
type Sink interface {
	// Transport returns the transport label, TransportBuffered or
	// TransportDirect.
	Transport() string

	// Write delivers one chunk. The chunk is owned by the sink after
	// the call returns.
	Write(chunk []byte) error

	// End marks a cleanly finished stream.
	End() error

	// Abort delivers an error envelope and terminates the stream.
	Abort(env ErrorEnvelope) error
}

// RelayStream forwards a streaming chat completion request to the
// provider and copies the response bytes into the sink as they arrive.
//
// The provider's rolling response time is updated once the upstream
// responds. A cleanly finished stream decrements the provider error
// count; connection failures, timeouts, and mid-stream errors increment
// it and deliver a typed envelope through the sink. A watchdog aborts
// the exchange when the upstream stays silent past the request timeout,
// so long streams survive as long as bytes keep arriving. Every
// yieldEvery chunks the loop yields the scheduler to keep one fast
// upstream from starving its neighbors.
func (f *Forwarder) RelayStream(ctx context.Context, p *providers.Provider, body []byte, sink Sink, yieldEvery int) error {
	if yieldEvery <= 0 {
		yieldEvery = 1
	}

	f.metrics.StreamStarted()
	defer f.metrics.StreamEnded()

	relayCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(relayCtx, http.MethodPost, p.BaseURL()+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building upstream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	var timedOut atomic.Bool
	watchdog := time.AfterFunc(f.requestTimeout, func() {
		timedOut.Store(true)
		cancel()
	})
	defer watchdog.Stop()

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return f.abortStream(ctx, p, sink, err, &timedOut, false)
	}
	defer resp.Body.Close()

	p.AverageResponseTime(time.Since(start).Seconds())
	slog.DebugContext(ctx, "upstream stream connected",
		"provider", p.Name(),
		"status", resp.StatusCode,
		"connect_seconds", time.Since(start).Seconds(),
	)

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		p.IncrementErrors()

		// The buffered transport reports provider_error, the direct
		// transport upstream_error.
		envType := TypeProviderError
		if sink.Transport() == TransportDirect {
			envType = TypeUpstreamError
		}
		env := ErrorEnvelope{
			Type:     envType,
			Code:     resp.StatusCode,
			Message:  string(errBody),
			Provider: p.Name(),
		}
		slog.ErrorContext(ctx, "upstream rejected stream request",
			"provider", p.Name(),
			"status", resp.StatusCode,
		)
		if aerr := sink.Abort(env); aerr != nil {
			slog.WarnContext(ctx, "could not deliver error envelope",
				"provider", p.Name(),
				"error", aerr,
			)
		}
		return &UpstreamError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Body:       string(errBody),
		}
	}

	var chunks, relayed int64
	defer func() {
		if chunks > 0 {
			f.metrics.AddRelayed(p.Name(), sink.Transport(), chunks, relayed)
		}
	}()

	buf := make([]byte, f.chunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			watchdog.Reset(f.requestTimeout)

			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if werr := sink.Write(chunk); werr != nil {
				return fmt.Errorf("delivering chunk %d from %s: %w", chunks+1, p.Name(), werr)
			}

			chunks++
			relayed += int64(n)
			if chunks%int64(yieldEvery) == 0 {
				runtime.Gosched()
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return f.abortStream(ctx, p, sink, rerr, &timedOut, true)
		}
	}

	p.DecrementErrors()
	if eerr := sink.End(); eerr != nil {
		return fmt.Errorf("finishing stream from %s: %w", p.Name(), eerr)
	}

	slog.InfoContext(ctx, "stream relayed",
		"provider", p.Name(),
		"transport", sink.Transport(),
		"chunks", chunks,
		"bytes", relayed,
		"duration_seconds", time.Since(start).Seconds(),
	)
	return nil
}

// abortStream classifies a relay failure, charges it to the provider,
// and delivers the matching envelope when the caller is still
// listening.
func (f *Forwarder) abortStream(ctx context.Context, p *providers.Provider, sink Sink, err error, timedOut *atomic.Bool, midStream bool) error {
	// A dead parent context means the caller disconnected. Nothing to
	// deliver and no fault to record.
	if ctx.Err() != nil && !timedOut.Load() {
		_ = sink.End()
		return ctx.Err()
	}

	p.IncrementErrors()

	var env ErrorEnvelope
	var result error
	switch {
	case timedOut.Load() || isTimeout(err):
		env = ErrorEnvelope{
			Type:     TypeTimeoutError,
			Message:  fmt.Sprintf("Request to %s timed out: %v", p.Name(), err),
			Provider: p.Name(),
		}
		result = &TimeoutError{Provider: p.Name(), Timeout: f.requestTimeout}
	case !midStream:
		env = ErrorEnvelope{
			Type:     TypeConnectionError,
			Message:  fmt.Sprintf("Failed to connect to %s: %v", p.Name(), err),
			Provider: p.Name(),
		}
		result = &ConnectionError{Provider: p.Name(), Cause: err}
	default:
		env = ErrorEnvelope{
			Type:     TypeStreamError,
			Message:  fmt.Sprintf("Stream error from %s: %v", p.Name(), err),
			Provider: p.Name(),
		}
		result = &StreamError{Provider: p.Name(), Cause: err}
	}

	slog.ErrorContext(ctx, "stream relay failed",
		"provider", p.Name(),
		"type", env.Type,
		"error", err,
	)
	if aerr := sink.Abort(env); aerr != nil {
		slog.WarnContext(ctx, "could not deliver error envelope",
			"provider", p.Name(),
			"error", aerr,
		)
	}
	return result
}
