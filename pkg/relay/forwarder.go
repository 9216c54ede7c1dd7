package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/providers"
	"meridian-hq/meridian/pkg/telemetry/metrics"
)

// Forwarder moves chat completion requests to upstream providers over a
// shared connection pool. Non-streaming requests go through ForwardJSON,
// streaming requests through RelayStream.
type Forwarder struct {
	requestTimeout time.Duration
	connectTimeout time.Duration
	chunkSize      int
	client         *http.Client
	metrics        *metrics.Collector
}

// NewForwarder creates a forwarder from the relay configuration. Zero
// config values fall back to the package defaults. The collector may be
// nil.
func NewForwarder(cfg config.RelayConfig, collector *metrics.Collector) *Forwarder {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = config.DefaultRelayRequestTimeout
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = config.DefaultRelayConnectTimeout
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = config.DefaultRelayChunkSize
	}

	// No Client.Timeout here: a total deadline would kill long streams.
	// ForwardJSON applies the request timeout per call and RelayStream
	// runs a between-reads watchdog instead.
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Forwarder{
		requestTimeout: requestTimeout,
		connectTimeout: connectTimeout,
		chunkSize:      chunkSize,
		client:         &http.Client{Transport: transport},
		metrics:        collector,
	}
}

// Close releases idle upstream connections.
func (f *Forwarder) Close() {
	f.client.CloseIdleConnections()
}

// ForwardJSON sends a non-streaming chat completion request to the
// provider and returns the decoded response body together with the
// exchange duration. The provider's rolling response time is updated on
// every completed exchange and its error count moves with the outcome.
func (f *Forwarder) ForwardJSON(ctx context.Context, p *providers.Provider, body []byte) (map[string]interface{}, time.Duration, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, p.BaseURL()+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("building upstream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey())
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		// A canceled parent context means the caller went away, not
		// that the provider failed.
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, elapsed, ctx.Err()
		}
		p.IncrementErrors()
		if isTimeout(err) {
			slog.ErrorContext(ctx, "upstream request timed out",
				"provider", p.Name(),
				"timeout", f.requestTimeout,
			)
			return nil, elapsed, &TimeoutError{Provider: p.Name(), Timeout: f.requestTimeout}
		}
		slog.ErrorContext(ctx, "upstream connection failed",
			"provider", p.Name(),
			"error", err,
		)
		return nil, elapsed, &ConnectionError{Provider: p.Name(), Cause: err}
	}
	defer resp.Body.Close()

	p.AverageResponseTime(elapsed.Seconds())

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		p.IncrementErrors()
		slog.ErrorContext(ctx, "upstream returned error status",
			"provider", p.Name(),
			"status", resp.StatusCode,
		)
		return nil, elapsed, &UpstreamError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Body:       string(errBody),
		}
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		p.IncrementErrors()
		return nil, elapsed, fmt.Errorf("decoding response from %s: %w", p.Name(), err)
	}

	p.DecrementErrors()
	slog.DebugContext(ctx, "upstream request completed",
		"provider", p.Name(),
		"seconds", elapsed.Seconds(),
	)
	return result, elapsed, nil
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
