package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/telemetry/metrics"
)

// Monitor probes every provider in the registry on a fixed interval and
// keeps their live state current. A probe is a minimal chat completion
// (one "test" user message, max_tokens 1) against the provider's default
// model, so it exercises the same path real requests take.
//
// State transitions per probe:
//   - HTTP 200: healthy, error count reset, response time overwritten
//     with the probe elapsed, last check stamped.
//   - Non-200: unhealthy, error count incremented, elapsed and last
//     check still recorded (the exchange did complete).
//   - Transport failure: unhealthy, error count incremented, last check
//     stamped. No response time sample exists, so none is recorded.
type Monitor struct {
	registry *Registry
	interval time.Duration
	timeout  time.Duration
	client   *http.Client
	metrics  *metrics.Collector

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewMonitor creates a health monitor for the registry. The collector
// may be nil; probe results are then not exported.
func NewMonitor(registry *Registry, cfg config.HealthConfig, collector *metrics.Collector) *Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = config.DefaultHealthInterval
	}
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = config.DefaultHealthProbeTimeout
	}

	return &Monitor{
		registry: registry,
		interval: interval,
		timeout:  timeout,
		client:   &http.Client{},
		metrics:  collector,
	}
}

// Start launches the probe loop. It is idempotent: a second call while
// the loop is running does nothing. The loop stops when ctx is cancelled
// or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		slog.Warn("health monitor already running")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	go m.run(runCtx)

	slog.Info("health monitor started",
		"interval", m.interval,
		"probe_timeout", m.timeout,
		"providers", m.registry.Len(),
	)
}

// Stop cancels the probe loop and waits for it to exit. Safe to call when
// the monitor was never started.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	m.cancel()
	<-m.done
	m.running = false

	slog.Info("health monitor stopped")
}

// run is the probe loop. The first cycle runs immediately so the gateway
// does not route blind for a full interval after startup.
func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.checkAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkAll(ctx)
		}
	}
}

// checkAll probes every provider concurrently and waits for the cycle to
// finish. A panic anywhere in the cycle is recovered so the loop survives
// to the next tick.
func (m *Monitor) checkAll(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("health check cycle panicked", "panic", r)
		}
	}()

	providers := m.registry.Providers()
	slog.Debug("starting health check cycle", "providers", len(providers))

	var wg sync.WaitGroup
	for _, p := range providers {
		wg.Add(1)
		go func(p *Provider) {
			defer wg.Done()
			m.checkProvider(ctx, p)
		}(p)
	}
	wg.Wait()

	slog.Info("health check cycle completed",
		"healthy", m.registry.HealthyCount(),
		"total", len(providers),
	)
}

// checkProvider runs one probe and applies the state transition. Probe
// failures never escape: they are absorbed into the provider's state.
func (m *Monitor) checkProvider(ctx context.Context, p *Provider) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("provider probe panicked", "provider", p.Name(), "panic", r)
		}
	}()

	start := time.Now()
	ok, err := m.probe(ctx, p)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		p.SetStatus(StatusUnhealthy)
		p.IncrementErrors()
		p.SetLastCheck(time.Now())
		m.metrics.RecordProbe(p.Name(), metrics.ProbeOutcomeError, elapsed)
		slog.Error("provider health check failed",
			"provider", p.Name(),
			"error", err,
			"error_count", p.ErrorCount(),
		)

	case ok:
		p.SetResponseTime(elapsed.Seconds())
		p.SetLastCheck(time.Now())
		p.SetStatus(StatusHealthy)
		p.ResetErrors()
		m.metrics.RecordProbe(p.Name(), metrics.ProbeOutcomeHealthy, elapsed)
		slog.Info("provider is healthy",
			"provider", p.Name(),
			"response_time", elapsed.Seconds(),
		)

	default:
		p.SetResponseTime(elapsed.Seconds())
		p.SetLastCheck(time.Now())
		p.SetStatus(StatusUnhealthy)
		p.IncrementErrors()
		m.metrics.RecordProbe(p.Name(), metrics.ProbeOutcomeUnhealthy, elapsed)
		slog.Warn("provider returned unhealthy status",
			"provider", p.Name(),
			"error_count", p.ErrorCount(),
		)
	}

	m.metrics.UpdateProviderHealth(p.Name(), p.Status() == StatusHealthy)
	m.metrics.UpdateProviderState(p.Name(), p.ResponseTime(), p.ErrorCount())
}

// probe sends the minimal completion request. It reports (true, nil) for
// HTTP 200, (false, nil) for any other status, and a non-nil error when
// no HTTP exchange completed.
func (m *Monitor) probe(ctx context.Context, p *Provider) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	model := p.DefaultModel()
	if model == "" {
		model = "test"
	}

	payload := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": "test"},
		},
		"max_tokens": 1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(probeCtx, http.MethodPost, p.BaseURL()+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey())
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK, nil
}
