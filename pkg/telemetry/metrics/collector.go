package metrics

import (
	"time"

	"meridian-hq/meridian/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the gateway's Prometheus metrics. It manages a dedicated
// registry and provides intent-named recording methods for the three
// metric groups: provider health, request routing, and authentication.
//
// All recording methods are safe on a nil *Collector and become no-ops
// when metrics are disabled, so components never need to guard their
// metric calls.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Provider metrics
	providerMetrics *ProviderMetrics

	// Router metrics
	routerMetrics *RouterMetrics

	// Auth metrics
	authMetrics *AuthMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created; the gateway deliberately does not use the global
// default registry so tests can run collectors side by side.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = config.DefaultRequestDurationBuckets()
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	// Initialize metric subsystems
	c.providerMetrics = NewProviderMetrics(cfg, registry)
	c.routerMetrics = NewRouterMetrics(cfg, registry)
	c.authMetrics = NewAuthMetrics(cfg, registry)

	return c
}

// enabled reports whether metric recording is active.
func (c *Collector) enabled() bool {
	if c == nil {
		return false
	}
	return c.config.Enabled == nil || *c.config.Enabled
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// UpdateProviderHealth records the health status of a provider.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.enabled() {
		return
	}
	c.providerMetrics.UpdateHealth(provider, healthy)
}

// UpdateProviderState records the live response time and error count of a
// provider, typically after a probe or a completed forward.
func (c *Collector) UpdateProviderState(provider string, responseTime float64, errorCount int64) {
	if !c.enabled() {
		return
	}
	c.providerMetrics.SetResponseTime(provider, responseTime)
	c.providerMetrics.SetErrorCount(provider, errorCount)
}

// RecordProbe records the outcome and duration of a health probe.
func (c *Collector) RecordProbe(provider, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.providerMetrics.RecordProbe(provider, outcome, duration.Seconds())
}

// RecordSelection records that the selector picked a provider.
func (c *Collector) RecordSelection(provider string) {
	if !c.enabled() {
		return
	}
	c.routerMetrics.RecordSelection(provider)
}

// RecordRequest records a completed chat completion exchange.
//
// Parameters:
//   - provider: upstream provider name
//   - model: translated model sent upstream
//   - mode: "json", "buffered", or "direct"
//   - status: "success" or "error"
//   - duration: total exchange duration
func (c *Collector) RecordRequest(provider, model, mode, status string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.routerMetrics.RecordRequest(provider, model, mode, status, duration.Seconds())
}

// StreamStarted increments the active stream gauge.
func (c *Collector) StreamStarted() {
	if !c.enabled() {
		return
	}
	c.routerMetrics.StreamStarted()
}

// StreamEnded decrements the active stream gauge.
func (c *Collector) StreamEnded() {
	if !c.enabled() {
		return
	}
	c.routerMetrics.StreamEnded()
}

// AddRelayed accumulates relayed payload counters for a stream.
func (c *Collector) AddRelayed(provider, transport string, chunks, bytes int64) {
	if !c.enabled() {
		return
	}
	c.routerMetrics.AddRelayed(provider, transport, chunks, bytes)
}

// RecordAuthAdmitted records an admitted request per auth mode.
func (c *Collector) RecordAuthAdmitted(mode string) {
	if !c.enabled() {
		return
	}
	c.authMetrics.RecordAdmitted(mode)
}

// RecordAuthRejection records a rejected request by reason.
func (c *Collector) RecordAuthRejection(reason string) {
	if !c.enabled() {
		return
	}
	c.authMetrics.RecordRejection(reason)
}
