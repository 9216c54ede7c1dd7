package metrics

import (
	"meridian-hq/meridian/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks metrics related to upstream provider health and
// performance.
//
// Metrics:
//   - meridian_gateway_provider_health: Provider health status (1=healthy, 0=unhealthy)
//   - meridian_gateway_provider_response_time_seconds: Blended response time used for routing
//   - meridian_gateway_provider_error_count: Consecutive error count
//   - meridian_gateway_provider_probes_total: Health probes by outcome
//   - meridian_gateway_provider_probe_duration_seconds: Health probe latency
type ProviderMetrics struct {
	// Provider health status (gauge: 1=healthy, 0=unhealthy)
	health *prometheus.GaugeVec

	// Blended response time that feeds selection weighting
	responseTime *prometheus.GaugeVec

	// Consecutive error count that feeds selection weighting
	errorCount *prometheus.GaugeVec

	// Health probe counter by outcome
	probes *prometheus.CounterVec

	// Health probe latency histogram
	probeDuration *prometheus.HistogramVec
}

// Probe outcome label values.
const (
	ProbeOutcomeHealthy   = "healthy"
	ProbeOutcomeUnhealthy = "unhealthy"
	ProbeOutcomeError     = "error"
)

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		responseTime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_response_time_seconds",
				Help:      "Blended provider response time used for weighted selection",
			},
			[]string{"provider"},
		),

		errorCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_error_count",
				Help:      "Consecutive provider error count used for weighted selection",
			},
			[]string{"provider"},
		),

		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_probes_total",
				Help:      "Total number of health probes by outcome",
			},
			[]string{"provider", "outcome"},
		),

		probeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_probe_duration_seconds",
				Help:      "Health probe latency in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		pm.health,
		pm.responseTime,
		pm.errorCount,
		pm.probes,
		pm.probeDuration,
	)

	return pm
}

// UpdateHealth updates the health status of a provider.
// The health metric is a gauge where 1=healthy, 0=unhealthy.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// SetResponseTime records a provider's current blended response time in seconds.
func (pm *ProviderMetrics) SetResponseTime(provider string, seconds float64) {
	pm.responseTime.WithLabelValues(provider).Set(seconds)
}

// SetErrorCount records a provider's current consecutive error count.
func (pm *ProviderMetrics) SetErrorCount(provider string, count int64) {
	pm.errorCount.WithLabelValues(provider).Set(float64(count))
}

// RecordProbe records a completed health probe.
//
// Parameters:
//   - provider: Provider name
//   - outcome: ProbeOutcomeHealthy, ProbeOutcomeUnhealthy, or ProbeOutcomeError
//   - durationSeconds: probe latency in seconds
func (pm *ProviderMetrics) RecordProbe(provider, outcome string, durationSeconds float64) {
	pm.probes.WithLabelValues(provider, outcome).Inc()
	pm.probeDuration.WithLabelValues(provider).Observe(durationSeconds)
}
