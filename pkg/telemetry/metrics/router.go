package metrics

import (
	"meridian-hq/meridian/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RouterMetrics tracks metrics related to request routing and relaying.
//
// Metrics:
//   - meridian_gateway_selections_total: Selector picks by provider
//   - meridian_gateway_requests_total: Completed exchanges by provider, model, mode, status
//   - meridian_gateway_request_duration_seconds: Exchange duration by provider, mode
//   - meridian_gateway_active_streams: Streams currently being relayed
//   - meridian_gateway_relayed_chunks_total: Relayed stream chunks by provider, transport
//   - meridian_gateway_relayed_bytes_total: Relayed stream bytes by provider, transport
type RouterMetrics struct {
	// Selector picks by provider
	selections *prometheus.CounterVec

	// Completed exchange counter
	requestsTotal *prometheus.CounterVec

	// Exchange duration histogram
	requestDuration *prometheus.HistogramVec

	// Streams currently in flight
	activeStreams prometheus.Gauge

	// Relayed chunk counter
	relayedChunks *prometheus.CounterVec

	// Relayed byte counter
	relayedBytes *prometheus.CounterVec
}

// Request mode label values.
const (
	ModeJSON     = "json"
	ModeBuffered = "buffered"
	ModeDirect   = "direct"
)

// Request status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// NewRouterMetrics creates and registers router metrics with the provided registry.
func NewRouterMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RouterMetrics {
	rm := &RouterMetrics{
		selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "selections_total",
				Help:      "Total number of selector picks by provider",
			},
			[]string{"provider"},
		),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of completed exchanges by provider, model, mode, and status",
			},
			[]string{"provider", "model", "mode", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Exchange duration in seconds by provider and mode",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider", "mode"},
		),

		activeStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "active_streams",
				Help:      "Number of streams currently being relayed",
			},
		),

		relayedChunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "relayed_chunks_total",
				Help:      "Total number of relayed stream chunks by provider and transport",
			},
			[]string{"provider", "transport"},
		),

		relayedBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "relayed_bytes_total",
				Help:      "Total number of relayed stream bytes by provider and transport",
			},
			[]string{"provider", "transport"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		rm.selections,
		rm.requestsTotal,
		rm.requestDuration,
		rm.activeStreams,
		rm.relayedChunks,
		rm.relayedBytes,
	)

	return rm
}

// RecordSelection records that the selector picked a provider.
func (rm *RouterMetrics) RecordSelection(provider string) {
	rm.selections.WithLabelValues(provider).Inc()
}

// RecordRequest records a completed exchange.
func (rm *RouterMetrics) RecordRequest(provider, model, mode, status string, durationSeconds float64) {
	rm.requestsTotal.WithLabelValues(provider, model, mode, status).Inc()
	rm.requestDuration.WithLabelValues(provider, mode).Observe(durationSeconds)
}

// StreamStarted increments the active stream gauge.
func (rm *RouterMetrics) StreamStarted() {
	rm.activeStreams.Inc()
}

// StreamEnded decrements the active stream gauge.
func (rm *RouterMetrics) StreamEnded() {
	rm.activeStreams.Dec()
}

// AddRelayed accumulates relayed payload counters for a stream.
func (rm *RouterMetrics) AddRelayed(provider, transport string, chunks, bytes int64) {
	rm.relayedChunks.WithLabelValues(provider, transport).Add(float64(chunks))
	rm.relayedBytes.WithLabelValues(provider, transport).Add(float64(bytes))
}
