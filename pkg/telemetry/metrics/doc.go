// Package metrics provides Prometheus metrics collection for the gateway.
//
// # Overview
//
// The metrics package implements Prometheus metrics for monitoring
// request routing, provider health, streaming relays, and authentication.
// All metrics live in a dedicated registry owned by the Collector; the
// global default registry is never touched, so tests can run collectors
// side by side.
//
// # Metric Groups
//
//   - Provider Metrics: health status, blended response time, error
//     counts, probe outcomes and latency
//   - Router Metrics: selector picks, completed exchanges, exchange
//     duration, active streams, relayed chunks and bytes
//   - Auth Metrics: admitted requests by mode, rejections by reason
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// Record a completed exchange
//	collector.RecordRequest("deepseek", "deepseek-chat", "buffered", "success", duration)
//
//	// Record probe results
//	collector.UpdateProviderHealth("deepseek", true)
//	collector.RecordProbe("deepseek", metrics.ProbeOutcomeHealthy, probeDuration)
//
//	// Expose the endpoint
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// All recording methods are no-ops on a nil *Collector and when metrics
// are disabled in configuration, so components call them unconditionally.
//
// # Prometheus Endpoint
//
// Metrics are exposed in standard Prometheus format under the configured
// namespace and subsystem (default meridian_gateway):
//
//	# HELP meridian_gateway_requests_total Total number of completed exchanges
//	# TYPE meridian_gateway_requests_total counter
//	meridian_gateway_requests_total{provider="deepseek",model="deepseek-chat",mode="buffered",status="success"} 1234
//
// Label cardinality is naturally bounded: providers and models come from
// the fixed startup catalogue, and mode, status, outcome, and reason are
// closed enums.
package metrics
