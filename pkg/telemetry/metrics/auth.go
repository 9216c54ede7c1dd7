package metrics

import (
	"meridian-hq/meridian/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics tracks metrics related to request authentication and quota
// enforcement.
//
// Metrics:
//   - meridian_gateway_auth_admitted_total: Admitted requests by auth mode
//   - meridian_gateway_auth_rejections_total: Rejected requests by reason
type AuthMetrics struct {
	// Admitted request counter by auth mode
	admitted *prometheus.CounterVec

	// Rejected request counter by reason
	rejections *prometheus.CounterVec
}

// Rejection reason label values.
const (
	RejectionMissingKey    = "missing_key"
	RejectionInvalidKey    = "invalid_key"
	RejectionInactiveUser  = "inactive_user"
	RejectionQuotaExceeded = "quota_exceeded"
)

// NewAuthMetrics creates and registers auth metrics with the provided registry.
func NewAuthMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuthMetrics {
	am := &AuthMetrics{
		admitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "auth_admitted_total",
				Help:      "Total number of admitted requests by auth mode",
			},
			[]string{"mode"},
		),

		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "auth_rejections_total",
				Help:      "Total number of rejected requests by reason",
			},
			[]string{"reason"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		am.admitted,
		am.rejections,
	)

	return am
}

// RecordAdmitted records an admitted request.
func (am *AuthMetrics) RecordAdmitted(mode string) {
	am.admitted.WithLabelValues(mode).Inc()
}

// RecordRejection records a rejected request.
func (am *AuthMetrics) RecordRejection(reason string) {
	am.rejections.WithLabelValues(reason).Inc()
}
