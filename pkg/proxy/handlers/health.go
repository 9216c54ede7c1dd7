package handlers

import (
	"net/http"
	"time"

	"meridian-hq/meridian/pkg/providers"
	"meridian-hq/meridian/pkg/proxy"
)

type providerHealth struct {
	Status       string  `json:"status"`
	ResponseTime float64 `json:"response_time"`
	ErrorCount   int64   `json:"error_count"`
	LastCheck    string  `json:"last_check,omitempty"`
}

type healthResponse struct {
	Status    string                    `json:"status"`
	Providers map[string]providerHealth `json:"providers"`
	Stats     interface{}               `json:"stats"`
	AuthMode  string                    `json:"auth_mode"`
}

// Health serves GET /health: overall gateway status plus per-provider
// live state. No authentication; load balancers poll this.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	states := h.registry.Snapshot()

	perProvider := make(map[string]providerHealth, len(states))
	healthy := 0
	for _, s := range states {
		if s.Status == providers.StatusHealthy {
			healthy++
		}
		ph := providerHealth{
			Status:       s.Status.String(),
			ResponseTime: s.ResponseTime,
			ErrorCount:   s.ErrorCount,
		}
		if !s.LastCheck.IsZero() {
			ph.LastCheck = s.LastCheck.Format(time.RFC3339)
		}
		perProvider[s.Name] = ph
	}

	status := "healthy"
	if healthy == 0 {
		status = "unhealthy"
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, healthResponse{
		Status:    status,
		Providers: perProvider,
		Stats:     h.stats.Snapshot(),
		AuthMode:  h.gate.Mode(),
	})
}
