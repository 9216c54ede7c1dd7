package handlers

import (
	"net/http"
	"time"

	"meridian-hq/meridian/pkg/proxy"
)

type providerSummary struct {
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Weight       float64  `json:"weight"`
	ResponseTime float64  `json:"response_time"`
	ErrorCount   int64    `json:"error_count"`
	Models       []string `json:"models"`
}

type userInfo struct {
	UserID        string `json:"user_id"`
	RequestsToday int    `json:"requests_today"`
	DailyLimit    int    `json:"daily_limit"`
	TotalRequests int    `json:"total_requests"`
}

type statsResponse struct {
	Stats     interface{}       `json:"stats"`
	Providers []providerSummary `json:"providers"`
	UserInfo  userInfo          `json:"user_info"`
}

// Stats serves GET /stats: gateway counters, a per-provider summary,
// and the caller's own quota state. Requires authentication but does
// not bill the quota.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	user, err := h.gate.Authorize(r.Context(), proxy.ExtractAPIKey(r))
	if err != nil {
		_ = proxy.WriteError(w, err)
		return
	}

	states := h.registry.Snapshot()
	summaries := make([]providerSummary, 0, len(states))
	for _, s := range states {
		summaries = append(summaries, providerSummary{
			Name:         s.Name,
			Status:       s.Status.String(),
			Weight:       s.Weight,
			ResponseTime: s.ResponseTime,
			ErrorCount:   s.ErrorCount,
			Models:       s.Models,
		})
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, statsResponse{
		Stats:     h.stats.Snapshot(),
		Providers: summaries,
		UserInfo: userInfo{
			UserID:        user.UserID,
			RequestsToday: user.EffectiveRequestsToday(time.Now()),
			DailyLimit:    user.DailyLimit,
			TotalRequests: user.TotalRequests,
		},
	})
}
