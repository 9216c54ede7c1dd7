package handlers

import (
	"net/http"

	"meridian-hq/meridian/pkg/auth"
	"meridian-hq/meridian/pkg/proxy"
)

// keyPrefixLen is how much of a credential /auth/info reveals.
const keyPrefixLen = 15

type keyHint struct {
	KeyPrefix  string `json:"key_prefix"`
	UserID     string `json:"user_id"`
	DailyLimit int    `json:"daily_limit"`
}

type authInfoResponse struct {
	AuthMode        string    `json:"auth_mode"`
	SharedKeyFormat string    `json:"shared_key_format,omitempty"`
	MultiUserKeys   []keyHint `json:"multi_user_keys,omitempty"`
	UsageNote       string    `json:"usage_note"`
}

// AuthInfo serves GET /auth/info: which auth mode the gateway runs in
// and masked hints about accepted credentials. No authentication, so
// only prefixes ever leave the process.
func (h *Handler) AuthInfo(w http.ResponseWriter, r *http.Request) {
	resp := authInfoResponse{
		AuthMode:  h.gate.Mode(),
		UsageNote: "Include 'Authorization: Bearer YOUR_API_KEY' header in requests",
	}

	switch h.gate.Mode() {
	case auth.ModeShared:
		resp.SharedKeyFormat = auth.MaskKey(h.gate.SharedKey(), keyPrefixLen)
	case auth.ModeMultiUser:
		users, err := h.store.List(r.Context())
		if err != nil {
			h.logger.ErrorContext(r.Context(), "listing users for auth info", "error", err)
			_ = proxy.WriteError(w, err)
			return
		}
		hints := make([]keyHint, 0, len(users))
		for _, u := range users {
			hints = append(hints, keyHint{
				KeyPrefix:  auth.MaskKey(u.APIKey, keyPrefixLen),
				UserID:     u.UserID,
				DailyLimit: u.DailyLimit,
			})
		}
		resp.MultiUserKeys = hints
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, resp)
}
