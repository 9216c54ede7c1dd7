package handlers

import (
	"net/http"

	"meridian-hq/meridian/pkg/proxy"
)

type modelPermission struct {
	ID                 string      `json:"id"`
	Object             string      `json:"object"`
	Created            int64       `json:"created"`
	AllowCreateEngine  bool        `json:"allow_create_engine"`
	AllowSampling      bool        `json:"allow_sampling"`
	AllowLogprobs      bool        `json:"allow_logprobs"`
	AllowSearchIndices bool        `json:"allow_search_indices"`
	AllowView          bool        `json:"allow_view"`
	AllowFineTuning    bool        `json:"allow_fine_tuning"`
	Organization       string      `json:"organization"`
	Group              interface{} `json:"group"`
	IsBlocking         bool        `json:"is_blocking"`
}

type modelObject struct {
	ID         string            `json:"id"`
	Object     string            `json:"object"`
	Created    int64             `json:"created"`
	OwnedBy    string            `json:"owned_by"`
	Permission []modelPermission `json:"permission"`
	Root       string            `json:"root"`
	Parent     interface{}       `json:"parent"`
}

type modelList struct {
	Object string        `json:"object"`
	Data   []modelObject `json:"data"`
}

// Models serves GET /v1/models: the curated catalogue from the
// configuration, as OpenAI model objects. The list deliberately hides
// which backends sit behind the gateway.
func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	advertised := h.cfg.AdvertisedModels

	data := make([]modelObject, 0, len(advertised))
	for _, m := range advertised {
		data = append(data, modelObject{
			ID:      m.ID,
			Object:  "model",
			Created: m.Created,
			OwnedBy: m.OwnedBy,
			Permission: []modelPermission{{
				ID:            "modelperm-" + m.ID,
				Object:        "model_permission",
				Created:       m.Created,
				AllowSampling: true,
				AllowLogprobs: true,
				AllowView:     true,
				Organization:  "*",
			}},
			Root: m.ID,
		})
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, modelList{
		Object: "list",
		Data:   data,
	})
}
