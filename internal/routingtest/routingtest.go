// Package routingtest builds provider registries with fixed live state
// for tests that exercise selection and health behavior.
package routingtest

import (
	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/providers"
)

// Spec describes one provider's configuration and starting live state.
type Spec struct {
	Name       string
	Weight     int
	Models     []string
	Status     providers.Status
	ErrorCount int

	// BaseURL and APIKey are filled with placeholders when empty.
	BaseURL string
	APIKey  string
}

// NewRegistry builds a registry whose providers carry the given state.
func NewRegistry(specs ...Spec) *providers.Registry {
	cfgs := make([]config.ProviderConfig, 0, len(specs))
	for _, s := range specs {
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = "http://127.0.0.1:11434/v1"
		}
		apiKey := s.APIKey
		if apiKey == "" {
			apiKey = "sk-" + s.Name
		}
		cfgs = append(cfgs, config.ProviderConfig{
			Name:    s.Name,
			BaseURL: baseURL,
			APIKey:  apiKey,
			Models:  s.Models,
			Weight:  s.Weight,
		})
	}

	registry := providers.NewRegistry(cfgs)
	for _, s := range specs {
		p, ok := registry.Get(s.Name)
		if !ok {
			continue
		}
		p.SetStatus(s.Status)
		for i := 0; i < s.ErrorCount; i++ {
			p.IncrementErrors()
		}
	}
	return registry
}
