package routing

import "meridian-hq/meridian/pkg/providers"

// ModelMap translates caller-facing model names into the id a specific
// provider serves. The table is built from configuration at startup and
// never changes afterward, so lookups need no locking.
type ModelMap struct {
	// aliases: alias name -> provider name -> provider-specific model id.
	aliases map[string]map[string]string
}

// NewModelMap creates a model mapper from the alias table.
func NewModelMap(aliases map[string]map[string]string) *ModelMap {
	if aliases == nil {
		aliases = make(map[string]map[string]string)
	}
	return &ModelMap{aliases: aliases}
}

// Map resolves the requested model for the given provider.
//
// Resolution order: an alias resolves to this provider's entry, or to
// the provider's default model when the alias has no entry for it. A
// non-alias model the provider serves natively passes through unchanged;
// anything else falls back to the provider's default model. A provider
// with no models at all gets the request untouched and the upstream
// decides.
func (m *ModelMap) Map(requested string, p *providers.Provider) string {
	if byProvider, ok := m.aliases[requested]; ok {
		if translated, ok := byProvider[p.Name()]; ok {
			return translated
		}
		return defaultOr(p, requested)
	}

	if p.SupportsModel(requested) {
		return requested
	}
	return defaultOr(p, requested)
}

func defaultOr(p *providers.Provider, requested string) string {
	if def := p.DefaultModel(); def != "" {
		return def
	}
	return requested
}
