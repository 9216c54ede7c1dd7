package providers

import (
	"meridian-hq/meridian/pkg/config"
)

// Registry holds the fixed provider catalogue. It is built once at
// startup from validated configuration and never mutated afterwards, so
// all methods are safe for concurrent use without locking. Live provider
// state changes through the *Provider values themselves.
type Registry struct {
	providers []*Provider
	byName    map[string]*Provider
}

// NewRegistry builds the catalogue from the configured provider entries,
// preserving configuration order. Order matters: it is the stable
// iteration order for probing, reporting, and selection pools.
func NewRegistry(cfgs []config.ProviderConfig) *Registry {
	providers := make([]*Provider, 0, len(cfgs))
	byName := make(map[string]*Provider, len(cfgs))

	for _, cfg := range cfgs {
		p := NewProvider(cfg)
		providers = append(providers, p)
		byName[p.Name()] = p
	}

	return &Registry{
		providers: providers,
		byName:    byName,
	}
}

// Providers returns the catalogue in configuration order. The returned
// slice is a copy; the *Provider values are shared.
func (r *Registry) Providers() []*Provider {
	providers := make([]*Provider, len(r.providers))
	copy(providers, r.providers)
	return providers
}

// Get returns the provider with the given name.
func (r *Registry) Get(name string) (*Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Len returns the number of configured providers.
func (r *Registry) Len() int {
	return len(r.providers)
}

// Snapshot returns a point-in-time view of every provider's identity and
// live state, in configuration order. Health and stats reporting build
// their payloads from this.
func (r *Registry) Snapshot() []State {
	states := make([]State, len(r.providers))
	for i, p := range r.providers {
		states[i] = p.State()
	}
	return states
}

// HealthyCount returns how many providers are currently healthy.
func (r *Registry) HealthyCount() int {
	count := 0
	for _, p := range r.providers {
		if p.Status() == StatusHealthy {
			count++
		}
	}
	return count
}
