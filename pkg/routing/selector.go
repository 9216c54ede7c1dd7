package routing

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/providers"
	"meridian-hq/meridian/pkg/telemetry/metrics"
)

// Selector picks one upstream provider per request using weighted random
// selection over the live catalogue. It reads provider health straight
// from the registry, so every decision reflects the most recent probe
// cycle without coordination with the monitor.
type Selector struct {
	registry     *providers.Registry
	errorCeiling int64
	metrics      *metrics.Collector

	// rng is not safe for concurrent use, so draws are serialized.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a selector over the registry. The error ceiling
// comes from the health configuration; the collector may be nil.
func NewSelector(registry *providers.Registry, cfg config.HealthConfig, collector *metrics.Collector) *Selector {
	ceiling := cfg.ErrorCeiling
	if ceiling <= 0 {
		ceiling = config.DefaultHealthErrorCeiling
	}

	return &Selector{
		registry:     registry,
		errorCeiling: int64(ceiling),
		metrics:      collector,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Select picks a provider for the requested model.
//
// Candidates are providers that are healthy and below the error ceiling.
// When that set is empty the whole catalogue becomes the candidate set:
// routing onto a degraded backend beats failing closed when every
// backend looks bad at once. Candidates serving the requested model are
// preferred when any exist, otherwise the model preference is ignored.
//
// The pick itself is weighted random. Each candidate enters the pool
// max(1, round(w)) times, where w is the static weight scaled down by
// measured latency and accumulated errors, so a fast clean provider with
// weight 3 outdraws a slow erroring one with the same configuration.
//
// Selection is single-shot: the caller owns any retry decision.
func (s *Selector) Select(model string) (*providers.Provider, error) {
	all := s.registry.Providers()
	if len(all) == 0 {
		return nil, &NoProviderError{Model: model}
	}

	candidates := s.filterAvailable(all)
	if len(candidates) == 0 {
		slog.Warn("no provider passes the availability filter, using full catalogue",
			"model", model,
			"providers", len(all),
		)
		candidates = all
	}

	if matching := filterByModel(candidates, model); len(matching) > 0 {
		candidates = matching
	}

	pool := buildWeightedPool(candidates)

	s.mu.Lock()
	chosen := pool[s.rng.Intn(len(pool))]
	s.mu.Unlock()

	s.metrics.RecordSelection(chosen.Name())
	slog.Debug("provider selected",
		"provider", chosen.Name(),
		"model", model,
		"candidates", len(candidates),
		"pool_size", len(pool),
	)

	return chosen, nil
}

// filterAvailable keeps providers that are healthy and have not piled up
// errors past the ceiling.
func (s *Selector) filterAvailable(all []*providers.Provider) []*providers.Provider {
	available := make([]*providers.Provider, 0, len(all))
	for _, p := range all {
		if p.Status() == providers.StatusHealthy && p.ErrorCount() < s.errorCeiling {
			available = append(available, p)
		}
	}
	return available
}

// filterByModel returns the candidates whose model list contains the
// requested model. An empty result means no candidate serves it; the
// caller then keeps the unfiltered set rather than failing the request.
func filterByModel(candidates []*providers.Provider, model string) []*providers.Provider {
	if model == "" {
		return nil
	}

	matching := make([]*providers.Provider, 0, len(candidates))
	for _, p := range candidates {
		if p.SupportsModel(model) {
			matching = append(matching, p)
		}
	}
	return matching
}

// effectiveWeight scales the static weight by observed behavior. The
// latency factor rewards sub-second backends and only applies once a
// response time has actually been measured; the error factor shrinks
// with each accumulated error. Both floor at 0.1 so no candidate
// disappears from the pool entirely.
func effectiveWeight(p *providers.Provider) float64 {
	w := float64(p.Weight())

	if rt := p.ResponseTime(); rt > 0 {
		w *= math.Max(0.1, 2.0-rt)
	}
	w *= math.Max(0.1, 1.0-0.1*float64(p.ErrorCount()))

	return w
}

// buildWeightedPool repeats each candidate max(1, round(weight)) times.
// Every candidate lands in the pool at least once, so the pool is never
// empty when candidates is not.
func buildWeightedPool(candidates []*providers.Provider) []*providers.Provider {
	pool := make([]*providers.Provider, 0, len(candidates))
	for _, p := range candidates {
		copies := int(math.Round(effectiveWeight(p)))
		if copies < 1 {
			copies = 1
		}
		for i := 0; i < copies; i++ {
			pool = append(pool, p)
		}
	}
	return pool
}
