package providers

import (
	"math"
	"sync/atomic"
	"time"

	"meridian-hq/meridian/pkg/config"
)

// Status represents a provider's health state.
type Status int32

const (
	// StatusUnknown is the state before the first probe completes.
	StatusUnknown Status = iota

	// StatusHealthy means the last probe succeeded.
	StatusHealthy

	// StatusUnhealthy means the last probe failed.
	StatusUnhealthy
)

// String returns the wire representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Provider is one upstream AI backend. Identity (name, base URL,
// credential, model list, weight) is immutable after construction; the
// live state (status, response time, error count, last check) is updated
// concurrently by the health monitor, the relay, and the forwarder.
//
// Live state fields are individually atomic. Readers may observe a blend
// of two in-flight updates across fields; selection only needs
// per-field freshness, so no multi-field lock is taken.
type Provider struct {
	name    string
	baseURL string
	apiKey  string
	models  []string
	weight  float64

	status       atomic.Int32
	lastCheck    atomic.Int64  // unix nanoseconds, 0 = never checked
	responseTime atomic.Uint64 // float64 bits, seconds
	errorCount   atomic.Int64
}

// NewProvider builds a Provider from its validated configuration entry.
// The initial status is StatusUnknown until the first probe runs.
func NewProvider(cfg config.ProviderConfig) *Provider {
	models := make([]string, len(cfg.Models))
	copy(models, cfg.Models)

	return &Provider{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		models:  models,
		weight:  float64(cfg.Weight),
	}
}

// Name returns the provider's configured name.
func (p *Provider) Name() string {
	return p.name
}

// BaseURL returns the provider's API endpoint base URL.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

// APIKey returns the provider's upstream credential.
func (p *Provider) APIKey() string {
	return p.apiKey
}

// Models returns a copy of the provider's model list.
func (p *Provider) Models() []string {
	models := make([]string, len(p.models))
	copy(models, p.models)
	return models
}

// DefaultModel returns the first model in the provider's list, which is
// the translation target for unmapped aliases and the probe model.
func (p *Provider) DefaultModel() string {
	if len(p.models) == 0 {
		return ""
	}
	return p.models[0]
}

// SupportsModel reports whether the given model id is in the provider's
// model list.
func (p *Provider) SupportsModel(model string) bool {
	for _, m := range p.models {
		if m == model {
			return true
		}
	}
	return false
}

// Weight returns the provider's static selection weight.
func (p *Provider) Weight() float64 {
	return p.weight
}

// Status returns the provider's current health status.
func (p *Provider) Status() Status {
	return Status(p.status.Load())
}

// SetStatus updates the provider's health status.
func (p *Provider) SetStatus(status Status) {
	p.status.Store(int32(status))
}

// LastCheck returns the time of the last probe, or the zero time if no
// probe has completed yet.
func (p *Provider) LastCheck() time.Time {
	nanos := p.lastCheck.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// SetLastCheck stamps the time of the last probe.
func (p *Provider) SetLastCheck(t time.Time) {
	p.lastCheck.Store(t.UnixNano())
}

// ResponseTime returns the provider's current response time in seconds.
// Zero means no exchange has been measured yet.
func (p *Provider) ResponseTime() float64 {
	return math.Float64frombits(p.responseTime.Load())
}

// SetResponseTime overwrites the provider's response time in seconds.
func (p *Provider) SetResponseTime(seconds float64) {
	p.responseTime.Store(math.Float64bits(seconds))
}

// AverageResponseTime folds a new sample into the response time as
// (old+sample)/2, giving the newest exchange half the weight. The blend
// runs in a CAS loop so concurrent samples are never lost.
func (p *Provider) AverageResponseTime(sample float64) float64 {
	for {
		oldBits := p.responseTime.Load()
		blended := (math.Float64frombits(oldBits) + sample) / 2
		if p.responseTime.CompareAndSwap(oldBits, math.Float64bits(blended)) {
			return blended
		}
	}
}

// ErrorCount returns the provider's consecutive error count.
func (p *Provider) ErrorCount() int64 {
	return p.errorCount.Load()
}

// IncrementErrors adds one to the error count and returns the new value.
func (p *Provider) IncrementErrors() int64 {
	return p.errorCount.Add(1)
}

// DecrementErrors subtracts one from the error count, flooring at zero,
// and returns the new value. Successful exchanges call this so a provider
// earns its standing back gradually rather than all at once.
func (p *Provider) DecrementErrors() int64 {
	for {
		old := p.errorCount.Load()
		if old <= 0 {
			return 0
		}
		if p.errorCount.CompareAndSwap(old, old-1) {
			return old - 1
		}
	}
}

// ResetErrors clears the error count after a successful probe.
func (p *Provider) ResetErrors() {
	p.errorCount.Store(0)
}

// State is a point-in-time copy of a provider's identity and live state,
// used for health and stats reporting.
type State struct {
	Name         string
	Status       Status
	Weight       float64
	ResponseTime float64
	ErrorCount   int64
	LastCheck    time.Time
	Models       []string
}

// State captures the provider's current state in one snapshot. The fields
// are read independently, so a snapshot taken during an update may mix
// old and new values of different fields.
func (p *Provider) State() State {
	return State{
		Name:         p.name,
		Status:       p.Status(),
		Weight:       p.weight,
		ResponseTime: p.ResponseTime(),
		ErrorCount:   p.ErrorCount(),
		LastCheck:    p.LastCheck(),
		Models:       p.Models(),
	}
}
