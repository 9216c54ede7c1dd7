package handlers

import (
	"log/slog"

	"meridian-hq/meridian/pkg/auth"
	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/providers"
	"meridian-hq/meridian/pkg/relay"
	"meridian-hq/meridian/pkg/routing"
	"meridian-hq/meridian/pkg/telemetry/metrics"
	"meridian-hq/meridian/pkg/usage"
)

// Response headers identifying how a request was served.
const (
	ProviderHeader  = "X-Gateway-Provider"
	TransportHeader = "X-Gateway-Transport"
)

// Deps carries everything the handlers need. Recorder and Metrics may
// be nil; both are nil-safe.
type Deps struct {
	Config    *config.Config
	Registry  *providers.Registry
	Selector  *routing.Selector
	ModelMap  *routing.ModelMap
	Stats     *routing.Stats
	Forwarder *relay.Forwarder
	Gate      *auth.Gate
	Store     auth.Store
	Recorder  *usage.Recorder
	Metrics   *metrics.Collector
}

// Handler serves the gateway's HTTP endpoints.
type Handler struct {
	cfg       *config.Config
	registry  *providers.Registry
	selector  *routing.Selector
	modelMap  *routing.ModelMap
	stats     *routing.Stats
	forwarder *relay.Forwarder
	gate      *auth.Gate
	store     auth.Store
	recorder  *usage.Recorder
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// New creates the endpoint handler set.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:       deps.Config,
		registry:  deps.Registry,
		selector:  deps.Selector,
		modelMap:  deps.ModelMap,
		stats:     deps.Stats,
		forwarder: deps.Forwarder,
		gate:      deps.Gate,
		store:     deps.Store,
		recorder:  deps.Recorder,
		metrics:   deps.Metrics,
		logger:    slog.Default().With("component", "proxy.handlers"),
	}
}
