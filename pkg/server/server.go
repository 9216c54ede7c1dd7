package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/providers"
	"meridian-hq/meridian/pkg/proxy/handlers"
	"meridian-hq/meridian/pkg/proxy/middleware"
	"meridian-hq/meridian/pkg/telemetry/metrics"
)

// Server is the gateway's HTTP server.
type Server struct {
	cfg        *config.Config
	handler    *handlers.Handler
	registry   *providers.Registry
	metrics    *metrics.Collector
	httpServer *http.Server
	errChan    chan error

	mu      sync.Mutex
	running bool
	addr    string
}

// New creates a server over the prepared handler set. The collector may
// be nil; the metrics route is then not registered.
func New(cfg *config.Config, h *handlers.Handler, registry *providers.Registry, collector *metrics.Collector) *Server {
	return &Server{
		cfg:      cfg,
		handler:  h,
		registry: registry,
		metrics:  collector,
		errChan:  make(chan error, 1),
	}
}

// Start binds the listen address and serves in the background. A bind
// failure is returned immediately; later serve failures arrive on
// Errors().
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	// No write timeout: chat completion streams legitimately run for
	// minutes. The relay layer owns its own watchdogs.
	s.httpServer = &http.Server{
		Handler:        s.routes(),
		ReadTimeout:    s.cfg.Gateway.ReadTimeout,
		IdleTimeout:    s.cfg.Gateway.IdleTimeout,
		MaxHeaderBytes: s.cfg.Gateway.MaxHeaderBytes,
	}

	listener, err := net.Listen("tcp", s.cfg.Gateway.ListenAddress)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.cfg.Gateway.ListenAddress, err)
	}
	s.running = true
	s.addr = listener.Addr().String()

	go func() {
		slog.Info("gateway listening", "address", s.cfg.Gateway.ListenAddress)
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address, useful when the configured
// address requested an ephemeral port.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Errors delivers fatal serve failures.
func (s *Server) Errors() <-chan error {
	return s.errChan
}

// Shutdown drains in-flight requests and stops the server. Bounded by
// the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	slog.Info("gateway shutting down", "timeout", s.cfg.Gateway.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Gateway.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("gateway stopped")
	return nil
}

// Healthy reports whether at least one provider is currently healthy.
func (s *Server) Healthy() bool {
	return s.registry.HealthyCount() > 0
}

// routes builds the route table and wraps it in the middleware chain.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/chat/completions", post(s.handler.ChatCompletions))
	mux.HandleFunc("/v1/chat/completions/direct", post(s.handler.ChatCompletionsDirect))
	mux.HandleFunc("/health", get(s.handler.Health))
	mux.HandleFunc("/stats", get(s.handler.Stats))
	mux.HandleFunc("/v1/models", get(s.handler.Models))
	mux.HandleFunc("/auth/info", get(s.handler.AuthInfo))

	if s.metrics != nil {
		path := s.cfg.Telemetry.Metrics.Path
		if path == "" {
			path = config.DefaultMetricsPath
		}
		mux.Handle(path, s.metrics.Handler())
	}

	// RequestID sits outside Logging so both log lines carry the id.
	var handler http.Handler = mux
	handler = middleware.CORS(&s.cfg.Gateway.CORS)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)
	return handler
}

func post(h http.HandlerFunc) http.HandlerFunc {
	return allow(h, http.MethodPost)
}

func get(h http.HandlerFunc) http.HandlerFunc {
	return allow(h, http.MethodGet)
}

// allow rejects every method but the named one. CORS preflight never
// reaches here; the middleware answers OPTIONS itself.
func allow(h http.HandlerFunc, method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}
