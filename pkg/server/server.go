package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/dsm/pkg/auth"
	"mercator-hq/dsm/pkg/config"
	"mercator-hq/dsm/pkg/engine"
	"mercator-hq/dsm/pkg/modelstore"
	"mercator-hq/dsm/pkg/runlog"
	"mercator-hq/dsm/pkg/telemetry/health"
	"mercator-hq/dsm/pkg/telemetry/metrics"
	"mercator-hq/dsm/pkg/telemetry/tracing"
)

// Option configures a Server.
type Option func(*Server)

// WithRunLog records every evaluation in store and serves GET /v1/runs.
func WithRunLog(store runlog.Store) Option {
	return func(s *Server) { s.runs = store }
}

// WithMetrics serves the collector's registry at path and records HTTP
// request metrics.
func WithMetrics(collector *metrics.Collector, path string) Option {
	return func(s *Server) {
		s.metrics = collector
		s.metricsPath = path
	}
}

// WithHealth serves the checker's liveness and readiness probes.
func WithHealth(checker *health.Checker, livenessPath, readinessPath string) Option {
	return func(s *Server) {
		s.health = checker
		s.livenessPath = livenessPath
		s.readinessPath = readinessPath
	}
}

// WithAuth requires an API key from validator on every /v1 route. The key
// is read from header, with scheme stripped when set.
func WithAuth(validator *auth.Validator, header, scheme string) Option {
	return func(s *Server) {
		s.auth = validator
		s.authHeader = header
		s.authScheme = scheme
	}
}

// WithDefaultRoles sets the roles used when a request names none.
func WithDefaultRoles(roles []string) Option {
	return func(s *Server) { s.defaultRoles = append([]string(nil), roles...) }
}

// Server is the dsm HTTP evaluation API.
type Server struct {
	config *config.ServerConfig
	engine *engine.Engine
	models *modelstore.Store
	logger *slog.Logger

	runs          runlog.Store
	metrics       *metrics.Collector
	metricsPath   string
	health        *health.Checker
	livenessPath  string
	readinessPath string
	defaultRoles  []string
	auth          *auth.Validator
	authHeader    string
	authScheme    string

	mu         sync.Mutex
	httpServer *http.Server
	addr       net.Addr
}

// New creates a server evaluating the store's models with eng.
func New(cfg *config.ServerConfig, eng *engine.Engine, models *modelstore.Store, logger *slog.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = &config.ServerConfig{
			ListenAddress:   config.DefaultListenAddress,
			ReadTimeout:     config.DefaultReadTimeout,
			WriteTimeout:    config.DefaultWriteTimeout,
			IdleTimeout:     config.DefaultIdleTimeout,
			ShutdownTimeout: config.DefaultShutdownTimeout,
			MaxBodyBytes:    config.DefaultMaxBodyBytes,
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		engine: eng,
		models: models,
		logger: logger.With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /v1/models/{name}/{mode}", s.authMiddleware(http.HandlerFunc(s.handleEvaluate)))
	mux.Handle("GET /v1/models", s.authMiddleware(http.HandlerFunc(s.handleListModels)))
	mux.Handle("GET /v1/models/{name}", s.authMiddleware(http.HandlerFunc(s.handleGetModel)))
	if s.runs != nil {
		mux.Handle("GET /v1/runs", s.authMiddleware(http.HandlerFunc(s.handleListRuns)))
	}
	if s.health != nil {
		s.health.Mount(mux, s.livenessPath, s.readinessPath)
	}
	if s.metrics != nil && s.metricsPath != "" {
		mux.Handle("GET "+s.metricsPath, s.metrics.Handler())
	}

	// The metrics middleware wraps the mux directly so it sees the
	// matched route pattern.
	var handler http.Handler = mux
	handler = s.metricsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server is already running")
	}
	s.httpServer = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: s.config.ReadTimeout,
		// Evaluations are bounded by the engine timeout; the write timeout
		// covers encoding the response.
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.addr = ln.Addr()
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting evaluation server", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("evaluation server stopped")
	return <-errCh
}

// Addr returns the listening address once serving.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
