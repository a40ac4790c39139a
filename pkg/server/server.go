package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"aurora-ml/relay/pkg/config"
	"aurora-ml/relay/pkg/failover"
	"aurora-ml/relay/pkg/providers"
	"aurora-ml/relay/pkg/server/middleware"
	"aurora-ml/relay/pkg/telemetry/health"
	"aurora-ml/relay/pkg/usage"
)

// Orchestrator is the failover surface the server drives. It is satisfied
// by *failover.Orchestrator.
type Orchestrator interface {
	Generate(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResponse, error)
	Chain() []providers.Kind
	AvailableProviders() []providers.Kind
	Health() []failover.HealthRecord
	HealthFor(kind providers.Kind) (failover.HealthRecord, bool)
	CircuitMetrics() map[providers.Kind]failover.BreakerSnapshot
	SwitchPrimary(kind providers.Kind) bool
	ResetBreaker(kind providers.Kind) bool
	ForceRecovery(ctx context.Context, kind providers.Kind) bool
}

// Options carries the optional collaborators a server can expose.
type Options struct {
	// UsageStorage backs GET /v1/usage/summary and the usage_storage
	// readiness check. Nil disables both.
	UsageStorage usage.Storage

	// Metrics is the Prometheus exposition handler. Nil disables the
	// metrics route.
	Metrics http.Handler

	// MetricsPath overrides the default /metrics route.
	MetricsPath string

	// Logger receives lifecycle and access logs. Nil uses slog.Default.
	Logger *slog.Logger
}

// Server is the relay's HTTP surface.
type Server struct {
	config       config.ServerConfig
	orchestrator Orchestrator
	storage      usage.Storage
	metrics      http.Handler
	metricsPath  string
	checker      *health.Checker
	logger       *slog.Logger

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	running      bool
}

// New creates a server around the orchestrator. The server is inert until
// Start is called.
func New(cfg config.ServerConfig, orch Orchestrator, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	s := &Server{
		config:       cfg,
		orchestrator: orch,
		storage:      opts.UsageStorage,
		metrics:      opts.Metrics,
		metricsPath:  metricsPath,
		checker:      health.New(0),
		logger:       logger.With("component", "server"),
		shutdownChan: make(chan struct{}),
	}
	s.registerHealthChecks()
	return s
}

// registerHealthChecks wires the readiness probes. Readiness requires at
// least one provider admitting requests and, when usage tracking is on, a
// responsive storage backend.
func (s *Server) registerHealthChecks() {
	s.checker.RegisterCheck("providers", func(ctx context.Context) error {
		if len(s.orchestrator.AvailableProviders()) == 0 {
			return errors.New("no providers admitting requests")
		}
		return nil
	})

	if s.storage != nil {
		s.checker.RegisterCheck("usage_storage", func(ctx context.Context) error {
			_, err := s.storage.Query(ctx, &usage.Query{Limit: 1})
			return err
		})
	}
}

// Start runs the HTTP server and blocks until the context is canceled,
// Shutdown is called, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	select {
	case <-s.shutdownChan:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return errors.New("server is already shut down")
	default:
	}

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, shutting down")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		return nil
	}
}

// Shutdown drains in-flight requests and stops the server. It is safe to
// call more than once and from any goroutine; only the first call does
// the work.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		defer close(s.shutdownChan)

		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if !running || s.httpServer == nil {
			return
		}

		s.logger.Info("shutting down", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown did not drain cleanly", "error", err)
			shutdownErr = fmt.Errorf("server shutdown: %w", err)
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether Start has been called and Shutdown has not
// completed.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Handler returns the fully assembled route table with the middleware
// chain applied. Exposed for tests and for embedding the relay into a
// larger mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", s.checker.LivenessHandler())
	mux.Handle("GET /readyz", s.checker.ReadinessHandler())

	mux.HandleFunc("POST /v1/generate", s.handleGenerate)
	mux.HandleFunc("GET /v1/health", s.handleHealthRollup)
	mux.HandleFunc("GET /v1/health/{provider}", s.handleProviderHealth)
	mux.HandleFunc("GET /v1/circuits", s.handleCircuits)
	mux.HandleFunc("POST /v1/admin/primary", s.handleSwitchPrimary)
	mux.HandleFunc("POST /v1/admin/recover", s.handleForceRecovery)
	mux.HandleFunc("POST /v1/admin/reset", s.handleResetBreaker)
	mux.HandleFunc("GET /v1/usage/summary", s.handleUsageSummary)

	if s.metrics != nil {
		mux.Handle("GET "+s.metricsPath, s.metrics)
	}

	var handler http.Handler = mux
	handler = middleware.Timeout(s.config.RequestTimeout)(handler)
	handler = middleware.Recovery(s.logger)(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.RequestID(handler)
	return handler
}
