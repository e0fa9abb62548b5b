// Package server provides the HTTP server of the telemetry shim.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/ingest"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/server/middleware"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/health"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/instrument"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/tracing"
)

// Flusher waits for detached deliveries. export.Client implements it.
type Flusher interface {
	Wait(ctx context.Context) error
}

// Dependencies are the components the server routes to. Only Ingest and
// Health are required.
type Dependencies struct {
	Ingest *ingest.Handler
	Health *health.Checker

	// MetricsHandler serves MetricsPath when both are set.
	MetricsHandler http.Handler
	MetricsPath    string

	// Tracing extracts W3C trace context. Nil disables extraction.
	Tracing *tracing.Extractor

	// APIMetrics receives per-route request metrics for the ingestion
	// routes. Nil disables them.
	APIMetrics instrument.MetricEmitter

	// Flusher is drained during shutdown after the listener closes.
	Flusher Flusher

	Logger *slog.Logger

	Version   string
	Commit    string
	BuildTime string
}

// Server is the shim's HTTP server.
type Server struct {
	config       *config.ServerConfig
	deps         Dependencies
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// NewServer creates a server. It does not listen until Start or Serve.
func NewServer(cfg *config.ServerConfig, deps Dependencies) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config cannot be nil")
	}
	if deps.Ingest == nil || deps.Health == nil {
		return nil, errors.New("server: ingest handler and health checker are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:       cfg,
		deps:         deps,
		logger:       logger.With("component", "server"),
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start listens on the configured address and blocks until ctx is
// cancelled, SIGINT/SIGTERM arrives, Stop is called or the server fails.
// It then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.addr = ln.Addr()
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting telemetry shim", "address", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		s.markStopped()
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
	}
	return s.Shutdown(context.Background())
}

// Stop asks a running Start or Serve to shut down.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown stops accepting requests, waits for in-flight requests, then
// waits for detached deliveries, all within ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running, httpServer := s.isRunning, s.httpServer
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		if s.deps.Flusher != nil {
			if err := s.deps.Flusher.Wait(shutdownCtx); err != nil {
				s.logger.Warn("pending deliveries abandoned at shutdown", "error", err)
				shutdownErr = errors.Join(shutdownErr, fmt.Errorf("flush deliveries: %w", err))
			}
		}

		s.markStopped()
		s.logger.Info("telemetry shim stopped")
	})

	return shutdownErr
}

func (s *Server) markStopped() {
	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
}

// Handler builds the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	var wrap func(route string, next http.Handler) http.Handler
	if s.deps.APIMetrics != nil {
		wrap = func(route string, next http.Handler) http.Handler {
			return instrument.WithAPIMetrics(s.deps.APIMetrics, route, http.MethodPost, next)
		}
	}
	s.deps.Ingest.Register(mux, wrap)
	s.deps.Health.Register(mux, s.deps.Version, s.deps.Commit, s.deps.BuildTime)

	if s.deps.MetricsHandler != nil && s.deps.MetricsPath != "" {
		mux.Handle(s.deps.MetricsPath, s.deps.MetricsHandler)
	}

	return middleware.Chain(mux,
		middleware.Recovery(s.logger),
		middleware.RequestID,
		s.deps.Tracing.Middleware,
		middleware.Logging(s.logger),
		middleware.CORS(s.corsConfig()),
		middleware.BodyLimit(s.config.MaxBodyBytes),
	)
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func (s *Server) corsConfig() *middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.Enabled = s.config.CORS.Enabled
	if len(s.config.CORS.AllowedOrigins) > 0 {
		cors.AllowedOrigins = s.config.CORS.AllowedOrigins
	}
	if s.config.CORS.MaxAge > 0 {
		cors.MaxAge = s.config.CORS.MaxAge
	}
	return cors
}
