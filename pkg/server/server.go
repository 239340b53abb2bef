package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/flowlog/pkg/config"
	"mercator-hq/flowlog/pkg/server/middleware"
	"mercator-hq/flowlog/pkg/telemetry"
	"mercator-hq/flowlog/pkg/telemetry/health"
	"mercator-hq/flowlog/pkg/telemetry/tracing"
	"mercator-hq/flowlog/pkg/tools"
)

// Route patterns.
const (
	RouteManifest = "GET /v1/manifest"
	RouteTools    = "GET /v1/tools"
	RouteInvoke   = "POST /v1/tools/{name}"
)

// Server is the HTTP tool server.
type Server struct {
	config    *config.ServerConfig
	telemetry *config.TelemetryConfig
	toolkit   *tools.Toolkit
	manifest  *tools.Manifest
	tel       *telemetry.Telemetry
	logger    *slog.Logger

	mu           sync.RWMutex
	httpServer   *http.Server
	listener     net.Listener
	isRunning    bool
	shutdownOnce sync.Once
}

// New creates a server for kit. tel supplies logging, metrics, tracing and
// the health checker.
func New(cfg *config.Config, kit *tools.Toolkit, manifest *tools.Manifest, tel *telemetry.Telemetry) *Server {
	return &Server{
		config:    &cfg.Server,
		telemetry: &cfg.Telemetry,
		toolkit:   kit,
		manifest:  manifest,
		tel:       tel,
		logger:    tel.Logger,
	}
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

// Serve serves on ln until ctx is cancelled. With server.tls enabled ln is
// wrapped in a TLS listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	handler, err := s.Handler()
	if err != nil {
		_ = ln.Close()
		return err
	}
	tlsCfg, err := TLSConfig(&s.config.TLS)
	if err != nil {
		_ = ln.Close()
		return err
	}
	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.New("server is already running")
	}
	s.httpServer = &http.Server{
		Handler:        handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.listener = ln
	s.isRunning = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting tool server",
			"address", ln.Addr().String(),
			"tls", tlsCfg != nil,
			"tools", s.toolkit.Names(),
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown drains in-flight requests within server.shutdown_timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		srv := s.httpServer
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("tool server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handler builds the routed handler with the middleware chain applied.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	collector := s.tel.Metrics

	var protect []func(http.Handler) http.Handler
	if s.config.Auth.Enabled {
		protect = append(protect, middleware.APIKeyAuth(s.config.Auth.APIKeys, s.logger))
	}
	route := func(pattern string, h http.Handler, mws ...func(http.Handler) http.Handler) {
		mws = append(append([]func(http.Handler) http.Handler{}, protect...), mws...)
		mux.Handle(pattern, collector.InstrumentHandler(pattern, middleware.Chain(h, mws...)))
	}
	route(RouteManifest, http.HandlerFunc(s.handleManifest))
	route(RouteTools, http.HandlerFunc(s.handleTools))
	route(RouteInvoke, http.HandlerFunc(s.handleInvoke), s.invokeLimits())

	health.Register(mux, &s.telemetry.Health, s.tel.Health, s.tel.VersionInfo())

	if s.telemetry.Metrics.Enabled {
		path := s.telemetry.Metrics.Path
		if path == "" {
			path = config.DefaultPrometheusPath
		}
		mux.Handle("GET "+path, collector.Handler())
	}

	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.Logging(s.logger),
		tracing.HTTPMiddleware(s.tel.Tracer),
		middleware.RequestID,
	}
	if s.config.Gzip {
		gz, err := middleware.Gzip()
		if err != nil {
			return nil, err
		}
		chain = append(chain, gz)
	}

	return middleware.Chain(mux, chain...), nil
}

// invokeLimits builds the rate and concurrency limits for tool calls.
func (s *Server) invokeLimits() func(http.Handler) http.Handler {
	limits := s.config.Limits

	var bucket *middleware.TokenBucket
	if limits.RequestsPerSecond > 0 {
		burst := limits.Burst
		if burst < 1 {
			burst = 1
		}
		bucket = middleware.NewTokenBucket(burst, limits.RequestsPerSecond)
	}
	var limiter *middleware.ConcurrencyLimiter
	if limits.MaxConcurrent > 0 {
		limiter = middleware.NewConcurrencyLimiter(limits.MaxConcurrent)
	}
	return middleware.RateLimit(bucket, limiter)
}
