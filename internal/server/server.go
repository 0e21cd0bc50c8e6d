// Package server exposes the review-forge HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/review-forge/internal/config"
)

const defaultShutdownTimeout = 30 * time.Second

// Server serves the review API and drains in-flight requests on Stop.
type Server struct {
	http            *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration

	// ready is closed once the listener is bound.
	ready    chan struct{}
	listener net.Listener
}

// NewServer builds the review API server. Request contexts derive from ctx,
// so cancelling it reaches every handler.
func NewServer(ctx context.Context, cfg *config.Config, h Handlers, logger *slog.Logger) *Server {
	shutdown := cfg.Server.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = defaultShutdownTimeout
	}

	return &Server{
		http: &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           NewRouter(cfg, h, logger),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       time.Minute,
			// No WriteTimeout: /ensure holds the connection for a whole run.
			IdleTimeout: 120 * time.Second,
			BaseContext: func(_ net.Listener) context.Context { return ctx },
			ErrorLog:    slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger:          logger.With("component", "review-api"),
		shutdownTimeout: shutdown,
		ready:           make(chan struct{}),
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Addr blocks until the listener is bound and returns its address.
func (s *Server) Addr() string {
	<-s.ready
	return s.listener.Addr().String()
}

// Start binds the configured port and serves until Stop is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	s.listener = ln
	close(s.ready)

	s.logger.Info("review API listening", "address", ln.Addr().String())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("review API stopped: %w", err)
	}
	return nil
}

// Stop waits up to the shutdown timeout for open requests, including
// long-running /ensure calls, before closing their connections.
func (s *Server) Stop() error {
	s.logger.Info("draining review API", "timeout", s.shutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("drain review API: %w", err)
	}
	s.logger.Info("review API stopped")
	return nil
}
