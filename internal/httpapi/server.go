// Package httpapi implements the External Interfaces of spec.md §6: the
// submit and status endpoints fronting the Pipeline Runtime.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/common"
	"github.com/smaltravel/findajob/internal/pipeline"
)

// Server manages the HTTP surface in front of a pipeline.Runtime.
type Server struct {
	cfg     *common.Config
	runtime *pipeline.Runtime
	logger  arbor.ILogger
	router  *http.ServeMux
	server  *http.Server
}

// New builds an HTTP server bound to runtime, using cfg for its address
// and CORS allowlist.
func New(cfg *common.Config, runtime *pipeline.Runtime, logger arbor.ILogger) *Server {
	s := &Server{cfg: cfg, runtime: runtime, logger: logger}
	s.router = s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start begins serving; it blocks until the server stops or errors.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info().Str("address", addr).Msg("http server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down http server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
