package inspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Server runs the inspection API on a port.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a server for handler on port. It does not listen yet.
func NewServer(port int, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start listens in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("🩺 Inspection server starting", "address", fmt.Sprintf("http://localhost%s/health", s.httpServer.Addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Inspection server failed unexpectedly", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting at most ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	s.logger.Info("🩺 Shutting down inspection server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Inspection server shutdown failed", "error", err)
		return err
	}
	s.logger.Debug("Inspection server shut down gracefully.")
	return nil
}
