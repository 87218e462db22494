package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"user-pool-service/internal/config"

	"go.uber.org/zap"
)

// Server owns the HTTP listener of the service.
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	HTTP   *http.Server
}

// New creates a new server instance serving router on the configured port.
func New(cfg *config.Config, l *zap.Logger, router http.Handler) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		HTTP:   newHTTPServer(router, ":"+cfg.App.HTTPPort, l),
	}
}

// Start listens and serves until Shutdown is called.
func (s *Server) Start() error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(context.Background(), "tcp", s.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.Serve(lis)
}

// Serve accepts connections on lis. A graceful shutdown is not an error.
func (s *Server) Serve(lis net.Listener) error {
	s.Logger.Info("HTTP server running", zap.String("address", lis.Addr().String()))

	if err := s.HTTP.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("shutting down HTTP server...")
	return s.HTTP.Shutdown(ctx)
}
