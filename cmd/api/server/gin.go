package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// newHTTPServer wraps the Gin router in an http.Server with bounded timeouts.
func newHTTPServer(router http.Handler, addr string, l *zap.Logger) *http.Server {
	l.Info("Gin REST API configured", zap.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
