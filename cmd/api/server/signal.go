package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithSignal returns a context canceled on SIGINT or SIGTERM. Calling stop
// releases the signal registration and cancels the context.
func WithSignal(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
