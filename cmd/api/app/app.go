package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"user-pool-service/cmd/api/di"
	"user-pool-service/cmd/api/server"
	"user-pool-service/internal/config"
	"user-pool-service/pkg/logger"

	"go.uber.org/zap"
)

// App represents the application
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Server    *server.Server
	Container *di.Container
}

// New creates a new application instance. ctx bounds the startup checks
// against external dependencies.
func New(ctx context.Context) (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	container, err := di.NewContainer(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	return &App{
		Config:    cfg,
		Logger:    l,
		Server:    server.New(cfg, l, container.Router),
		Container: container,
	}, nil
}

// Run starts the application and blocks until ctx is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			a.Logger.Error("panic recovered in application",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	a.Logger.Info("starting application",
		zap.String("service", a.Config.Logger.ServiceName),
		zap.String("version", a.Config.Logger.ServiceVersion),
		zap.String("environment", a.Config.App.Env),
		zap.String("http_port", a.Config.App.HTTPPort),
	)

	errChan := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("server panic: %v", r)
			}
		}()

		if err := a.Server.Start(); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutting down application...")
		return a.shutdown()
	case err := <-errChan:
		if shutdownErr := a.shutdown(); shutdownErr != nil {
			return errors.Join(err, shutdownErr)
		}
		return err
	}
}

// shutdown drains the HTTP server, then releases the store and cache.
func (a *App) shutdown() error {
	timeout := time.Duration(a.Config.App.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.Logger.Info("starting graceful shutdown",
		zap.Int("timeout_seconds", a.Config.App.ShutdownTimeoutSeconds),
	)

	var errs []error

	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("failed to shutdown HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
	}

	if a.Container != nil {
		a.Logger.Info("closing container resources...")
		if err := a.Container.Close(); err != nil {
			a.Logger.Error("failed to close container", zap.Error(err))
			errs = append(errs, fmt.Errorf("container close: %w", err))
		}
	}

	a.Logger.Info("application shutdown complete")

	// stdout and stderr cannot be synced on most platforms
	if err := a.Logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		errs = append(errs, fmt.Errorf("logger sync: %w", err))
	}

	return errors.Join(errs...)
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

// initLogger initializes the application logger
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewWithConfig(logger.Config{
		Level:            cfg.Logger.Level,
		Format:           cfg.Logger.Format,
		OutputPath:       cfg.Logger.OutputPath,
		SlowQuerySeconds: cfg.Logger.SlowQuerySeconds,
		EnableSampling:   cfg.Logger.EnableSampling,
		ServiceName:      cfg.Logger.ServiceName,
		ServiceVersion:   cfg.Logger.ServiceVersion,
		Environment:      cfg.App.Env,
	})
}

// getConfigPath returns the directory holding app.env
func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}
