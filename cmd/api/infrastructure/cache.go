package infrastructure

import (
	"context"
	"fmt"
	"time"

	"user-pool-service/internal/config"
	redisclient "user-pool-service/pkg/redis"

	"go.uber.org/zap"
)

// NewRedisClient connects to Redis. It returns nil when Redis is disabled.
func NewRedisClient(ctx context.Context, cfg *config.Config, l *zap.Logger) (*redisclient.Client, error) {
	if !cfg.Redis.Enabled {
		l.Info("Redis disabled, serving reads from the database only")
		return nil, nil
	}

	rdb, err := redisclient.NewClient(ctx, redisclient.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		MinIdleConn: cfg.Redis.MinIdleConn,
		DialTimeout: time.Duration(cfg.Redis.DialTimeoutSeconds) * time.Second,
		ReadTimeout: time.Duration(cfg.Redis.ReadTimeoutSeconds) * time.Second,
		PoolTimeout: time.Duration(cfg.Redis.PoolTimeoutSeconds) * time.Second,
	}, l)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}
