package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds Redis connection settings. Zero timeouts fall back to go-redis defaults.
type Config struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int

	DialTimeout time.Duration
	ReadTimeout time.Duration // also used for writes
	PoolTimeout time.Duration
}

func (c Config) addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.addr(),
		Password:     c.Password,
		DB:           c.DB,
		MaxRetries:   c.MaxRetries,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConn,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.ReadTimeout,
		PoolTimeout:  c.PoolTimeout,
	}
}

// Client is the shared go-redis client of the list cache and the rate limiter.
type Client struct {
	*redis.Client
	log *zap.Logger
}

// NewClient opens a pool to cfg and fails unless Redis answers a PING within the dial timeout.
func NewClient(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	rdb := redis.NewClient(cfg.options())

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.addr(), err)
	}

	log.Info("Redis connected",
		zap.String("addr", cfg.addr()),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Duration("read_timeout", cfg.ReadTimeout),
	)

	return &Client{Client: rdb, log: log}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	c.log.Info("closing Redis connection")
	return c.Client.Close()
}
