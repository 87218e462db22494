package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-pool-service/internal/domain/user"
)

// ListKey is the Redis key holding the cached, id-descending user list.
const ListKey = "users:list"

// UserCache defines the interface for caching the user list.
type UserCache interface {
	// GetList returns the cached list.
	// Returns nil, nil on a cache miss.
	GetList(ctx context.Context) ([]domain.User, error)

	// SetList stores the list with the configured TTL.
	SetList(ctx context.Context, users []domain.User) error

	// Invalidate drops the cached list.
	Invalidate(ctx context.Context) error
}

// RedisUserCache implements UserCache using Redis as the backing store.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// GetList retrieves the user list from Redis.
func (c *RedisUserCache) GetList(ctx context.Context) ([]domain.User, error) {
	data, err := c.client.Get(ctx, ListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Cache miss - not an error
		c.log.Debug("user list cache miss")
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get user list from cache", zap.Error(err))
		return nil, err
	}

	users := []domain.User{}
	if err := json.Unmarshal(data, &users); err != nil {
		c.log.Error("failed to unmarshal cached user list", zap.Error(err))
		return nil, err
	}

	c.log.Debug("user list cache hit", zap.Int("count", len(users)))
	return users, nil
}

// SetList stores the user list in Redis with TTL.
func (c *RedisUserCache) SetList(ctx context.Context, users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}

	data, err := json.Marshal(users)
	if err != nil {
		c.log.Error("failed to marshal user list for cache", zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, ListKey, data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set user list cache", zap.Error(err))
		return err
	}

	c.log.Debug("cached user list", zap.Int("count", len(users)), zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate removes the cached user list from Redis.
func (c *RedisUserCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, ListKey).Err(); err != nil {
		c.log.Error("failed to invalidate user list cache", zap.Error(err))
		return err
	}

	c.log.Debug("invalidated user list cache")
	return nil
}
