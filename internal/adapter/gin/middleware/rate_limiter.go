package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstCapacity     int
	Enabled           bool
}

// tokenBucketScript implements the token bucket atomically in Redis.
// Data structure: {last_refill, tokens}
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])         -- tokens per second
	local capacity = tonumber(ARGV[2])     -- max tokens in bucket
	local now = tonumber(ARGV[3])          -- current timestamp (seconds, fractional)
	local requested = tonumber(ARGV[4])    -- tokens requested (always 1)

	local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
	local last_refill = tonumber(bucket[1]) or now
	local tokens = tonumber(bucket[2]) or capacity

	local elapsed = math.max(0, now - last_refill)
	tokens = math.min(capacity, tokens + elapsed * rate)

	local allowed = 0
	if tokens >= requested then
		tokens = tokens - requested
		allowed = 1
	end

	redis.call('HMSET', key, 'last_refill', now, 'tokens', tokens)
	redis.call('EXPIRE', key, 60)
	return allowed
`)

// RateLimiter limits requests per client IP, method and path.
// With a Redis client the buckets are shared by every instance; without one
// each process keeps its own in-memory buckets.
type RateLimiter struct {
	client *redis.Client
	config RateLimiterConfig
	log    *zap.Logger

	mu        sync.Mutex
	local     map[string]*localBucket
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter. client may be nil.
func NewRateLimiter(client *redis.Client, config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client:  client,
		config:  config,
		log:     log,
		local:   make(map[string]*localBucket),
		idleTTL: 15 * time.Minute,
		now:     time.Now,
	}
}

// Handler returns a Gin middleware enforcing the limit.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || !rl.config.Enabled {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:tb:%s:%s:%s", c.Request.Method, c.FullPath(), c.ClientIP())

		if !rl.allow(c.Request.Context(), key) {
			rl.log.Warn("rate limit exceeded",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate_limit_exceeded",
				"message": fmt.Sprintf("Rate limit exceeded: %.2f requests/second (burst capacity: %d)",
					rl.config.RequestsPerSecond, rl.config.BurstCapacity),
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	if rl.client == nil {
		return rl.allowLocal(key)
	}

	now, err := rl.client.Time(ctx).Result()
	if err != nil {
		rl.log.Warn("rate limiter redis error, allowing request", zap.Error(err))
		return true
	}

	allowed, err := tokenBucketScript.Run(ctx, rl.client, []string{key},
		rl.config.RequestsPerSecond,
		rl.config.BurstCapacity,
		float64(now.UnixMicro())/1e6,
		1,
	).Int64()
	if err != nil {
		// fail open
		rl.log.Warn("rate limiter redis error, allowing request", zap.Error(err))
		return true
	}

	return allowed == 1
}

func (rl *RateLimiter) allowLocal(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.idleTTL {
		for k, b := range rl.local {
			if now.Sub(b.lastSeen) > rl.idleTTL {
				delete(rl.local, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.local[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstCapacity)}
		rl.local[key] = b
	}
	b.lastSeen = now

	return b.lim.AllowN(now, 1)
}
