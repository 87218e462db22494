package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"user-pool-service/cmd/api/infrastructure"
	"user-pool-service/internal/adapter/cache"
	"user-pool-service/internal/adapter/db/gormdb"
	"user-pool-service/internal/adapter/gin/handler"
	"user-pool-service/internal/adapter/gin/middleware"
	"user-pool-service/internal/adapter/gin/router"
	"user-pool-service/internal/adapter/repository/cached"
	"user-pool-service/internal/config"
	"user-pool-service/internal/usecase/pool"
	"user-pool-service/internal/usecase/user"
	redisclient "user-pool-service/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	SQLDB       *sql.DB
	RedisClient *redisclient.Client
	UserUC      user.Usecase
	PoolUC      *pool.Usecase
	RateLimiter *middleware.RateLimiter
	Router      *gin.Engine
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	return build(cfg, l, db, sqlDB, rdb), nil
}

// build wires repositories, use cases and the HTTP layer on top of opened
// connections. rdb is nil when Redis is disabled.
func build(cfg *config.Config, l *zap.Logger, db *gorm.DB, sqlDB *sql.DB, rdb *redisclient.Client) *Container {
	var repo user.Repository = gormdb.NewUserRepo(db, l)

	var limiterClient *redis.Client
	if rdb != nil {
		userCache := cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewCachedUserRepository(repo, userCache, l)
		limiterClient = rdb.Client
	}

	userUC := user.New(repo, l)
	poolUC := pool.New(sqlDB)

	rateLimiter := middleware.NewRateLimiter(
		limiterClient,
		middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
			Enabled:           cfg.RateLimit.Enabled,
		},
		l,
	)

	userHandler := handler.NewUserHandler(userUC, l)
	systemHandler := handler.NewSystemHandler(cfg.App.WelcomeMessage, poolUC, sqlDB, cfg.Logger.ServiceName, l)

	return &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		SQLDB:       sqlDB,
		RedisClient: rdb,
		UserUC:      userUC,
		PoolUC:      poolUC,
		RateLimiter: rateLimiter,
		Router:      router.SetupRouter(userHandler, systemHandler, rateLimiter, l),
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
