package cached

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-pool-service/internal/adapter/cache"
	domain "user-pool-service/internal/domain/user"
	"user-pool-service/internal/usecase/user"
)

const listFlightKey = "users:list"

// CachedUserRepository implements user.Repository with a read-through cache of the user list.
// It wraps a persistent repository (DB) and a cache implementation. Cache
// failures never fail a request; a circuit breaker stops calling the cache
// after repeated failures.
type CachedUserRepository struct {
	dbRepo  user.Repository
	cache   cache.UserCache
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
	group   singleflight.Group

	// generation is bumped by every successful Create. A list read from the
	// DB under an older generation must not stay in the cache.
	generation atomic.Uint64
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, c cache.UserCache, log *zap.Logger) *CachedUserRepository {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "user-cache",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("cache circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &CachedUserRepository{
		dbRepo:  dbRepo,
		cache:   c,
		breaker: breaker,
		log:     log,
	}
}

// List returns the cached list, loading it from the DB repository on a miss.
func (r *CachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	if users, ok := r.cachedList(ctx); ok {
		return users, nil
	}

	// Cache miss - use single-flight to prevent stampede
	result, err, _ := r.group.Do(listFlightKey, func() (any, error) {
		// Double-check cache in case another request populated it while we were waiting
		if users, ok := r.cachedList(ctx); ok {
			return users, nil
		}

		gen := r.generation.Load()
		users, err := r.dbRepo.List(ctx)
		if err != nil {
			return nil, err
		}

		r.storeList(ctx, gen, users)
		return users, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]domain.User), nil
}

// ExistsByEmail delegates to the DB repository; the uniqueness check must see committed rows.
func (r *CachedUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.dbRepo.ExistsByEmail(ctx, email)
}

// Create inserts through the DB repository and invalidates the cached list.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) error {
	if err := r.dbRepo.Create(ctx, u); err != nil {
		return err
	}

	r.generation.Add(1)
	if err := r.invalidate(ctx); err != nil {
		r.log.Warn("failed to invalidate user list cache after create", zap.Int64("id", u.ID), zap.Error(err))
	}

	return nil
}

// storeList caches users read under generation gen. A Create that lands
// between the DB read and the write removes the entry again.
func (r *CachedUserRepository) storeList(ctx context.Context, gen uint64, users []domain.User) {
	if r.generation.Load() != gen {
		r.log.Debug("user list changed during load, not caching")
		return
	}

	if _, err := r.breaker.Execute(func() (any, error) {
		return nil, r.cache.SetList(ctx, users)
	}); err != nil {
		r.log.Warn("failed to cache user list", zap.Error(err))
		return
	}

	if r.generation.Load() != gen {
		if err := r.invalidate(ctx); err != nil {
			r.log.Warn("failed to drop stale user list", zap.Error(err))
		}
	}
}

func (r *CachedUserRepository) invalidate(ctx context.Context) error {
	_, err := r.breaker.Execute(func() (any, error) {
		return nil, r.cache.Invalidate(ctx)
	})
	return err
}

func (r *CachedUserRepository) cachedList(ctx context.Context) ([]domain.User, bool) {
	result, err := r.breaker.Execute(func() (any, error) {
		return r.cache.GetList(ctx)
	})
	if err != nil {
		r.log.Warn("cache get error, falling back to database", zap.Error(err))
		return nil, false
	}

	users, _ := result.([]domain.User)
	if users == nil {
		return nil, false
	}

	r.log.Debug("user list retrieved from cache", zap.Int("count", len(users)))
	return users, true
}
