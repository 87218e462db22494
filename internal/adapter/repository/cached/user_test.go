package cached

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-pool-service/internal/adapter/cache"
	domain "user-pool-service/internal/domain/user"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func setupCachedRepo(t *testing.T) (*CachedUserRepository, *MockRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	logger := zaptest.NewLogger(t)
	dbRepo := new(MockRepository)
	repo := NewCachedUserRepository(dbRepo, cache.NewRedisUserCache(client, time.Minute, logger), logger)
	return repo, dbRepo, mr
}

var stored = []domain.User{
	{ID: 2, Name: "Bob", Email: "b@x.com"},
	{ID: 1, Name: "Alice", Email: "a@x.com"},
}

func TestCachedUserRepository_List_ReadThrough(t *testing.T) {
	repo, dbRepo, mr := setupCachedRepo(t)
	ctx := context.Background()

	dbRepo.On("List", ctx).Return(stored, nil).Once()

	first, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, first)
	assert.True(t, mr.Exists(cache.ListKey))

	second, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, second)

	dbRepo.AssertNumberOfCalls(t, "List", 1)
}

func TestCachedUserRepository_List_EmptyIsCached(t *testing.T) {
	repo, dbRepo, _ := setupCachedRepo(t)
	ctx := context.Background()

	dbRepo.On("List", ctx).Return([]domain.User{}, nil).Once()

	for i := 0; i < 2; i++ {
		users, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	}
	dbRepo.AssertNumberOfCalls(t, "List", 1)
}

func TestCachedUserRepository_List_DBError(t *testing.T) {
	repo, dbRepo, mr := setupCachedRepo(t)
	ctx := context.Background()

	dbRepo.On("List", ctx).Return(nil, errors.New("connection refused"))

	users, err := repo.List(ctx)
	assert.Error(t, err)
	assert.Nil(t, users)
	assert.False(t, mr.Exists(cache.ListKey))
}

func TestCachedUserRepository_List_SingleFlight(t *testing.T) {
	repo, dbRepo, _ := setupCachedRepo(t)
	ctx := context.Background()

	release := make(chan time.Time)
	dbRepo.On("List", ctx).WaitUntil(release).Return(stored, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			users, err := repo.List(ctx)
			assert.NoError(t, err)
			assert.Len(t, users, 2)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	// callers that arrived after the flight finished are served from the cache
	dbRepo.AssertNumberOfCalls(t, "List", 1)
}

func TestCachedUserRepository_Create_Invalidates(t *testing.T) {
	repo, dbRepo, mr := setupCachedRepo(t)
	ctx := context.Background()

	dbRepo.On("List", ctx).Return(stored, nil).Once()
	_, err := repo.List(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.ListKey))

	u := &domain.User{Name: "Carol", Email: "c@x.com"}
	dbRepo.On("Create", ctx, u).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.User).ID = 3
	}).Return(nil)

	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, int64(3), u.ID)
	assert.False(t, mr.Exists(cache.ListKey))
}

func TestCachedUserRepository_Create_ErrorKeepsCache(t *testing.T) {
	repo, dbRepo, mr := setupCachedRepo(t)
	ctx := context.Background()

	dbRepo.On("List", ctx).Return(stored, nil).Once()
	_, err := repo.List(ctx)
	require.NoError(t, err)

	dbRepo.On("Create", ctx, mock.Anything).Return(domain.ErrDuplicateEmail)

	err = repo.Create(ctx, &domain.User{Name: "Alice", Email: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.True(t, mr.Exists(cache.ListKey))
}

func TestCachedUserRepository_ExistsByEmail_BypassesCache(t *testing.T) {
	repo, dbRepo, _ := setupCachedRepo(t)
	ctx := context.Background()

	dbRepo.On("ExistsByEmail", ctx, "a@x.com").Return(true, nil)

	exists, err := repo.ExistsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCachedUserRepository_RedisDown_FallsBackToDB(t *testing.T) {
	repo, dbRepo, mr := setupCachedRepo(t)
	ctx := context.Background()
	mr.Close()

	dbRepo.On("List", ctx).Return(stored, nil)
	dbRepo.On("Create", ctx, mock.Anything).Return(nil)

	for i := 0; i < 8; i++ {
		users, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, stored, users)
	}
	assert.NoError(t, repo.Create(ctx, &domain.User{Name: "Carol", Email: "c@x.com"}))
}

// blockingRepo holds List after its read until release is closed, so a
// Create can complete while the list is in flight.
type blockingRepo struct {
	mu      sync.Mutex
	users   []domain.User
	read    chan struct{}
	release chan struct{}
	block   atomic.Bool
}

func (b *blockingRepo) List(context.Context) ([]domain.User, error) {
	b.mu.Lock()
	snapshot := append([]domain.User(nil), b.users...)
	b.mu.Unlock()

	if b.block.CompareAndSwap(true, false) {
		close(b.read)
		<-b.release
	}
	return snapshot, nil
}

func (b *blockingRepo) ExistsByEmail(context.Context, string) (bool, error) {
	return false, nil
}

func (b *blockingRepo) Create(_ context.Context, u *domain.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	u.ID = int64(len(b.users) + 1)
	b.users = append([]domain.User{*u}, b.users...)
	return nil
}

func TestCachedUserRepository_CreateDuringListLoad(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	logger := zaptest.NewLogger(t)
	db := &blockingRepo{
		users:   []domain.User{{ID: 1, Name: "Alice", Email: "a@x.com"}},
		read:    make(chan struct{}),
		release: make(chan struct{}),
	}
	db.block.Store(true)
	repo := NewCachedUserRepository(db, cache.NewRedisUserCache(client, time.Minute, logger), logger)
	ctx := context.Background()

	done := make(chan []domain.User, 1)
	go func() {
		users, err := repo.List(ctx)
		assert.NoError(t, err)
		done <- users
	}()

	<-db.read
	require.NoError(t, repo.Create(ctx, &domain.User{Name: "Bob", Email: "b@x.com"}))
	close(db.release)

	assert.Len(t, <-done, 1)
	assert.False(t, mr.Exists(cache.ListKey))

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Bob", users[0].Name)
}

func TestCachedUserRepository_StoreList_SkipsOlderGeneration(t *testing.T) {
	repo, _, mr := setupCachedRepo(t)
	ctx := context.Background()

	// a Create bumps the generation between the check and the write
	gen := repo.generation.Load()
	repo.generation.Add(1)
	repo.storeList(ctx, gen, stored)
	assert.False(t, mr.Exists(cache.ListKey))

	repo.storeList(ctx, repo.generation.Load(), stored)
	assert.True(t, mr.Exists(cache.ListKey))
}
