package services

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/cache"
	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func catalogModules() []*models.AssessmentModule {
	return []*models.AssessmentModule{{
		ID: 1, Name: "Foundations", OrderIndex: 1, IsActive: true,
		Questions: []models.AssessmentQuestion{
			{ID: 1, ModuleID: 1, QuestionType: models.QuestionScale, OrderIndex: 1},
		},
	}}
}

// memoryCache is a CacheService shared by several service instances, standing in for one Redis
type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = payload
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	payload, ok := c.values[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.values {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.values, key)
		}
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCatalogReplica(repo *MockCatalogRepository, cacheService cache.CacheService, clock *fakeClock) CatalogService {
	service := NewCatalogService(repo, cacheService, time.Minute, nil, discardLogger())
	service.(*catalogService).now = clock.Now
	return service
}

func TestCatalogService_GetCatalog(t *testing.T) {
	ctx := context.Background()
	v0 := catalogSnapshotKey(0)

	t.Run("cache miss reads the database and fills the cache", func(t *testing.T) {
		repo := &MockCatalogRepository{}
		cacheService := &MockCacheService{}
		repo.On("ListActiveModules", ctx).Return(catalogModules(), nil).Once()
		cacheService.On("Get", ctx, CatalogVersionKey, mock.Anything).Return(cache.ErrCacheMiss).Once()
		cacheService.On("Get", ctx, v0, mock.Anything).Return(cache.ErrCacheMiss).Once()
		cacheService.On("Set", ctx, v0, mock.Anything, time.Minute).Return(nil).Once()

		service := NewCatalogService(repo, cacheService, time.Minute, nil, discardLogger())

		catalog, err := service.GetCatalog(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, catalog.Len())

		// second call is served from memory
		again, err := service.GetCatalog(ctx)
		require.NoError(t, err)
		assert.Same(t, catalog, again)

		repo.AssertExpectations(t)
		cacheService.AssertExpectations(t)
	})

	t.Run("cache hit skips the database", func(t *testing.T) {
		repo := &MockCatalogRepository{}
		cacheService := &MockCacheService{}
		cacheService.On("Get", ctx, CatalogVersionKey, mock.Anything).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*int64) = 42
			}).
			Return(nil)
		cacheService.On("Get", ctx, catalogSnapshotKey(42), mock.Anything).
			Run(func(args mock.Arguments) {
				dest := args.Get(2).(*[]*models.AssessmentModule)
				*dest = catalogModules()
			}).
			Return(nil)

		service := NewCatalogService(repo, cacheService, time.Minute, nil, discardLogger())

		catalog, err := service.GetCatalog(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, catalog.Len())
		repo.AssertNotCalled(t, "ListActiveModules", mock.Anything)
	})

	t.Run("cache errors fall back to the database", func(t *testing.T) {
		repo := &MockCatalogRepository{}
		cacheService := &MockCacheService{}
		cacheService.On("Get", ctx, CatalogVersionKey, mock.Anything).Return(errors.New("connection refused"))
		repo.On("ListActiveModules", ctx).Return(catalogModules(), nil)

		service := NewCatalogService(repo, cacheService, time.Minute, nil, discardLogger())

		_, err := service.GetCatalog(ctx)
		require.NoError(t, err)
		cacheService.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unreadable version keeps the local copy", func(t *testing.T) {
		repo := &MockCatalogRepository{}
		cacheService := &MockCacheService{}
		clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
		repo.On("ListActiveModules", ctx).Return(catalogModules(), nil).Once()
		cacheService.On("Get", ctx, CatalogVersionKey, mock.Anything).Return(cache.ErrCacheMiss).Once()
		cacheService.On("Get", ctx, v0, mock.Anything).Return(cache.ErrCacheMiss).Once()
		cacheService.On("Set", ctx, v0, mock.Anything, time.Minute).Return(nil).Once()
		cacheService.On("Get", ctx, CatalogVersionKey, mock.Anything).Return(errors.New("i/o timeout")).Once()

		service := newCatalogReplica(repo, cacheService, clock)

		catalog, err := service.GetCatalog(ctx)
		require.NoError(t, err)

		clock.Advance(versionCheckInterval + time.Second)
		again, err := service.GetCatalog(ctx)
		require.NoError(t, err)
		assert.Same(t, catalog, again)

		repo.AssertExpectations(t)
		cacheService.AssertExpectations(t)
	})

	t.Run("invalidate forces a reload", func(t *testing.T) {
		repo := &MockCatalogRepository{}
		shared := newMemoryCache()
		clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
		repo.On("ListActiveModules", ctx).Return(catalogModules(), nil).Twice()

		service := newCatalogReplica(repo, shared, clock)

		_, err := service.GetCatalog(ctx)
		require.NoError(t, err)
		require.True(t, shared.has(v0))

		require.NoError(t, service.InvalidateCache(ctx))
		assert.False(t, shared.has(v0))

		_, err = service.GetCatalog(ctx)
		require.NoError(t, err)
		assert.True(t, shared.has(catalogSnapshotKey(clock.Now().UnixNano())))

		repo.AssertExpectations(t)
	})
}

func TestCatalogService_InvalidateReachesOtherReplicas(t *testing.T) {
	ctx := context.Background()
	shared := newMemoryCache()
	repo := &MockCatalogRepository{}

	updated := append(catalogModules(), &models.AssessmentModule{
		ID: 2, Name: "Leadership", OrderIndex: 2, IsActive: true,
		Questions: []models.AssessmentQuestion{
			{ID: 2, ModuleID: 2, QuestionType: models.QuestionScale, OrderIndex: 1},
		},
	})
	repo.On("ListActiveModules", ctx).Return(catalogModules(), nil).Once()
	repo.On("ListActiveModules", ctx).Return(updated, nil).Once()

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clockA, clockB := &fakeClock{now: start}, &fakeClock{now: start}
	replicaA := newCatalogReplica(repo, shared, clockA)
	replicaB := newCatalogReplica(repo, shared, clockB)

	catalog, err := replicaA.GetCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Len())

	// B warms from the snapshot A wrote
	catalog, err = replicaB.GetCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Len())

	require.NoError(t, replicaA.InvalidateCache(ctx))

	catalog, err = replicaB.GetCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Len(), "B may serve its copy until the next version check")

	clockB.Advance(versionCheckInterval)
	catalog, err = replicaB.GetCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())

	// A picks up the snapshot B just wrote without another database read
	catalog, err = replicaA.GetCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())

	repo.AssertExpectations(t)
}
