package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/cache"
	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/monitoring"
	"github.com/SAP-F-2025/career-assessment-service/internal/repositories"
)

// CatalogCacheKey prefixes the Redis keys holding serialized catalog snapshots
const CatalogCacheKey = "catalog:active"

// CatalogVersionKey holds the catalog generation shared by every replica
const CatalogVersionKey = "catalog:version"

// versionCheckInterval bounds how long a replica serves its in-memory copy
// after another replica invalidated the catalog
const versionCheckInterval = 5 * time.Second

type CatalogService interface {
	// GetCatalog returns the built catalog, loading it through the cache when stale
	GetCatalog(ctx context.Context) (*Catalog, error)
	// InvalidateCache bumps the shared version so every replica reloads
	InvalidateCache(ctx context.Context) error
}

type catalogService struct {
	repo    repositories.CatalogRepository
	cache   cache.CacheService
	ttl     time.Duration
	metrics *monitoring.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.RWMutex
	catalog   *Catalog
	version   int64
	loadedAt  time.Time
	checkedAt time.Time
}

func NewCatalogService(
	repo repositories.CatalogRepository,
	cacheService cache.CacheService,
	ttl time.Duration,
	metrics *monitoring.Metrics,
	logger *slog.Logger,
) CatalogService {
	return &catalogService{
		repo:    repo,
		cache:   cacheService,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.With("component", "catalog_service"),
		now:     time.Now,
	}
}

func catalogSnapshotKey(version int64) string {
	return fmt.Sprintf("%s:v%d", CatalogCacheKey, version)
}

func (s *catalogService) GetCatalog(ctx context.Context) (*Catalog, error) {
	if catalog := s.current(ctx); catalog != nil {
		return catalog, nil
	}

	version, versionKnown := s.readVersion(ctx)
	modules, err := s.loadModules(ctx, version, versionKnown)
	if err != nil {
		return nil, err
	}

	catalog := NewCatalog(modules, s.logger)

	now := s.now()
	s.mu.Lock()
	s.catalog = catalog
	s.version = version
	s.loadedAt = now
	s.checkedAt = now
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Catalog loaded",
		"modules", len(catalog.Modules),
		"questions", catalog.Len(),
		"issues", len(catalog.Issues),
		"version", version)

	return catalog, nil
}

// current returns the in-memory catalog while it is within its TTL and
// still matches the shared version, or nil when a reload is due
func (s *catalogService) current(ctx context.Context) *Catalog {
	now := s.now()

	s.mu.RLock()
	catalog, version, loadedAt, checkedAt := s.catalog, s.version, s.loadedAt, s.checkedAt
	s.mu.RUnlock()

	if catalog == nil || now.Sub(loadedAt) >= s.ttl {
		return nil
	}
	if s.cache == nil || now.Sub(checkedAt) < versionCheckInterval {
		return catalog
	}

	shared, ok := s.readVersion(ctx)
	if ok && shared != version {
		s.logger.InfoContext(ctx, "Catalog invalidated elsewhere, reloading",
			"local_version", version, "shared_version", shared)
		return nil
	}

	// an unreadable version keeps the local copy until the TTL runs out
	s.mu.Lock()
	if s.catalog == catalog {
		s.checkedAt = now
	}
	s.mu.Unlock()
	return catalog
}

// readVersion reports the shared catalog version; a missing key is version 0
func (s *catalogService) readVersion(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}

	var version int64
	err := s.cache.Get(ctx, CatalogVersionKey, &version)
	switch {
	case err == nil:
		return version, true
	case cache.IsCacheMiss(err):
		return 0, true
	default:
		s.metrics.RecordCatalogCache("error")
		s.logger.WarnContext(ctx, "Catalog version unavailable", "error", err)
		return 0, false
	}
}

func (s *catalogService) loadModules(ctx context.Context, version int64, versionKnown bool) ([]*models.AssessmentModule, error) {
	key := catalogSnapshotKey(version)

	if versionKnown {
		var cached []*models.AssessmentModule
		err := s.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			s.metrics.RecordCatalogCache("hit")
			return cached, nil
		case cache.IsCacheMiss(err):
			s.metrics.RecordCatalogCache("miss")
		default:
			s.metrics.RecordCatalogCache("error")
			s.logger.WarnContext(ctx, "Catalog cache unavailable, reading database", "error", err)
		}
	}

	modules, err := s.repo.ListActiveModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	if versionKnown {
		if err := s.cache.Set(ctx, key, modules, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "Failed to cache catalog", "error", err)
		}
	}

	return modules, nil
}

func (s *catalogService) InvalidateCache(ctx context.Context) error {
	s.mu.Lock()
	s.catalog = nil
	s.mu.Unlock()

	if s.cache == nil {
		return nil
	}

	version := s.now().UnixNano()
	if err := s.cache.Set(ctx, CatalogVersionKey, version, 0); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	// snapshots of earlier versions are unreachable once the version moves
	if err := s.cache.DeletePattern(ctx, CatalogCacheKey+":v*"); err != nil {
		s.logger.WarnContext(ctx, "Failed to sweep old catalog snapshots", "error", err)
	}

	s.logger.InfoContext(ctx, "Catalog cache invalidated", "version", version)
	return nil
}
