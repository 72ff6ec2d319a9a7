package catalog

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tunelab-ai/studio/pkg/common/logger"
)

// Service fronts the two YAML catalogs and the registered-artifact store with
// a Redis read-through cache for path resolution. The cache and repository
// are both optional; without a repository the existing/local variants simply
// resolve to nothing.
type Service struct {
	models   Catalog
	datasets Catalog
	repo     *Repository
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewService(models, datasets Catalog, repo *Repository, cache *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		models:   models,
		datasets: datasets,
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (s *Service) HasModel(id string) bool {
	_, ok := s.models.Lookup(id)
	return ok
}

func (s *Service) HasDataset(id string) bool {
	_, ok := s.datasets.Lookup(id)
	return ok
}

func (s *Service) Models() Catalog {
	return s.models
}

func (s *Service) Datasets() Catalog {
	return s.datasets
}

func (s *Service) ResolveModelPath(ctx context.Context, catalogID string) (string, error) {
	return s.resolvePath(ctx, "catalog:model:"+catalogID, catalogID, s.modelPathFromRepo)
}

func (s *Service) ResolveDatasetPath(ctx context.Context, catalogID string) (string, error) {
	return s.resolvePath(ctx, "catalog:dataset:"+catalogID, catalogID, s.datasetPathFromRepo)
}

func (s *Service) resolvePath(ctx context.Context, cacheKey, catalogID string, fetch func(context.Context, string) (string, error)) (string, error) {
	if s.cache != nil {
		if path, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && path != "" {
			return path, nil
		}
	}

	path, err := fetch(ctx, catalogID)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, path, s.cacheTTL).Err(); err != nil {
			logger.Log.WithError(err).WithField("key", cacheKey).Warn("Failed to cache catalog path")
		}
	}
	return path, nil
}

func (s *Service) modelPathFromRepo(ctx context.Context, catalogID string) (string, error) {
	if s.repo == nil {
		return "", ErrNotRegistered
	}
	return s.repo.ModelPath(ctx, catalogID)
}

func (s *Service) datasetPathFromRepo(ctx context.Context, catalogID string) (string, error) {
	if s.repo == nil {
		return "", ErrNotRegistered
	}
	return s.repo.DatasetPath(ctx, catalogID)
}
