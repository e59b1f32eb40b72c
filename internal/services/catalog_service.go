package services

import (
	"context"
	"fmt"
	"strings"

	"subrecommend/internal/cache"
	"subrecommend/internal/core"
	"subrecommend/internal/ports"
	"subrecommend/internal/storage"
)

const categoriesCacheKey = "all"

// CatalogService serves categories and subscriptions. The category list is
// cached because every recommendation reads it.
type CatalogService struct {
	store      ports.CatalogStore
	categories cache.Cache[[]core.Category]
}

func NewCatalogService(store ports.CatalogStore, categories cache.Cache[[]core.Category]) *CatalogService {
	if categories == nil {
		categories = cache.Noop[[]core.Category]{}
	}
	return &CatalogService{store: store, categories: categories}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]core.Category, error) {
	if cats, ok := s.categories.Get(ctx, categoriesCacheKey); ok {
		return cats, nil
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	s.categories.Set(ctx, categoriesCacheKey, cats)
	return cats, nil
}

func (s *CatalogService) ListSubscriptionsByCategory(ctx context.Context, category string) ([]core.Subscription, error) {
	if strings.TrimSpace(category) == "" {
		return nil, core.ErrEmptyCategory
	}
	subs, err := s.store.ListSubscriptionsByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// GetSubscription returns core.ErrNotFound for an unknown id.
func (s *CatalogService) GetSubscription(ctx context.Context, id string) (core.Subscription, error) {
	return s.store.GetSubscription(ctx, id)
}

// Seed replaces the catalog with the default rows and drops the cached list.
func (s *CatalogService) Seed(ctx context.Context) error {
	if err := storage.SeedCatalog(ctx, s.store); err != nil {
		return err
	}
	s.categories.Delete(ctx, categoriesCacheKey)
	return nil
}
