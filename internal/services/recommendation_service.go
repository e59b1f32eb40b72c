package services

import (
	"context"
	"fmt"

	"subrecommend/internal/core"
)

// RecommendationService suggests a category from the user's top spending view.
type RecommendationService struct {
	views   *ViewService
	catalog *CatalogService
}

func NewRecommendationService(views *ViewService, catalog *CatalogService) *RecommendationService {
	return &RecommendationService{views: views, catalog: catalog}
}

// RecommendCategory returns core.ErrNotFound when the user has no view.
func (s *RecommendationService) RecommendCategory(ctx context.Context, userID string) (core.Recommendation, error) {
	view, err := s.views.TopSpending(ctx, userID)
	if err != nil {
		return core.Recommendation{}, err
	}

	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return core.Recommendation{}, fmt.Errorf("recommend category: %w", err)
	}
	return core.Recommend(view, categories), nil
}
