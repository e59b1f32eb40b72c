package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"subrecommend/internal/cache"
	"subrecommend/internal/core"
	"subrecommend/internal/ports"
)

// ViewService maintains the top spending view, one row per user, with a
// write-through cache in front of the store.
type ViewService struct {
	store ports.ViewStore
	cache cache.Cache[core.TopSpendingView]
	now   func() time.Time
}

func NewViewService(store ports.ViewStore, c cache.Cache[core.TopSpendingView]) *ViewService {
	if c == nil {
		c = cache.Noop[core.TopSpendingView]{}
	}
	return &ViewService{store: store, cache: c, now: time.Now}
}

// Apply upserts the event into the view. Applying the same event twice
// leaves one row with the same content.
func (s *ViewService) Apply(ctx context.Context, top core.TopSpending) error {
	if err := top.Validate(); err != nil {
		return fmt.Errorf("invalid top spending: %w", err)
	}

	view := top.View(s.now().UTC())
	if err := s.store.UpsertTopSpending(ctx, view); err != nil {
		s.cache.Delete(ctx, top.UserID)
		return fmt.Errorf("upsert view: %w", err)
	}
	s.cache.Set(ctx, top.UserID, view)

	slog.InfoContext(ctx, "Top spending view updated",
		"user_id", view.UserID,
		"top_category", view.TopCategory,
		"total_spending", view.TotalSpending.String())
	return nil
}

// TopSpending returns core.ErrNotFound when the user has no view yet. Only
// Apply fills the cache, so a slow store read never overwrites a newer view.
func (s *ViewService) TopSpending(ctx context.Context, userID string) (core.TopSpendingView, error) {
	if strings.TrimSpace(userID) == "" {
		return core.TopSpendingView{}, core.ErrEmptyUserID
	}
	if view, ok := s.cache.Get(ctx, userID); ok {
		return view, nil
	}

	return s.store.GetTopSpending(ctx, userID)
}
