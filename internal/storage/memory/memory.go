package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"subrecommend/internal/core"
)

// Store keeps every collection in process memory. It backs the memory data
// backend and the service tests.
type Store struct {
	mu            sync.Mutex
	spendings     []core.SpendingRecord
	views         map[string]core.TopSpendingView
	catalog       core.Catalog
	subscriptions map[string]core.Subscription
}

func New() *Store {
	return &Store{
		views:         make(map[string]core.TopSpendingView),
		subscriptions: make(map[string]core.Subscription),
	}
}

// CreateSpending stores the record and assigns a UUID when it has no id.
func (s *Store) CreateSpending(_ context.Context, rec core.SpendingRecord) (core.SpendingRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.SpendingRecord{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spendings = append(s.spendings, rec)
	return rec, nil
}

func (s *Store) ListSpendingByUser(_ context.Context, userID string) ([]core.SpendingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SpendingRecord, 0)
	for _, r := range s.spendings {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out, nil
}

func (s *Store) GetSpending(_ context.Context, id string) (core.SpendingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.spendings {
		if r.ID == id {
			return r, nil
		}
	}
	return core.SpendingRecord{}, core.ErrNotFound
}

func (s *Store) GetTopSpending(_ context.Context, userID string) (core.TopSpendingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[userID]
	if !ok {
		return core.TopSpendingView{}, core.ErrNotFound
	}
	return v, nil
}

func (s *Store) UpsertTopSpending(_ context.Context, view core.TopSpendingView) error {
	if view.UserID == "" {
		return core.ErrEmptyUserID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[view.UserID] = view
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.catalog.Categories...), nil
}

func (s *Store) ListSubscriptionsByCategory(_ context.Context, category string) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Subscription, 0)
	for _, sub := range s.catalog.Subscriptions {
		if sub.Category == category {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *Store) GetSubscription(_ context.Context, id string) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return core.Subscription{}, core.ErrNotFound
	}
	return sub, nil
}

func (s *Store) ReplaceCatalog(_ context.Context, catalog core.Catalog) error {
	subs := make(map[string]core.Subscription, len(catalog.Subscriptions))
	for _, sub := range catalog.Subscriptions {
		subs[sub.ID] = sub
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = core.Catalog{
		Categories:             dedupeCategories(catalog.Categories),
		SubscriptionCategories: append([]core.SubscriptionCategory(nil), catalog.SubscriptionCategories...),
		Subscriptions:          append([]core.Subscription(nil), catalog.Subscriptions...),
	}
	s.subscriptions = subs
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// dedupeCategories keeps the first category of each name, in input order.
func dedupeCategories(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}
