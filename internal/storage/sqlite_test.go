package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"subrecommend/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteSpendingRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	amount, _ := decimal.NewFromString("1234.56")
	created, err := repo.CreateSpending(ctx, core.SpendingRecord{
		UserID: "user1", Category: "food", Amount: amount, Date: core.NewDate(2025, 3, 2),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if _, err := repo.CreateSpending(ctx, core.SpendingRecord{
		UserID: "user1", Category: "beauty", Amount: decimal.NewFromInt(10), Date: core.NewDate(2025, 3, 1),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetSpending(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(amount) || got.Date.String() != "2025-03-02" || got.Category != "food" {
		t.Fatalf("unexpected record %+v", got)
	}

	list, err := repo.ListSpendingByUser(ctx, "user1")
	if err != nil || len(list) != 2 {
		t.Fatalf("unexpected list %+v err=%v", list, err)
	}
	if list[0].Category != "beauty" {
		t.Fatalf("expected date order, got %+v", list)
	}

	empty, err := repo.ListSpendingByUser(ctx, "nobody")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %+v err=%v", empty, err)
	}

	if _, err := repo.GetSpending(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRejectsInvalidSpending(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.CreateSpending(context.Background(), core.SpendingRecord{
		UserID: "user1", Amount: decimal.NewFromInt(1), Date: core.NewDate(2025, 1, 1),
	})
	if !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestSQLiteUpsertTopSpending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetTopSpending(ctx, "user1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	views := []core.TopSpendingView{
		{UserID: "user1", TopCategory: "food", TotalSpending: decimal.NewFromInt(580000)},
		{UserID: "user1", TopCategory: "food", TotalSpending: decimal.NewFromInt(580000)},
		{UserID: "user1", TopCategory: "shopping", TotalSpending: decimal.NewFromInt(250000)},
	}
	for _, v := range views {
		if err := repo.UpsertTopSpending(ctx, v); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	got, err := repo.GetTopSpending(ctx, "user1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TopCategory != "shopping" || !got.TotalSpending.Equal(decimal.NewFromInt(250000)) {
		t.Fatalf("expected last write to win, got %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("expected updated_at to be set")
	}

	var rows int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM top_spending_view`).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected a single view row, got %d", rows)
	}
}

func TestSQLiteCatalog(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := SeedCatalog(ctx, repo); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Seeding twice replaces rather than duplicates.
	if err := SeedCatalog(ctx, repo); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	cats, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != 4 || cats[0].Name != "food" || cats[0].Image != "food.png" {
		t.Fatalf("unexpected categories %+v", cats)
	}

	food, err := repo.ListSubscriptionsByCategory(ctx, "food")
	if err != nil || len(food) != 2 {
		t.Fatalf("unexpected food subscriptions %+v err=%v", food, err)
	}
	if food[0].ID != "sub1" || !food[0].Price.Equal(decimal.NewFromInt(59900)) {
		t.Fatalf("unexpected first subscription %+v", food[0])
	}

	netflix, err := repo.GetSubscription(ctx, "sub3")
	if err != nil || netflix.MaxSharing != 4 || netflix.Category != "entertainment" {
		t.Fatalf("unexpected subscription %+v err=%v", netflix, err)
	}
	if _, err := repo.GetSubscription(ctx, "sub42"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSampleSpendingTopCategory(t *testing.T) {
	records := SampleSpending(core.NewDate(2025, 5, 10))
	top, ok := core.TopCategory("user1", records)
	if !ok {
		t.Fatalf("expected a result")
	}
	if top.TopCategory != "food" || !top.TotalSpending.Equal(decimal.NewFromInt(580000)) {
		t.Fatalf("unexpected top %+v", top)
	}
	if records[3].Date.String() != "2025-05-07" {
		t.Fatalf("expected beauty three days earlier, got %s", records[3].Date)
	}
}
