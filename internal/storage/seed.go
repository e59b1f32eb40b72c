package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"subrecommend/internal/core"
	"subrecommend/internal/ports"
)

var seedCategoryNames = []string{"food", "entertainment", "shopping", "beauty"}

// DefaultCatalog returns the catalog rows the recommendation service starts with.
func DefaultCatalog() core.Catalog {
	var catalog core.Catalog
	for _, name := range seedCategoryNames {
		catalog.Categories = append(catalog.Categories, core.Category{
			Name:  name,
			Image: name + ".png",
		})
		catalog.SubscriptionCategories = append(catalog.SubscriptionCategories, core.SubscriptionCategory{
			Name:  name,
			Image: name + "_subscription.png",
		})
	}

	catalog.Subscriptions = []core.Subscription{
		{ID: "sub1", Name: "FoodBox", Category: "food", Description: "Weekly fresh ingredient delivery", Price: decimal.NewFromInt(59900), Logo: "foodbox.png", MaxSharing: 1},
		{ID: "sub2", Name: "Cooking Class", Category: "food", Description: "Monthly online cooking course", Price: decimal.NewFromInt(29900), Logo: "cookingclass.png", MaxSharing: 1},
		{ID: "sub3", Name: "Netflix", Category: "entertainment", Description: "Movie and drama streaming", Price: decimal.NewFromInt(14900), Logo: "netflix.png", MaxSharing: 4},
		{ID: "sub4", Name: "Wisely", Category: "beauty", Description: "Razor blade subscription", Price: decimal.NewFromInt(14900), Logo: "wisely.png", MaxSharing: 1},
		{ID: "sub5", Name: "StyleShare", Category: "shopping", Description: "Monthly fashion item subscription", Price: decimal.NewFromInt(39900), Logo: "styleshare.png", MaxSharing: 1},
	}
	return catalog
}

// SampleSpending returns four records for user1 spread over the days before
// today. Food is the top category with 580000.
func SampleSpending(today core.Date) []core.SpendingRecord {
	return []core.SpendingRecord{
		{UserID: "user1", Category: "food", Amount: decimal.NewFromInt(580000), Date: today},
		{UserID: "user1", Category: "entertainment", Amount: decimal.NewFromInt(150000), Date: today.AddDays(-1)},
		{UserID: "user1", Category: "shopping", Amount: decimal.NewFromInt(250000), Date: today.AddDays(-2)},
		{UserID: "user1", Category: "beauty", Amount: decimal.NewFromInt(100000), Date: today.AddDays(-3)},
	}
}

// SeedCatalog replaces every catalog row with DefaultCatalog.
func SeedCatalog(ctx context.Context, w ports.CatalogWriter) error {
	catalog := DefaultCatalog()
	if err := w.ReplaceCatalog(ctx, catalog); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	slog.InfoContext(ctx, "Catalog seeded",
		"categories", len(catalog.Categories),
		"subscriptions", len(catalog.Subscriptions))
	return nil
}
