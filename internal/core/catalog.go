package core

import "github.com/shopspring/decimal"

// Catalog types served by the recommendation service.
type (
	Category struct {
		Name  string
		Image string
	}

	SubscriptionCategory struct {
		Name  string
		Image string
	}

	Subscription struct {
		ID          string
		Name        string
		Category    string
		Description string
		Price       decimal.Decimal
		Logo        string
		MaxSharing  int
	}

	// Catalog is the full set of catalog rows, replaced as a unit by seeding.
	Catalog struct {
		Categories             []Category
		SubscriptionCategories []SubscriptionCategory
		Subscriptions          []Subscription
	}

	// Recommendation is the category suggested to a user from their top
	// spending category. Image is empty when the category is not in the catalog.
	Recommendation struct {
		CategoryName  string
		CategoryImage string
	}
)

// Recommend joins a user's top spending view against the category list.
func Recommend(view TopSpendingView, categories []Category) Recommendation {
	rec := Recommendation{CategoryName: view.TopCategory}
	for _, c := range categories {
		if c.Name == view.TopCategory {
			rec.CategoryImage = c.Image
			break
		}
	}
	return rec
}
