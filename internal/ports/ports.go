package ports

import (
	"context"

	"subrecommend/internal/core"
)

// Ports for outbound adapters.
type (
	SpendingWriter interface {
		// CreateSpending assigns an id to the record and stores it.
		CreateSpending(ctx context.Context, rec core.SpendingRecord) (core.SpendingRecord, error)
	}

	SpendingReader interface {
		// ListSpendingByUser returns every record of userID ordered by date.
		ListSpendingByUser(ctx context.Context, userID string) ([]core.SpendingRecord, error)
		// GetSpending returns core.ErrNotFound when id is unknown.
		GetSpending(ctx context.Context, id string) (core.SpendingRecord, error)
	}

	SpendingStore interface {
		SpendingWriter
		SpendingReader
	}

	// ViewReader reads the top spending view. Missing rows yield core.ErrNotFound.
	ViewReader interface {
		GetTopSpending(ctx context.Context, userID string) (core.TopSpendingView, error)
	}

	// ViewWriter overwrites the row keyed by view.UserID, creating it if absent.
	ViewWriter interface {
		UpsertTopSpending(ctx context.Context, view core.TopSpendingView) error
	}

	ViewStore interface {
		ViewReader
		ViewWriter
	}

	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	SubscriptionReader interface {
		ListSubscriptionsByCategory(ctx context.Context, category string) ([]core.Subscription, error)
		// GetSubscription returns core.ErrNotFound when id is unknown.
		GetSubscription(ctx context.Context, id string) (core.Subscription, error)
	}

	// CatalogWriter replaces every catalog row in one step.
	CatalogWriter interface {
		ReplaceCatalog(ctx context.Context, catalog core.Catalog) error
	}

	CatalogStore interface {
		CategoryReader
		SubscriptionReader
		CatalogWriter
	}

	// EventPublisher places an aggregation result on the broker.
	EventPublisher interface {
		PublishTopSpending(ctx context.Context, top core.TopSpending) error
	}

	// Pinger reports whether a backing store is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
