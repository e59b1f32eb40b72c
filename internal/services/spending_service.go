package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"subrecommend/internal/core"
	"subrecommend/internal/ports"
)

// ErrPublish wraps broker failures after the record was saved.
var ErrPublish = errors.New("publish top spending")

// SpendingService orchestrates spending writes across the store and the broker.
type SpendingService struct {
	store     ports.SpendingStore
	publisher ports.EventPublisher
}

// NewSpendingService wires the service. A nil publisher disables publishing.
func NewSpendingService(store ports.SpendingStore, publisher ports.EventPublisher) *SpendingService {
	return &SpendingService{
		store:     store,
		publisher: publisher,
	}
}

// CreateSpending saves the record, recomputes the user's top category and
// publishes it. When publishing fails the record stays saved and the error
// wraps ErrPublish.
func (s *SpendingService) CreateSpending(ctx context.Context, rec core.SpendingRecord) (core.SpendingRecord, error) {
	saved, err := s.store.CreateSpending(ctx, rec)
	if err != nil {
		return core.SpendingRecord{}, fmt.Errorf("save spending: %w", err)
	}

	if err := s.PublishTopSpending(ctx, saved.UserID); err != nil {
		return saved, err
	}
	return saved, nil
}

// PublishTopSpending aggregates every record of userID and publishes the top
// category. A user without records publishes nothing.
func (s *SpendingService) PublishTopSpending(ctx context.Context, userID string) error {
	records, err := s.store.ListSpendingByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list spending: %w", err)
	}

	top, ok := core.TopCategory(userID, records)
	if !ok {
		slog.InfoContext(ctx, "No spending records, nothing to publish", "user_id", userID)
		return nil
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping top spending message",
			"user_id", userID)
		return nil
	}

	if err := s.publisher.PublishTopSpending(ctx, top); err != nil {
		slog.ErrorContext(ctx, "Failed to publish top spending",
			"user_id", userID,
			"top_category", top.TopCategory,
			"error", err)
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

func (s *SpendingService) ListSpending(ctx context.Context, userID string) ([]core.SpendingRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ErrEmptyUserID
	}
	return s.store.ListSpendingByUser(ctx, userID)
}

// SeedSample stores the sample records and publishes the resulting top
// category once.
func (s *SpendingService) SeedSample(ctx context.Context, records []core.SpendingRecord) error {
	users := make([]string, 0)
	seen := map[string]bool{}
	for _, rec := range records {
		if _, err := s.store.CreateSpending(ctx, rec); err != nil {
			return fmt.Errorf("seed spending: %w", err)
		}
		if !seen[rec.UserID] {
			seen[rec.UserID] = true
			users = append(users, rec.UserID)
		}
	}
	for _, userID := range users {
		if err := s.PublishTopSpending(ctx, userID); err != nil {
			return err
		}
	}
	slog.InfoContext(ctx, "Sample spending seeded", "records", len(records), "users", len(users))
	return nil
}

func (s *SpendingService) Ping(ctx context.Context) error {
	if p, ok := s.store.(ports.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes both storage and AMQP connections
func (s *SpendingService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	return errors.Join(errs...)
}
