package worker

import (
	"context"
	"fmt"
	"log/slog"

	"subrecommend/internal/amqp"
	"subrecommend/internal/core"
	"subrecommend/internal/services"
)

// Consumer delivers top spending events to a handler until ctx ends.
type Consumer interface {
	ConsumeTopSpending(ctx context.Context, handler amqp.Handler) error
}

// ViewWorker keeps the top spending view in step with broker events.
type ViewWorker struct {
	views *services.ViewService
}

func NewViewWorker(views *services.ViewService) *ViewWorker {
	return &ViewWorker{views: views}
}

// HandleTopSpending applies a single event. A returned error makes the
// consumer requeue or dead-letter the message.
func (w *ViewWorker) HandleTopSpending(ctx context.Context, top core.TopSpending) error {
	slog.InfoContext(ctx, "Processing top spending event",
		"user_id", top.UserID,
		"top_category", top.TopCategory)

	if err := w.views.Apply(ctx, top); err != nil {
		return fmt.Errorf("apply top spending: %w", err)
	}
	return nil
}

// Run consumes events with c until ctx is cancelled.
func (w *ViewWorker) Run(ctx context.Context, c Consumer) error {
	slog.InfoContext(ctx, "View worker started")
	err := c.ConsumeTopSpending(ctx, w.HandleTopSpending)
	slog.InfoContext(ctx, "View worker stopped", "reason", err)
	return err
}
