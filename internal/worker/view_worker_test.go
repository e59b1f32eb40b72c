package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"subrecommend/internal/amqp"
	"subrecommend/internal/core"
	"subrecommend/internal/services"
	"subrecommend/internal/storage/memory"
)

type fakeAcknowledger struct {
	acks, nacks int
	requeue     bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error { f.acks++; return nil }

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacks++
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error { return f.Nack(tag, false, requeue) }

// lockedOnceStore fails the first upsert, as a busy database would.
type lockedOnceStore struct {
	*memory.Store
	upserts int
}

func (s *lockedOnceStore) UpsertTopSpending(ctx context.Context, v core.TopSpendingView) error {
	s.upserts++
	if s.upserts == 1 {
		return errors.New("database is locked")
	}
	return s.Store.UpsertTopSpending(ctx, v)
}

type fakeConsumer struct {
	events []core.TopSpending
	errs   []error
}

func (f *fakeConsumer) ConsumeTopSpending(ctx context.Context, handler amqp.Handler) error {
	for _, e := range f.events {
		f.errs = append(f.errs, handler(ctx, e))
	}
	return context.Canceled
}

const body = `{"userId":"user1","topCategory":"food","totalSpending":"580000"}`

func TestViewWorkerRedeliveryAfterTransientFailure(t *testing.T) {
	store := &lockedOnceStore{Store: memory.New()}
	w := NewViewWorker(services.NewViewService(store, nil))
	ctx := context.Background()

	first := &fakeAcknowledger{}
	got := amqp.ProcessDelivery(ctx, amqp091.Delivery{Acknowledger: first, Body: []byte(body)}, 1, w.HandleTopSpending)
	if got != amqp.Requeued || !first.requeue {
		t.Fatalf("first delivery = %s requeue=%v, want requeued", got, first.requeue)
	}
	if _, err := store.GetTopSpending(ctx, "user1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected no row after failed attempt, got %v", err)
	}

	second := &fakeAcknowledger{}
	got = amqp.ProcessDelivery(ctx, amqp091.Delivery{Acknowledger: second, Body: []byte(body), Redelivered: true}, 1, w.HandleTopSpending)
	if got != amqp.Acked || second.acks != 1 {
		t.Fatalf("redelivery = %s acks=%d, want acked", got, second.acks)
	}

	view, err := store.GetTopSpending(ctx, "user1")
	if err != nil {
		t.Fatalf("GetTopSpending() error = %v", err)
	}
	if view.TopCategory != "food" || !view.TotalSpending.Equal(decimal.NewFromInt(580000)) {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestViewWorkerRejectsInvalidEvent(t *testing.T) {
	w := NewViewWorker(services.NewViewService(memory.New(), nil))
	err := w.HandleTopSpending(context.Background(), core.TopSpending{UserID: "user1"})
	if !errors.Is(err, core.ErrEmptyTopResult) {
		t.Fatalf("expected ErrEmptyTopResult, got %v", err)
	}
}

func TestViewWorkerRun(t *testing.T) {
	store := memory.New()
	w := NewViewWorker(services.NewViewService(store, nil))
	c := &fakeConsumer{events: []core.TopSpending{
		{UserID: "user1", TopCategory: "food", TotalSpending: decimal.NewFromInt(580000)},
		{UserID: "user1", TopCategory: "shopping", TotalSpending: decimal.NewFromInt(250000)},
	}}

	if err := w.Run(context.Background(), c); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v", err)
	}
	for i, err := range c.errs {
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
	}
	view, _ := store.GetTopSpending(context.Background(), "user1")
	if view.TopCategory != "shopping" {
		t.Fatalf("expected last event to win, got %+v", view)
	}
}
