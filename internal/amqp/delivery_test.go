package amqp

import (
	"context"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"

	"subrecommend/internal/core"
)

type fakeAcknowledger struct {
	acks    int
	nacks   int
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acks++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

const validBody = `{"userId":"user1","topCategory":"food","totalSpending":"580000"}`

func TestProcessDelivery(t *testing.T) {
	failing := func(context.Context, core.TopSpending) error { return errors.New("store down") }
	ok := func(context.Context, core.TopSpending) error { return nil }

	tests := []struct {
		name        string
		body        string
		redelivered bool
		headers     amqp091.Table
		limit       int
		handler     Handler
		want        Outcome
		wantRequeue bool
	}{
		{name: "success acks", body: validBody, limit: 1, handler: ok, want: Acked},
		{name: "malformed body dead-letters", body: `{`, limit: 1, handler: ok, want: DeadLettered},
		{name: "invalid fields dead-letter", body: `{"userId":"","topCategory":"food","totalSpending":1}`, limit: 1, handler: ok, want: DeadLettered},
		{name: "first failure requeues", body: validBody, limit: 1, handler: failing, want: Requeued, wantRequeue: true},
		{name: "redelivered failure dead-letters", body: validBody, redelivered: true, limit: 1, handler: failing, want: DeadLettered},
		{name: "zero limit dead-letters at once", body: validBody, limit: 0, handler: failing, want: DeadLettered},
		{name: "delivery count below limit requeues", body: validBody, redelivered: true, headers: amqp091.Table{"x-delivery-count": int64(2)}, limit: 3, handler: failing, want: Requeued, wantRequeue: true},
		{name: "delivery count at limit dead-letters", body: validBody, redelivered: true, headers: amqp091.Table{"x-delivery-count": int32(3)}, limit: 3, handler: failing, want: DeadLettered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			d := amqp091.Delivery{
				Acknowledger: ack,
				Body:         []byte(tt.body),
				Redelivered:  tt.redelivered,
				Headers:      tt.headers,
				MessageId:    "msg-1",
			}

			got := ProcessDelivery(context.Background(), d, tt.limit, tt.handler)
			if got != tt.want {
				t.Fatalf("ProcessDelivery() = %s, want %s", got, tt.want)
			}

			switch tt.want {
			case Acked:
				if ack.acks != 1 || ack.nacks != 0 {
					t.Fatalf("expected a single ack, got acks=%d nacks=%d", ack.acks, ack.nacks)
				}
			default:
				if ack.acks != 0 || ack.nacks != 1 || ack.requeue != tt.wantRequeue {
					t.Fatalf("expected one nack requeue=%v, got acks=%d nacks=%d requeue=%v",
						tt.wantRequeue, ack.acks, ack.nacks, ack.requeue)
				}
			}
		})
	}
}

func TestProcessDeliveryPassesDecodedEvent(t *testing.T) {
	var got core.TopSpending
	handler := func(_ context.Context, top core.TopSpending) error {
		got = top
		return nil
	}
	d := amqp091.Delivery{Acknowledger: &fakeAcknowledger{}, Body: []byte(`{"userId":"user1","topCategory":"food","totalSpending":580000}`)}

	ProcessDelivery(context.Background(), d, 1, handler)

	if got.UserID != "user1" || got.TopCategory != "food" || got.TotalSpending.String() != "580000" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestProcessDeliveryDeadLettersWithoutDeliveryCount(t *testing.T) {
	failing := func(context.Context, core.TopSpending) error { return errors.New("store down") }

	first := ProcessDelivery(context.Background(), amqp091.Delivery{
		Acknowledger: &fakeAcknowledger{},
		Body:         []byte(validBody),
	}, 3, failing)
	if first != Requeued {
		t.Fatalf("first delivery = %s, want %s", first, Requeued)
	}

	// A classic queue redelivers with the flag set and no count header.
	var outcomes []Outcome
	for i := 0; i < 10; i++ {
		ack := &fakeAcknowledger{}
		got := ProcessDelivery(context.Background(), amqp091.Delivery{
			Acknowledger: ack,
			Body:         []byte(validBody),
			Redelivered:  true,
		}, 3, failing)
		outcomes = append(outcomes, got)
		if got == DeadLettered {
			if ack.nacks != 1 || ack.requeue {
				t.Fatalf("expected nack without requeue, got nacks=%d requeue=%v", ack.nacks, ack.requeue)
			}
			break
		}
	}
	if outcomes[len(outcomes)-1] != DeadLettered {
		t.Fatalf("message was never dead-lettered: %v", outcomes)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected dead-letter on the first redelivery, took %d", len(outcomes))
	}
}

func TestPreviousAttempts(t *testing.T) {
	tests := []struct {
		name        string
		d           amqp091.Delivery
		want        int
		wantCounted bool
	}{
		{name: "fresh", d: amqp091.Delivery{}, want: 0},
		{name: "redelivered flag", d: amqp091.Delivery{Redelivered: true}, want: 1},
		{name: "delivery count wins", d: amqp091.Delivery{Redelivered: true, Headers: amqp091.Table{"x-delivery-count": int64(4)}}, want: 4, wantCounted: true},
		{name: "unknown header type", d: amqp091.Delivery{Headers: amqp091.Table{"x-delivery-count": "4"}}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, counted := previousAttempts(tt.d)
			if got != tt.want || counted != tt.wantCounted {
				t.Fatalf("previousAttempts() = %d, %v, want %d, %v", got, counted, tt.want, tt.wantCounted)
			}
		})
	}
}
