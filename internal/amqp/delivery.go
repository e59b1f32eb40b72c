package amqp

import (
	"context"
	"log/slog"

	"github.com/rabbitmq/amqp091-go"
)

// Outcome is what ProcessDelivery did with a delivery.
type Outcome int

const (
	Acked Outcome = iota
	Requeued
	DeadLettered
)

func (o Outcome) String() string {
	switch o {
	case Acked:
		return "acked"
	case Requeued:
		return "requeued"
	case DeadLettered:
		return "dead-lettered"
	default:
		return "unknown"
	}
}

// ProcessDelivery decodes one delivery and runs handler on it.
//
// Undecodable bodies are rejected without requeue and land in the DLX. A
// handler error requeues the message while it has been delivered fewer than
// redeliveryLimit times before, then dead-letters it. Without a broker
// delivery count only the first delivery can be told apart, so the limit is
// capped at 1. Success acks.
func ProcessDelivery(ctx context.Context, d amqp091.Delivery, redeliveryLimit int, handler Handler) Outcome {
	msg, err := TopSpendingMessageFromJSON(d.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode message",
			"error", err,
			"message_id", d.MessageId)
		nack(ctx, d, false)
		return DeadLettered
	}

	attempts, counted := previousAttempts(d)
	if !counted && redeliveryLimit > 1 {
		redeliveryLimit = 1
	}
	slog.InfoContext(ctx, "Processing top spending message",
		"message_id", d.MessageId,
		"user_id", msg.UserID,
		"top_category", msg.TopCategory,
		"previous_attempts", attempts)

	if err := handler(ctx, msg.ToDomain()); err != nil {
		requeue := attempts < redeliveryLimit
		slog.ErrorContext(ctx, "Failed to handle message",
			"error", err,
			"message_id", d.MessageId,
			"user_id", msg.UserID,
			"requeue", requeue)
		nack(ctx, d, requeue)
		if requeue {
			return Requeued
		}
		return DeadLettered
	}

	if err := d.Ack(false); err != nil {
		slog.ErrorContext(ctx, "Failed to ack message", "error", err, "message_id", d.MessageId)
	}
	slog.InfoContext(ctx, "Successfully processed top spending message",
		"message_id", d.MessageId,
		"user_id", msg.UserID)
	return Acked
}

func nack(ctx context.Context, d amqp091.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		slog.ErrorContext(ctx, "Failed to nack message",
			"error", err,
			"message_id", d.MessageId,
			"requeue", requeue)
	}
}

// previousAttempts reads the x-delivery-count header set by quorum queues.
// Classic queues only carry the redelivered flag, reported with counted false.
func previousAttempts(d amqp091.Delivery) (attempts int, counted bool) {
	switch n := d.Headers["x-delivery-count"].(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	}
	if d.Redelivered {
		return 1, false
	}
	return 0, false
}
