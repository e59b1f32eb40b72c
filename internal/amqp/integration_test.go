package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"subrecommend/internal/core"
)

func startRabbitMQ(t *testing.T, ctx context.Context) string {
	t.Helper()
	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-management",
		rabbitmq.WithAdminUsername("guest"),
		rabbitmq.WithAdminPassword("guest"),
	)
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	url, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("failed to get AMQP URL: %v", err)
	}
	return url
}

func TestIntegration_PublishConsumeAndDeadLetter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	url := startRabbitMQ(t, ctx)
	topo := DefaultTopology()

	client, err := NewClient(ctx, ClientConfig{URL: url, Topology: topo, Prefetch: 1, RedeliveryLimit: 1})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	received := make(chan core.TopSpending, 4)
	attempts := 0
	handler := func(_ context.Context, top core.TopSpending) error {
		if top.UserID == "flaky" && attempts == 0 {
			attempts++
			return errors.New("transient failure")
		}
		received <- top
		return nil
	}

	consumeCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- client.ConsumeTopSpending(consumeCtx, handler) }()

	t.Run("round trip", func(t *testing.T) {
		want := core.TopSpending{UserID: "user1", TopCategory: "food", TotalSpending: decimal.RequireFromString("580000.50")}
		if err := client.PublishTopSpending(ctx, want); err != nil {
			t.Fatalf("PublishTopSpending() error = %v", err)
		}
		got := waitFor(t, received)
		if got.UserID != want.UserID || got.TopCategory != want.TopCategory || !got.TotalSpending.Equal(want.TotalSpending) {
			t.Fatalf("received %+v, want %+v", got, want)
		}
	})

	t.Run("failed handler is redelivered", func(t *testing.T) {
		top := core.TopSpending{UserID: "flaky", TopCategory: "beauty", TotalSpending: decimal.NewFromInt(10)}
		if err := client.PublishTopSpending(ctx, top); err != nil {
			t.Fatalf("PublishTopSpending() error = %v", err)
		}
		if got := waitFor(t, received); got.UserID != "flaky" {
			t.Fatalf("unexpected redelivery %+v", got)
		}
	})

	t.Run("malformed message lands in dlx", func(t *testing.T) {
		conn, err := amqp091.Dial(url)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			t.Fatalf("channel: %v", err)
		}
		defer ch.Close()

		if err := ch.PublishWithContext(ctx, topo.Exchange, topo.RoutingKey, false, false, amqp091.Publishing{
			ContentType: "application/json",
			Body:        []byte("not-json"),
		}); err != nil {
			t.Fatalf("publish: %v", err)
		}

		deadline := time.Now().Add(30 * time.Second)
		for time.Now().Before(deadline) {
			msg, ok, err := ch.Get(topo.DLXQueue, true)
			if err != nil {
				t.Fatalf("get from dlx: %v", err)
			}
			if ok {
				if string(msg.Body) != "not-json" {
					t.Fatalf("unexpected dead letter %q", msg.Body)
				}
				return
			}
			time.Sleep(200 * time.Millisecond)
		}
		t.Fatal("message never reached the dead-letter queue")
	})

	stop()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("ConsumeTopSpending() returned %v, want context.Canceled", err)
	}
}

func waitFor(t *testing.T, ch <-chan core.TopSpending) core.TopSpending {
	t.Helper()
	select {
	case top := <-ch:
		return top
	case <-time.After(30 * time.Second):
		t.Fatal("timed out waiting for message")
		return core.TopSpending{}
	}
}
