package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"subrecommend/internal/core"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures     = 5
	openTimeout     = 30 * time.Second
	maxBackoff      = 30 * time.Second
	maxDialAttempts = 5
	publishTimeout  = 5 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type ClientConfig struct {
	URL      string
	Topology Topology
	// Prefetch is the number of unacknowledged deliveries the broker sends.
	Prefetch int
	// RedeliveryLimit is how many times a failed message is requeued before
	// it is dead-lettered.
	RedeliveryLimit int
}

// Handler applies one decoded top spending event.
type Handler func(ctx context.Context, top core.TopSpending) error

type Client struct {
	url             string
	topology        Topology
	prefetch        int
	redeliveryLimit int

	mu      sync.RWMutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	failureMu    sync.Mutex
	lastFailure  time.Time
}

// NewClient dials the broker, retrying with exponential backoff, and declares
// the topology on the opened channel.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.RedeliveryLimit < 0 {
		cfg.RedeliveryLimit = 0
	}
	if err := cfg.Topology.Validate(); err != nil {
		return nil, fmt.Errorf("invalid topology: %w", err)
	}

	client := &Client{
		url:             cfg.URL,
		topology:        cfg.Topology,
		prefetch:        cfg.Prefetch,
		redeliveryLimit: cfg.RedeliveryLimit,
	}

	var lastErr error
	for attempt := 0; attempt < maxDialAttempts; attempt++ {
		if lastErr = client.connect(); lastErr == nil {
			return client, nil
		}
		if attempt == maxDialAttempts-1 {
			break
		}
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP connection failed, retrying",
			"attempt", attempt+1,
			"retry_in", wait,
			"error", lastErr)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("connect to AMQP after %d attempts: %w", maxDialAttempts, lastErr)
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := channel.Qos(c.prefetch, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	if err := DeclareTopology(channel, c.topology); err != nil {
		conn.Close()
		return fmt.Errorf("setup topology: %w", err)
	}

	c.mu.Lock()
	oldConn := c.conn
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()

	if oldConn != nil && !oldConn.IsClosed() {
		oldConn.Close()
	}
	return nil
}

// publishChannel returns the open channel, reconnecting once if it was lost.
func (c *Client) publishChannel() (*amqp091.Channel, error) {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()
	if ch != nil && !ch.IsClosed() {
		return ch, nil
	}

	if err := c.connect(); err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel, nil
}

// dropChannel forgets ch so the next publish reconnects.
func (c *Client) dropChannel(ch *amqp091.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == ch {
		c.channel = nil
	}
}

// PublishTopSpending implements ports.EventPublisher. Messages are persistent
// and routed with the topology routing key.
func (c *Client) PublishTopSpending(ctx context.Context, top core.TopSpending) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish top spending: %w", ErrCircuitOpen)
	}

	msg := NewTopSpendingMessage(top)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	channel, err := c.publishChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	messageID := uuid.NewString()
	err = channel.PublishWithContext(
		ctx,
		c.topology.Exchange,   // exchange
		c.topology.RoutingKey, // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent, // make message persistent
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.dropChannel(channel)
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	slog.InfoContext(ctx, "Published top spending message",
		"message_id", messageID,
		"user_id", msg.UserID,
		"top_category", msg.TopCategory,
		"total_spending", msg.TotalSpending.String(),
		"exchange", c.topology.Exchange,
		"routing_key", c.topology.RoutingKey)

	return nil
}

// ConsumeTopSpending consumes top spending messages until ctx is cancelled.
// A lost connection is re-established with exponential backoff.
func (c *Client) ConsumeTopSpending(ctx context.Context, handler Handler) error {
	attempt := 0
	for {
		err := c.consume(ctx, handler)
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}

		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "Consumer interrupted, reconnecting",
			"error", err,
			"attempt", attempt+1,
			"retry_in", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if err := c.connect(); err != nil {
			attempt++
			continue
		}
		attempt = 0
	}
}

func (c *Client) consume(ctx context.Context, handler Handler) error {
	c.mu.RLock()
	channel := c.channel
	c.mu.RUnlock()
	if channel == nil || channel.IsClosed() {
		return errors.New("channel is not open")
	}

	msgs, err := channel.Consume(
		c.topology.Queue, // queue
		"",               // consumer
		false,            // auto-ack (we want manual ack)
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming top spending messages",
		"queue", c.topology.Queue,
		"prefetch", c.prefetch,
		"redelivery_limit", c.redeliveryLimit)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			ProcessDelivery(ctx, delivery, c.redeliveryLimit, handler)
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.channel != nil && !c.channel.IsClosed() {
		errs = append(errs, c.channel.Close())
	}
	if c.conn != nil && !c.conn.IsClosed() {
		errs = append(errs, c.conn.Close())
	}
	return errors.Join(errs...)
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}

	c.failureMu.Lock()
	last := c.lastFailure
	c.failureMu.Unlock()

	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	failures := atomic.AddInt64(&c.failureCount, 1)

	c.failureMu.Lock()
	c.lastFailure = time.Now()
	c.failureMu.Unlock()

	if failures >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			slog.Warn("AMQP circuit breaker opened", "failures", failures)
		}
	}
}

// exponentialBackoff returns 1s doubled per attempt, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection closed",
		"eof",
		"broken pipe",
		"use of closed network connection",
		"channel/connection is not open",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
