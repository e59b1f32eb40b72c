package amqp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rabbitmq/amqp091-go"
)

// Topology names the exchanges, queues and keys carrying top spending events.
// Failed messages are routed to a fanout dead-letter exchange.
type Topology struct {
	Exchange      string
	Queue         string
	RoutingKey    string
	DLXExchange   string
	DLXQueue      string
	DLXRoutingKey string
}

// DefaultTopology returns the names both services agree on.
func DefaultTopology() Topology {
	return Topology{
		Exchange:      "spending-exchange",
		Queue:         "spending-updated-queue",
		RoutingKey:    "spending.updated",
		DLXExchange:   "spending-dlx-exchange",
		DLXQueue:      "spending-updated-dlx-queue",
		DLXRoutingKey: "spending-updated.dlx",
	}
}

func (t Topology) Validate() error {
	var errs []error
	for _, f := range []struct{ name, value string }{
		{"exchange", t.Exchange},
		{"queue", t.Queue},
		{"routing key", t.RoutingKey},
		{"dlx exchange", t.DLXExchange},
		{"dlx queue", t.DLXQueue},
		{"dlx routing key", t.DLXRoutingKey},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", f.name))
		}
	}
	if t.Exchange != "" && t.Exchange == t.DLXExchange {
		errs = append(errs, errors.New("dlx exchange must differ from the main exchange"))
	}
	return errors.Join(errs...)
}

// QueueArgs are the main queue arguments routing rejected messages to the DLX.
func (t Topology) QueueArgs() amqp091.Table {
	return amqp091.Table{
		"x-dead-letter-exchange":    t.DLXExchange,
		"x-dead-letter-routing-key": t.DLXRoutingKey,
	}
}

// Declarer is the subset of *amqp091.Channel used to declare the topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
}

// DeclareTopology declares every exchange, queue and binding of t. Declaring
// is idempotent, so both services call it at startup.
func DeclareTopology(ch Declarer, t Topology) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid topology: %w", err)
	}

	// Declare dead-letter side first so the main queue arguments resolve
	err := ch.ExchangeDeclare(
		t.DLXExchange,          // name
		amqp091.ExchangeFanout, // type
		true,                   // durable
		false,                  // auto-deleted
		false,                  // internal
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		return fmt.Errorf("declare dlx exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		t.DLXQueue, // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare dlx queue: %w", err)
	}

	err = ch.QueueBind(
		t.DLXQueue,    // queue name
		"",            // fanout ignores the key
		t.DLXExchange, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind dlx queue: %w", err)
	}

	err = ch.ExchangeDeclare(
		t.Exchange,            // name
		amqp091.ExchangeTopic, // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		t.Queue,       // name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		t.QueueArgs(), // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		t.Queue,      // queue name
		t.RoutingKey, // routing key
		t.Exchange,   // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}
