package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Publisher sends envelopes to subscribers.
type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}

// New returns a RabbitMQ publisher when url is set and a no-op one otherwise.
func New(url, exchange string, logger *slog.Logger) (Publisher, error) {
	if url == "" {
		logger.Info("Event publishing disabled (no events.amqp_url)")
		return Nop{}, nil
	}
	return NewRabbitMQ(url, exchange, logger)
}

// RabbitMQ publishes persistent JSON messages to a topic exchange and waits
// for the broker to confirm each one.
type RabbitMQ struct {
	conn     *amqp091.Connection
	exchange string
	log      *slog.Logger

	mu sync.Mutex
	ch *amqp091.Channel
}

// NewRabbitMQ dials url and declares the durable topic exchange.
func NewRabbitMQ(url, exchange string, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	logger.Info("Event publisher connected", "exchange", exchange)
	return &RabbitMQ{conn: conn, exchange: exchange, log: logger, ch: ch}, nil
}

// Publish sends msg with routing key key.
func (r *RabbitMQ) Publish(ctx context.Context, key string, msg Envelope) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msgID := msg.Meta.ID
	if msgID == "" {
		msgID = uuid.NewString()
	}
	cid := msgID
	if msg.Meta.CorrelationID != nil {
		cid = *msg.Meta.CorrelationID
	}

	// one confirm-mode channel; publishes are serialized on it
	r.mu.Lock()
	defer r.mu.Unlock()

	dc, err := r.ch.PublishWithDeferredConfirmWithContext(ctx, r.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     msgID,
		CorrelationId: cid,
		Type:          msg.Meta.Type,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", key, err)
	}
	if !acked {
		return fmt.Errorf("publish %s: broker nacked message %s", key, msgID)
	}

	r.log.Info("published", slog.String("key", key), slog.String("exchange", r.exchange), slog.String("id", msgID))
	return nil
}

// Close closes the channel and connection.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ch.Close()
	return r.conn.Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, Envelope) error { return nil }
func (Nop) Close() error { return nil }
