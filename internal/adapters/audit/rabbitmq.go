package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// RabbitPublisher sends audit events to a durable RabbitMQ queue.
type RabbitPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *logger.Logger
}

// NewRabbitPublisher dials url and declares the audit queue.
func NewRabbitPublisher(url, queue string, log *logger.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := channel.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return &RabbitPublisher{
		conn:    conn,
		channel: channel,
		queue:   q.Name,
		logger:  log.WithComponent("audit"),
	}, nil
}

// Publish sends one persistent JSON message.
func (p *RabbitPublisher) Publish(ctx context.Context, event ports.AuditEvent) error {
	msg, err := Encode(event)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	p.logger.Debugw("Audit event published", "action", event.Action, "owner_id", event.OwnerID, "tasks", len(event.TaskIDs))
	return nil
}

// Close closes the channel and the connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Encode builds the AMQP message for event.
func Encode(event ports.AuditEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal audit event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         string(event.Action),
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}

// Nop drops every event. It is used when auditing is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, ports.AuditEvent) error { return nil }
func (Nop) Close() error                                    { return nil }

var (
	_ ports.AuditPublisher = (*RabbitPublisher)(nil)
	_ ports.AuditPublisher = Nop{}
)
