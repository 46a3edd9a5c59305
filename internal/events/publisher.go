package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const producerName = "trafficgen"

// AMQPPublisher publishes JSON events to the trafficgen.events topic exchange.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

func (p *AMQPPublisher) PublishOrderCreated(ctx context.Context, correlationID string, orderID, userID int64, total float64, status string, itemCount int) error {
	ev := OrderCreated{
		Envelope:    newEnvelope(OrderCreatedRoutingKey, correlationID),
		OrderID:     orderID,
		UserID:      userID,
		TotalAmount: total,
		Status:      status,
		ItemCount:   itemCount,
	}
	return p.publish(ctx, OrderCreatedRoutingKey, ev)
}

func (p *AMQPPublisher) PublishTaskStarted(ctx context.Context, correlationID, taskID string, durationSeconds int) error {
	ev := TaskStarted{
		Envelope:        newEnvelope(TaskStartedRoutingKey, correlationID),
		TaskID:          taskID,
		DurationSeconds: durationSeconds,
	}
	return p.publish(ctx, TaskStartedRoutingKey, ev)
}

func (p *AMQPPublisher) PublishTaskCompleted(ctx context.Context, correlationID, taskID string, elapsed time.Duration) error {
	ev := TaskCompleted{
		Envelope:  newEnvelope(TaskCompletedRoutingKey, correlationID),
		TaskID:    taskID,
		ElapsedMS: float64(elapsed.Microseconds()) / 1000,
	}
	return p.publish(ctx, TaskCompletedRoutingKey, ev)
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func newEnvelope(name, correlationID string) Envelope {
	return Envelope{
		EventName:     name,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Producer:      producerName,
		OccurredAt:    time.Now().UTC(),
	}
}
