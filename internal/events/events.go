// Package events publishes domain events to a RabbitMQ topic exchange so
// downstream agents have a message stream to observe. When no broker is
// configured the service runs with a NopPublisher.
package events

import (
	"context"
	"time"
)

const (
	EventsExchange = "trafficgen.events"

	OrderCreatedRoutingKey  = "order.created"
	TaskStartedRoutingKey   = "task.started"
	TaskCompletedRoutingKey = "task.completed"
)

// Envelope is the common header carried by every published event.
type Envelope struct {
	EventName     string    `json:"event_name"`
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type OrderCreated struct {
	Envelope
	OrderID     int64   `json:"order_id"`
	UserID      int64   `json:"user_id"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
	ItemCount   int     `json:"item_count"`
}

type TaskStarted struct {
	Envelope
	TaskID          string `json:"task_id"`
	DurationSeconds int    `json:"duration_seconds"`
}

type TaskCompleted struct {
	Envelope
	TaskID    string  `json:"task_id"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

// Publisher emits domain events. Implementations must be safe for concurrent
// use by handlers and background workers.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, correlationID string, orderID, userID int64, total float64, status string, itemCount int) error
	PublishTaskStarted(ctx context.Context, correlationID, taskID string, durationSeconds int) error
	PublishTaskCompleted(ctx context.Context, correlationID, taskID string, elapsed time.Duration) error
	Close() error
}

// NopPublisher drops every event. It stands in when RABBITMQ_URL is unset.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, string, int64, int64, float64, string, int) error {
	return nil
}

func (NopPublisher) PublishTaskStarted(context.Context, string, string, int) error { return nil }

func (NopPublisher) PublishTaskCompleted(context.Context, string, string, time.Duration) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
