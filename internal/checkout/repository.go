package checkout

import (
	"context"
	"time"
)

// OrderRecord journals one placed order for idempotent resubmission.
type OrderRecord struct {
	ID             string
	SessionID      string
	IdempotencyKey string
	OrderID        int64
	Status         Status
	CartSnapshot   []byte
	Total          float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OutboxEvent is a pending order lifecycle event awaiting publication.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Repository is the durable order journal. Consumers define this
// interface, not the postgres implementation.
type Repository interface {
	// GetOrderByIdempotencyKey returns the journaled order for a key, or
	// ErrIdempotencyKeyNotFound when the key was never used.
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*OrderRecord, error)
	// CreateOrder journals the order and its outbox event in one transaction.
	CreateOrder(ctx context.Context, rec *OrderRecord, event *OutboxEvent) error
	UpdateOrderStatus(ctx context.Context, id string, status Status) error
	AppendEvent(ctx context.Context, event *OutboxEvent) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, id int64) error
	Close() error
}
