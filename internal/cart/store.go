package cart

import (
	"context"
	"errors"
)

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrCartNotFound = errors.New("cart not found")
)

// Repository defines the durable cart store. Consumers define this
// interface, not the MongoDB implementation.
type Repository interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Upsert(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// Cache is the fast read path in front of the repository.
type Cache interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Set(ctx context.Context, sessionID string, cart *Cart) error
	Delete(ctx context.Context, sessionID string) error
}
