package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore persists the checkout aggregate between requests, keyed by
// session id, so a checkout survives page reloads.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*Data, error)
	Save(ctx context.Context, sessionID string, d *Data) error
	Delete(ctx context.Context, sessionID string) error
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		ttl:    7 * 24 * time.Hour,
	}
}

// RedisSessionStore stores aggregates as JSON under checkout:<session>.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (*Data, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("unmarshal checkout failed: %w", err)
	}
	return &d, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, d *Data) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal checkout failed: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("checkout:%s", sessionID)
}
