package cart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_Get(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	c := &Cart{
		SessionID: "sess-123",
		Items: []Item{
			{ProductID: 1, Quantity: 2, UnitPrice: 9.99},
			{ProductID: 2, Quantity: 3, UnitPrice: 4.50},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey("sess-123"), string(data)))

	got, err := cache.Get(ctx, "sess-123")
	require.NoError(t, err)
	assert.Equal(t, "sess-123", got.SessionID)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, int64(1), got.Items[0].ProductID)
}

func TestRedisCache_GetMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	got, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestRedisCache_GetInvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey("sess-123"), "{not json"))

	_, err := cache.Get(context.Background(), "sess-123")
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestRedisCache_Set(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	c := &Cart{
		SessionID: "sess-456",
		Items:     []Item{{ProductID: 10, Quantity: 5, UnitPrice: 2.00}},
	}
	require.NoError(t, cache.Set(ctx, "sess-456", c))

	stored, err := mr.Get(cacheKey("sess-456"))
	require.NoError(t, err)

	var got Cart
	require.NoError(t, json.Unmarshal([]byte(stored), &got))
	assert.Equal(t, "sess-456", got.SessionID)
	assert.Len(t, got.Items, 1)

	// TTL is base plus jitter.
	ttl := mr.TTL(cacheKey("sess-456"))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.LessOrEqual(t, ttl, 20*time.Minute)
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(cacheKey("sess-789"), "{}"))
	require.True(t, mr.Exists(cacheKey("sess-789")))

	require.NoError(t, cache.Delete(ctx, "sess-789"))
	assert.False(t, mr.Exists(cacheKey("sess-789")))
}

func TestRedisCache_DeleteNonExistent(t *testing.T) {
	cache, _ := setupTestRedis(t)
	assert.NoError(t, cache.Delete(context.Background(), "nonexistent"))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "cart:abc", cacheKey("abc"))
}
