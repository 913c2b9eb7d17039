package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu    sync.Mutex
	carts map[string]*Cart
	err   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{carts: make(map[string]*Cart)}
}

func (f *fakeRepo) Get(_ context.Context, sessionID string) (*Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.carts[sessionID]
	if !ok {
		return nil, ErrCartNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) Upsert(_ context.Context, c *Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *c
	f.carts[c.SessionID] = &cp
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, sessionID)
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	carts   map[string]*Cart
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{carts: make(map[string]*Cart)}
}

func (f *fakeCache) Get(_ context.Context, sessionID string) (*Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[sessionID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return c, nil
}

func (f *fakeCache) Set(_ context.Context, sessionID string, c *Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[sessionID] = c
	return nil
}

func (f *fakeCache) Delete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, sessionID)
	f.deletes++
	return nil
}

func TestServiceGet_CacheHit(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	cache.carts["sess-1"] = &Cart{SessionID: "sess-1", Items: []Item{{ProductID: 7, Quantity: 1}}}

	svc := NewService(repo, cache)
	c, err := svc.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.ItemQuantity(7))
}

func TestServiceGet_MissReturnsEmptyCart(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeCache())

	c, err := svc.Get(context.Background(), "sess-new")
	require.NoError(t, err)
	assert.Equal(t, "sess-new", c.SessionID)
	assert.Empty(t, c.Items)
}

func TestServiceGet_FallsThroughToRepo(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["sess-1"] = &Cart{SessionID: "sess-1", Items: []Item{{ProductID: 7, Quantity: 2}}}

	svc := NewService(repo, newFakeCache())
	c, err := svc.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, c.ItemQuantity(7))
}

func TestServiceGet_RepoError(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("mongo down")

	svc := NewService(repo, newFakeCache())
	_, err := svc.Get(context.Background(), "sess-1")
	assert.Error(t, err)
}

func TestServiceAddItem_PersistsAndInvalidates(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	cache.carts["sess-1"] = &Cart{SessionID: "sess-1"}

	svc := NewService(repo, cache)
	c, err := svc.AddItem(context.Background(), "sess-1", Item{ProductID: 3, UnitPrice: 8.00})
	require.NoError(t, err)
	assert.Equal(t, 1, c.ItemQuantity(3))

	cache.mu.Lock()
	defer cache.mu.Unlock()
	assert.Equal(t, 1, cache.deletes)
	_, cached := cache.carts["sess-1"]
	assert.False(t, cached)
}

func TestServiceClear(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["sess-1"] = &Cart{SessionID: "sess-1", Items: []Item{{ProductID: 3, Quantity: 1}}}

	svc := NewService(repo, newFakeCache())
	require.NoError(t, svc.Clear(context.Background(), "sess-1"))

	c, err := svc.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}
