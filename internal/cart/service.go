package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo  Repository
	cache Cache
	sfg   singleflight.Group // Prevents cache stampede on hot carts
}

func NewService(repo Repository, cache Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// Get returns the cart for a session, reading through the cache. A missing
// cart comes back as an empty one rather than an error.
func (s *Service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		c, err = s.repo.Get(ctx, sessionID)
		if errors.Is(err, ErrCartNotFound) {
			return New(sessionID), nil
		}
		if err != nil {
			return nil, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(ctx, sessionID, c); err != nil {
				log.Printf("cache set error: %v", err)
			}
		}()

		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Cart), nil
}

// AddItem adds one unit of a product, inserting the line when absent.
func (s *Service) AddItem(ctx context.Context, sessionID string, item Item) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) {
		c.Increase(item)
	})
}

func (s *Service) DecreaseItem(ctx context.Context, sessionID string, productID int64) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) {
		c.Decrease(productID)
	})
}

func (s *Service) RemoveItem(ctx context.Context, sessionID string, productID int64) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) {
		c.Remove(productID)
	})
}

func (s *Service) ReplaceItems(ctx context.Context, sessionID string, items []Item) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) {
		c.Replace(items)
	})
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		log.Printf("repo delete cart error: %v", err)
		return err
	}
	s.invalidate(sessionID)
	return nil
}

func (s *Service) mutate(ctx context.Context, sessionID string, fn func(*Cart)) (*Cart, error) {
	c, err := s.repo.Get(ctx, sessionID)
	if errors.Is(err, ErrCartNotFound) {
		c = New(sessionID)
	} else if err != nil {
		return nil, err
	}

	fn(c)

	if err := s.repo.Upsert(ctx, c); err != nil {
		log.Printf("repo upsert cart error: %v", err)
		return nil, err
	}
	s.invalidate(sessionID)
	return c, nil
}

func (s *Service) invalidate(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
