package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Persister is the durable storage behind a session's cart.
type Persister interface {
	Load(ctx context.Context, session string) ([]Item, error)
	Save(ctx context.Context, session string, items []Item) error
	Delete(ctx context.Context, session string) error
}

// NopPersister keeps carts in memory only.
type NopPersister struct{}

func (NopPersister) Load(context.Context, string) ([]Item, error) { return nil, nil }
func (NopPersister) Save(context.Context, string, []Item) error   { return nil }
func (NopPersister) Delete(context.Context, string) error         { return nil }

// DefaultTTL is how long an untouched cart survives in Redis.
const DefaultTTL = 7 * 24 * time.Hour

// RedisPersister stores each cart as JSON under cart:<session>.
type RedisPersister struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPersister(client *redis.Client, ttl time.Duration) *RedisPersister {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisPersister{client: client, ttl: ttl}
}

// Load returns the stored items, or nil when the session has no stored cart.
func (r *RedisPersister) Load(ctx context.Context, session string) ([]Item, error) {
	data, err := r.client.Get(ctx, cacheKey(session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return items, nil
}

// Save overwrites the stored cart; an empty cart deletes the key.
func (r *RedisPersister) Save(ctx context.Context, session string, items []Item) error {
	if len(items) == 0 {
		return r.Delete(ctx, session)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, cacheKey(session), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisPersister) Delete(ctx context.Context, session string) error {
	if err := r.client.Del(ctx, cacheKey(session)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(session string) string {
	return fmt.Sprintf("cart:%s", session)
}
