package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const lookupVersionKey = "salesadmin:lookup:version"

// LookupCache stores backend lookup responses in Redis. Keys embed a global
// version so a single Bump invalidates every cached lookup.
type LookupCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLookupCache returns a cache; a nil client or non-positive ttl disables caching.
func NewLookupCache(client *redis.Client, ttl time.Duration) *LookupCache {
	return &LookupCache{client: client, ttl: ttl}
}

func (c *LookupCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Version returns the current cache version, initialising it when missing.
func (c *LookupCache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, lookupVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, lookupVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, lookupVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// FetchJSON decodes the cached value for key into dest, or calls loader,
// stores its JSON encoding and decodes that.
func (c *LookupCache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if !c.enabled() {
		return load(ctx, dest, loader, nil)
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return load(ctx, dest, loader, nil)
	}
	versioned := fmt.Sprintf("salesadmin:%s:%d", key, ver)
	payload, err := c.client.Get(ctx, versioned).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return load(ctx, dest, loader, nil)
	}
	return load(ctx, dest, loader, func(raw []byte) {
		_ = c.client.Set(ctx, versioned, raw, c.ttl).Err()
	})
}

// Bump invalidates every cached lookup.
func (c *LookupCache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, lookupVersionKey).Err()
}

func load(ctx context.Context, dest any, loader func(context.Context) (any, error), store func([]byte)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if store != nil {
		store(raw)
	}
	return json.Unmarshal(raw, dest)
}
