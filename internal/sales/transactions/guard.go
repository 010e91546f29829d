package transactions

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard holds a per-draft submit lock in Redis. The TTL releases the
// lock if the holder dies mid-submit.
type RedisGuard struct {
	client *redis.Client
}

// NewRedisGuard constructs a RedisGuard.
func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func submitLockKey(draftID string) string {
	return "salesadmin:draft:" + draftID + ":submit"
}

// Acquire reports whether the lock for draftID was taken.
func (g *RedisGuard) Acquire(ctx context.Context, draftID string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, submitLockKey(draftID), time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
}

// Release drops the lock for draftID.
func (g *RedisGuard) Release(ctx context.Context, draftID string) error {
	return g.client.Del(ctx, submitLockKey(draftID)).Err()
}

// LocalGuard is an in-process Guard for single-process use such as the CLI.
type LocalGuard struct {
	mu       sync.Mutex
	inflight map[string]time.Time
}

// NewLocalGuard constructs a LocalGuard.
func NewLocalGuard() *LocalGuard {
	return &LocalGuard{inflight: make(map[string]time.Time)}
}

// Acquire reports whether the lock for draftID was taken.
func (g *LocalGuard) Acquire(_ context.Context, draftID string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if expires, ok := g.inflight[draftID]; ok && time.Now().Before(expires) {
		return false, nil
	}
	g.inflight[draftID] = time.Now().Add(ttl)
	return true, nil
}

// Release drops the lock for draftID.
func (g *LocalGuard) Release(_ context.Context, draftID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, draftID)
	return nil
}
