// Package cache holds the Redis connection used for sessions, drafts and
// backend lookups.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialCheck = 5 * time.Second

// Options selects the Redis server and database.
type Options struct {
	Addr     string
	Password string
	DB       int
	// DialCheck bounds the start-up ping.
	DialCheck time.Duration
}

// New opens a client and fails fast when the server does not answer.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("platform/cache: redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	check := opts.DialCheck
	if check <= 0 {
		check = defaultDialCheck
	}
	ctx, cancel := context.WithTimeout(ctx, check)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s db %d: %w", opts.Addr, opts.DB, err)
	}
	return client, nil
}
