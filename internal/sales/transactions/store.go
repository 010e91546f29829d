package transactions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DraftStore keeps the in-progress draft of each operator session.
type DraftStore interface {
	Load(ctx context.Context, owner string) (OrderDraft, bool, error)
	Save(ctx context.Context, owner string, d OrderDraft) error
	Delete(ctx context.Context, owner string) error
}

// RedisDraftStore stores drafts as JSON with a sliding TTL. Drafts are
// session scratch state; they expire with the session and are deleted on
// submit or cancel.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore constructs the store.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl}
}

func draftKey(owner string) string {
	return "salesadmin:draft:" + owner
}

// Load returns the stored draft for owner.
func (s *RedisDraftStore) Load(ctx context.Context, owner string) (OrderDraft, bool, error) {
	payload, err := s.client.Get(ctx, draftKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return OrderDraft{}, false, nil
	}
	if err != nil {
		return OrderDraft{}, false, fmt.Errorf("load draft: %w", err)
	}
	var d OrderDraft
	if err := json.Unmarshal(payload, &d); err != nil {
		return OrderDraft{}, false, fmt.Errorf("decode draft: %w", err)
	}
	return d.Normalize(), true, nil
}

// Save stores d for owner.
func (s *RedisDraftStore) Save(ctx context.Context, owner string, d OrderDraft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(owner), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Delete discards the draft for owner.
func (s *RedisDraftStore) Delete(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, draftKey(owner)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
