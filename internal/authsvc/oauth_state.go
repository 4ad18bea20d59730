package authsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore persists one-time OAuth CSRF state tokens. Grounded on
// pkg/auth's OAuthStorage.StoreState/ConsumeState contract, backed by
// Redis (SETNX + TTL) instead of the teacher's storage-agnostic interface
// since state tokens are inherently short-lived, high-churn data that does
// not belong in Postgres.
type StateStore struct {
	client redis.UniversalClient
	prefix string
}

func NewStateStore(client redis.UniversalClient) *StateStore {
	return &StateStore{client: client, prefix: "oauth:state:"}
}

func (s *StateStore) key(state string) string { return s.prefix + state }

// Store records a freshly minted state token with its own expiry.
func (s *StateStore) Store(ctx context.Context, state string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, s.key(state), "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("authsvc: store oauth state: %w", err)
	}
	if !ok {
		return fmt.Errorf("authsvc: oauth state collision")
	}
	return nil
}

// Consume atomically checks for and deletes a state token, returning false
// if it was never issued or was already consumed — preventing replay.
func (s *StateStore) Consume(ctx context.Context, state string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(state)).Result()
	if err != nil {
		return false, fmt.Errorf("authsvc: consume oauth state: %w", err)
	}
	return n > 0, nil
}
