package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/influencehub/marketplace/internal/core/ports"
)

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore keeps the session token under session:token:<name>.
// A positive TTL makes Redis expire the token; zero keeps it until cleared.
type TokenStore struct {
	client redis.Cmdable
	name   string
	ttl    time.Duration
}

// NewTokenStore creates a TokenStore for the named session slot.
func NewTokenStore(client redis.Cmdable, name string, ttl time.Duration) *TokenStore {
	if name == "" {
		name = "default"
	}
	return &TokenStore{client: client, name: name, ttl: ttl}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	tok, err := s.client.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return tok, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}
	if err := s.client.Set(ctx, s.key(), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func (s *TokenStore) key() string {
	return "session:token:" + s.name
}
