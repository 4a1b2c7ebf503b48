package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/influencehub/marketplace/internal/core/ports"
)

var _ ports.TokenRevoker = (*Revoker)(nil)

// Revoker records signed-out token IDs until their natural expiry.
// Key format: revoked:<jti>
type Revoker struct {
	client redis.Cmdable
}

// NewRevoker creates a Revoker wrapping the given Redis client.
func NewRevoker(client redis.Cmdable) *Revoker {
	return &Revoker{client: client}
}

// Revoke marks tokenID as revoked. The key expires together with the token.
func (r *Revoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was signed out.
func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (r *Revoker) key(tokenID string) string {
	return "revoked:" + tokenID
}
