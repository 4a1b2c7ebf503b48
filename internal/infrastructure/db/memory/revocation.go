package memory

import (
	"context"
	"sync"
	"time"

	"github.com/influencehub/marketplace/internal/core/ports"
)

var _ ports.TokenRevoker = (*Revoker)(nil)

// Revoker keeps revoked token IDs until they expire. Expired entries are
// pruned on every Revoke.
type Revoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewRevoker() *Revoker {
	return &Revoker{revoked: make(map[string]time.Time), now: time.Now}
}

func (r *Revoker) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, id)
		}
	}
	if expiresAt.After(now) {
		r.revoked[tokenID] = expiresAt
	}
	return nil
}

func (r *Revoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.revoked[tokenID]
	return ok && exp.After(r.now()), nil
}
