// Package tokenstore holds the process-local and file-backed session token stores.
package tokenstore

import (
	"context"
	"sync"

	"github.com/influencehub/marketplace/internal/core/ports"
)

var _ ports.TokenStore = (*Memory)(nil)

// Memory keeps the token for the lifetime of the process.
type Memory struct {
	mu    sync.RWMutex
	token string
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	return m.Save(ctx, "")
}
