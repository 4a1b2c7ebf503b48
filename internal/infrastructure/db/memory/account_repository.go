// Package memory holds process-local repositories for the reference backend.
// They back development runs and tests when no database is configured.
package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

var _ ports.AccountRepository = (*AccountRepository)(nil)

// AccountRepository assigns numeric IDs in creation order.
type AccountRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[string]*domain.Account
	byEmail map[string]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
	}
}

func (r *AccountRepository) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	email := strings.ToLower(strings.TrimSpace(account.Email))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	stored := *account
	stored.ID = domain.UserID(strconv.FormatInt(r.nextID, 10))
	stored.Email = email
	r.byID[string(stored.ID)] = &stored
	r.byEmail[email] = string(stored.ID)

	out := stored
	return &out, nil
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *AccountRepository) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *a
	return &out, nil
}

func (r *AccountRepository) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (r *AccountRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byEmail, a.Email)
	delete(r.byID, id)
	return nil
}
