package ports

import (
	"context"

	"github.com/influencehub/marketplace/internal/core/domain"
)

// AccountRepository defines persistence for backend accounts.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// Create assigns the account an ID and returns the stored copy.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}
