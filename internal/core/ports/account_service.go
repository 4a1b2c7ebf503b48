package ports

import (
	"context"
	"time"

	"github.com/influencehub/marketplace/internal/core/domain"
)

// AccountService implements the backend side of the user endpoints.
type AccountService interface {
	// Register creates an account and returns a signed token for it.
	Register(ctx context.Context, reg domain.Registration) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID string, change domain.PasswordChange) error
	Delete(ctx context.Context, userID string) error
	// Logout revokes the token identified by tokenID until it would have expired anyway.
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// TokenRevoker tracks tokens that were signed out before their expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
