package ports

import (
	"context"

	"github.com/influencehub/marketplace/internal/core/domain"
)

// AuthAPI is the slice of the marketplace API the session service depends on.
// Implementations must return *domain.APIError for every failure.
type AuthAPI interface {
	// SetToken attaches (or, with "", detaches) the bearer token used for subsequent calls.
	SetToken(token string)
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error)
	Register(ctx context.Context, reg domain.Registration) (domain.AuthEnvelope, error)
	Profile(ctx context.Context) (domain.AuthEnvelope, error)
	UpdatePassword(ctx context.Context, change domain.PasswordChange) error
	DeleteAccount(ctx context.Context) error
	Logout(ctx context.Context) error
}

// TokenStore persists the single session token slot.
// Load returns "" with a nil error when no token is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
