package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

// AccountService implements registration, login and account management for
// the reference backend.
type AccountService struct {
	repo      ports.AccountRepository
	revoker   ports.TokenRevoker
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAccountService(repo ports.AccountRepository, revoker ports.TokenRevoker, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AccountService{repo: repo, revoker: revoker, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

func (s *AccountService) Register(ctx context.Context, reg domain.Registration) (string, *domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if email == "" || reg.Password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}
	role, _ := domain.NormalizeRole(string(reg.Role))
	if !role.Known() {
		return "", nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	account := &domain.Account{
		User: domain.User{
			Email:     email,
			Name:      reg.Name,
			Role:      role,
			CreatedAt: time.Now().UTC(),
		},
		PasswordHash: string(hash),
	}
	switch role {
	case domain.RoleBrand:
		account.BrandName = reg.BrandName
		account.Industry = reg.Industry
		account.Website = reg.Website
	case domain.RoleInfluencer:
		account.Username = reg.Username
		account.Category = reg.Category
		account.Followers = reg.Followers
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(&created.User)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("user_id", string(created.ID)).Str("role", created.Role.String()).Msg("account registered")
	user := created.User
	return token, &user, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(&account.User)
	if err != nil {
		return "", nil, err
	}

	user := account.User
	return token, &user, nil
}

func (s *AccountService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	account, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user := account.User
	return &user, nil
}

func (s *AccountService) UpdatePassword(ctx context.Context, userID string, change domain.PasswordChange) error {
	if change.NewPassword == "" {
		return domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(change.CurrentPassword)) != nil {
		return domain.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(change.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, userID, string(hash))
}

func (s *AccountService) Delete(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("account deleted")
	return nil
}

func (s *AccountService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" || !expiresAt.After(time.Now()) {
		return nil
	}
	return s.revoker.Revoke(ctx, tokenID, expiresAt)
}

func (s *AccountService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   string(user.ID),
		"email": user.Email,
		"role":  user.Role.String(),
		"jti":   uuid.NewString(),
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
