// Package config loads the reference backend (mockapi) configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	shared "github.com/influencehub/marketplace/internal/pkg/config"
)

// devJWTSecret signs tokens when JWT_SECRET is unset outside production.
const devJWTSecret = "marketplace-dev-secret"

type Config struct {
	Port       string        `env:"PORT,        default=5000"`
	Env        string        `env:"ENV,         default=development"`
	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"TOKEN_TTL,   default=24h"`
	APIVersion string        `env:"API_VERSION"`
	UploadDir  string        `env:"UPLOAD_DIR"`
	LogLevel   string        `env:"LOG_LEVEL,   default=info"`
	LogPretty  bool          `env:"LOG_PRETTY,  default=false"`

	// AccountStore is memory or mongo; RevocationStore is memory or redis.
	AccountStore    string `env:"ACCOUNT_STORE,    default=memory"`
	RevocationStore string `env:"REVOCATION_STORE, default=memory"`

	// Mongo and Redis share their variables with the client configuration.
	Mongo shared.MongoConfig
	Redis shared.RedisConfig
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UsesDevSecret reports whether tokens are signed with the built-in development secret.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("config: JWT_SECRET is required in production")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}

	c.AccountStore = strings.ToLower(strings.TrimSpace(c.AccountStore))
	if c.AccountStore != "memory" && c.AccountStore != "mongo" {
		return fmt.Errorf("config: unknown ACCOUNT_STORE %q", c.AccountStore)
	}
	c.RevocationStore = strings.ToLower(strings.TrimSpace(c.RevocationStore))
	if c.RevocationStore != "memory" && c.RevocationStore != "redis" {
		return fmt.Errorf("config: unknown REVOCATION_STORE %q", c.RevocationStore)
	}

	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(os.TempDir(), "marketplace-uploads")
	}
	return nil
}
