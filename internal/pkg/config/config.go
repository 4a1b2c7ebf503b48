package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DefaultBaseURL is used when MARKET_API_BASE_URL is not set.
const DefaultBaseURL = "http://localhost:5000"

// Config is the client-side configuration shared by marketctl and any other
// consumer of the session service.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=true"`

	API   APIConfig
	Token TokenConfig
}

// APIConfig locates the marketplace API.
type APIConfig struct {
	BaseURL   string        `env:"MARKET_API_BASE_URL,    default=http://localhost:5000"`
	Version   string        `env:"MARKET_API_VERSION"`
	Timeout   time.Duration `env:"MARKET_REQUEST_TIMEOUT, default=30s"`
	RateLimit float64       `env:"MARKET_RATE_LIMIT,      default=0"`
	RateBurst int           `env:"MARKET_RATE_BURST,      default=1"`
}

// TokenConfig selects where the session token is persisted.
type TokenConfig struct {
	// Store is one of memory, file, redis, mongo.
	Store string        `env:"MARKET_TOKEN_STORE, default=file"`
	File  string        `env:"MARKET_TOKEN_FILE"`
	Name  string        `env:"MARKET_TOKEN_NAME,  default=default"`
	TTL   time.Duration `env:"MARKET_TOKEN_TTL,   default=0s"`

	Mongo MongoConfig
	Redis RedisConfig
}

// MongoConfig locates the MongoDB deployment. marketctl keeps its token there;
// mockapi keeps accounts and campaigns there.
type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=marketplace"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

// RedisConfig locates the Redis server. marketctl keeps its token there;
// mockapi keeps revoked token ids there.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,  default=5s"`
}

var tokenStores = map[string]bool{"memory": true, "file": true, "redis": true, "mongo": true}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.API.BaseURL = strings.TrimSpace(c.API.BaseURL)
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.RateBurst < 1 {
		c.API.RateBurst = 1
	}

	c.Token.Store = strings.ToLower(strings.TrimSpace(c.Token.Store))
	if !tokenStores[c.Token.Store] {
		return fmt.Errorf("config: unknown MARKET_TOKEN_STORE %q", c.Token.Store)
	}
	if c.Token.File == "" {
		c.Token.File = defaultTokenFile()
	}
	return nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "marketctl", "token")
}
