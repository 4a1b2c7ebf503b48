// Package redis connects to Redis and stores session tokens and revoked token
// ids in it.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/influencehub/marketplace/internal/pkg/config"
)

const defaultTimeout = 5 * time.Second

// Connect opens a client for cfg, named clientName in CLIENT LIST, and pings it.
// cfg.Timeout bounds dialing, every command and the initial ping.
func Connect(ctx context.Context, cfg config.RedisConfig, clientName string) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis connect: REDIS_ADDR is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s/%d: %w", cfg.Addr, cfg.DB, err)
	}
	return client, nil
}
