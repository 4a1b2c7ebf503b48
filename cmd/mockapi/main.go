// Command mockapi runs the reference marketplace backend.
//
// @title                       Influencer Marketplace API
// @version                     1.0
// @description                 Reference backend for the marketplace session client.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/influencehub/marketplace/internal/api"
	"github.com/influencehub/marketplace/internal/api/handler"
	"github.com/influencehub/marketplace/internal/core/ports"
	"github.com/influencehub/marketplace/internal/core/service"
	"github.com/influencehub/marketplace/internal/infrastructure/config"
	"github.com/influencehub/marketplace/internal/infrastructure/db/memory"
	mongostore "github.com/influencehub/marketplace/internal/infrastructure/db/mongo"
	redisstore "github.com/influencehub/marketplace/internal/infrastructure/db/redis"
	"github.com/influencehub/marketplace/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "mockapi:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "mockapi"})
	if cfg.UsesDevSecret() {
		log.Warn().Msg("JWT_SECRET not set, signing tokens with the development secret")
	}

	stores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	accounts := service.NewAccountService(stores.accounts, stores.revoker, cfg.JWTSecret, cfg.TokenTTL, logger.Component("accounts"))
	campaigns := service.NewCampaignService(stores.campaigns, logger.Component("campaigns"))

	e := api.NewRouter(api.Deps{
		Accounts:  accounts,
		Campaigns: campaigns,
		Revoker:   stores.revoker,
		JWTSecret: cfg.JWTSecret,
		UploadDir: cfg.UploadDir,
		Logger:    logger.Component("http"),
		Version:   cfg.APIVersion,
		Checks:    stores.checks,
		Registry:  registry,
	})
	e.Server.ReadHeaderTimeout = 10 * time.Second

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("accounts", cfg.AccountStore).
			Str("revocations", cfg.RevocationStore).
			Msg("mockapi listening")
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// stores holds the storage selected by configuration.
type stores struct {
	accounts  ports.AccountRepository
	campaigns ports.CampaignRepository
	revoker   ports.TokenRevoker
	checks    map[string]handler.Check
	closers   []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	s := &stores{checks: make(map[string]handler.Check)}

	switch cfg.AccountStore {
	case "mongo":
		client, db, err := mongostore.Connect(ctx, cfg.Mongo, "mockapi")
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Disconnect(context.Background()) })

		accounts := mongostore.NewAccountRepository(db)
		campaigns := mongostore.NewCampaignRepository(db)
		if err := accounts.EnsureIndexes(ctx); err != nil {
			s.close()
			return nil, err
		}
		if err := campaigns.EnsureIndexes(ctx); err != nil {
			s.close()
			return nil, err
		}
		s.accounts, s.campaigns = accounts, campaigns
		s.checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		log.Info().Str("database", cfg.Mongo.Database).Msg("using mongo storage")
	default:
		s.accounts = memory.NewAccountRepository()
		s.campaigns = memory.NewCampaignRepository()
	}

	switch cfg.RevocationStore {
	case "redis":
		rdb, err := redisstore.Connect(ctx, cfg.Redis, "mockapi")
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		s.revoker = redisstore.NewRevoker(rdb)
		s.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis token revocation")
	default:
		s.revoker = memory.NewRevoker()
	}

	return s, nil
}
