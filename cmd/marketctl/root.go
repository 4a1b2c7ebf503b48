package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
	"github.com/influencehub/marketplace/internal/core/service"
	"github.com/influencehub/marketplace/internal/infrastructure/apiclient"
	mongostore "github.com/influencehub/marketplace/internal/infrastructure/db/mongo"
	redisstore "github.com/influencehub/marketplace/internal/infrastructure/db/redis"
	"github.com/influencehub/marketplace/internal/infrastructure/tokenstore"
	"github.com/influencehub/marketplace/internal/pkg/config"
	"github.com/influencehub/marketplace/pkg/logger"
)

// Build information. Populated at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

// app is the per-invocation wiring shared by every command.
type app struct {
	flags struct {
		baseURL    string
		apiVersion string
		tokenStore string
		tokenFile  string
		logLevel   string
	}

	log     zerolog.Logger
	client  *apiclient.Client
	session *service.SessionService
	closers []func()
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "marketctl",
		Short: "Influencer marketplace client",
		Long: `marketctl signs in to the influencer marketplace and works with
campaigns, collaborations and earnings from the terminal.

The session token is persisted between invocations in the configured token
store (file by default). Environment variables:
  MARKET_API_BASE_URL   API base URL (default http://localhost:5000)
  MARKET_API_VERSION    optional version path segment
  MARKET_TOKEN_STORE    memory, file, redis or mongo
  MARKET_TOKEN_FILE     token file for the file store
  LOG_LEVEL             trace, debug, info, warn, error`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			return a.open(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.baseURL, "base-url", "", "API base URL (overrides MARKET_API_BASE_URL)")
	pf.StringVar(&a.flags.apiVersion, "api-version", "", "API version segment (overrides MARKET_API_VERSION)")
	pf.StringVar(&a.flags.tokenStore, "token-store", "", "token store: memory, file, redis, mongo")
	pf.StringVar(&a.flags.tokenFile, "token-file", "", "token file for the file store")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newLoginCmd(a),
		newSignupCmd(a),
		newLoginTokenCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newPasswdCmd(a),
		newDeleteAccountCmd(a),
		newCampaignsCmd(a),
		newCollaborationsCmd(a),
		newEarningsCmd(a),
		newDashboardCmd(a),
		newUploadCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// execute runs the command tree. Store connections opened for the command
// are closed however it ends; cobra skips post-run hooks after an error.
func execute(ctx context.Context, root *cobra.Command, a *app) error {
	defer a.close()
	return root.ExecuteContext(ctx)
}

// open loads configuration, connects the token store and restores the
// persisted session.
func (a *app) open(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.API.BaseURL = a.flags.baseURL
	}
	if flags.Changed("api-version") {
		cfg.API.Version = a.flags.apiVersion
	}
	if flags.Changed("token-store") {
		cfg.Token.Store = strings.ToLower(a.flags.tokenStore)
	}
	if flags.Changed("token-file") {
		cfg.Token.File = a.flags.tokenFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}

	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: cmd.ErrOrStderr(), Service: "marketctl"})
	a.log = logger.Component("cli")

	store, err := a.openTokenStore(ctx, cfg.Token)
	if err != nil {
		return err
	}

	opts := append(apiclient.FromConfig(cfg.API),
		apiclient.WithLogger(logger.Component("apiclient")),
		apiclient.WithUserAgent("marketctl/"+Version),
	)
	a.client = apiclient.NewClient(opts...)
	a.session = service.NewSessionService(a.client, store, logger.Component("session"))

	if err := a.session.Bootstrap(ctx); err != nil {
		return err
	}
	a.log.Debug().
		Str("token_store", cfg.Token.Store).
		Str("base_url", cfg.API.BaseURL).
		Str("status", string(a.session.Snapshot().Status)).
		Msg("session restored")
	return nil
}

func (a *app) openTokenStore(ctx context.Context, cfg config.TokenConfig) (ports.TokenStore, error) {
	switch cfg.Store {
	case "memory":
		return tokenstore.NewMemory(), nil
	case "file":
		return tokenstore.NewFile(cfg.File), nil
	case "redis":
		rdb, err := redisstore.Connect(ctx, cfg.Redis, "marketctl")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		return redisstore.NewTokenStore(rdb, cfg.Name, cfg.TTL), nil
	case "mongo":
		client, db, err := mongostore.Connect(ctx, cfg.Mongo, "marketctl")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		return mongostore.NewTokenStore(db, cfg.Name), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.Store)
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// requireAuth fails unless the restored session is signed in.
func (a *app) requireAuth() (domain.User, error) {
	snap := a.session.Snapshot()
	if !snap.Authenticated() {
		return domain.User{}, fmt.Errorf("%w: run marketctl login first", domain.ErrNotAuthenticated)
	}
	return *snap.User, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"offline": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "marketctl %s\n", Version)
			fmt.Fprintf(out, "  Commit:     %s\n", Commit)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
		},
	}
}
