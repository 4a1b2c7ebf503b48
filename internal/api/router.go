// Package api is the reference marketplace backend: the HTTP surface the
// session client talks to.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/influencehub/marketplace/internal/api/docs"
	"github.com/influencehub/marketplace/internal/api/handler"
	"github.com/influencehub/marketplace/internal/api/middleware"
	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

// uploadsPath is where stored uploads are served from.
const uploadsPath = "/uploads"

// Deps carries everything the router wires into handlers.
type Deps struct {
	Accounts  ports.AccountService
	Campaigns ports.CampaignService
	Revoker   ports.TokenRevoker
	JWTSecret string
	UploadDir string
	Logger    zerolog.Logger

	// Version mounts the API routes under /<Version> when set.
	Version string

	// Checks are run by the readiness probe, keyed by dependency name.
	Checks map[string]handler.Check

	// Registry receives the HTTP metrics and backs /metrics. A fresh
	// registry is used when nil.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "mockapi",
		Registerer: registry,
	}))

	// --- Dependencies ---
	userHandler := handler.NewUserHandler(deps.Accounts)
	campaignHandler := handler.NewCampaignHandler(deps.Campaigns, deps.Accounts)
	uploadHandler := handler.NewUploadHandler(deps.UploadDir, versionPrefix(deps.Version)+uploadsPath, deps.Logger)
	healthHandler := handler.NewHealthHandler(deps.Checks)
	authMiddleware := middleware.Auth(deps.JWTSecret, deps.Revoker)
	brandsOnly := middleware.RBAC(domain.RoleBrand)
	influencersOnly := middleware.RBAC(domain.RoleInfluencer)

	root := e.Group(versionPrefix(deps.Version))
	apiGroup := root.Group("/api")

	// --- User routes ---
	users := apiGroup.Group("/users")
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)
	users.GET("/profile", userHandler.Profile, authMiddleware)
	users.PUT("/update-password", userHandler.UpdatePassword, authMiddleware)
	users.DELETE("/delete-account", userHandler.DeleteAccount, authMiddleware)
	users.POST("/logout", userHandler.Logout, authMiddleware)

	// --- Marketplace routes ---
	market := apiGroup.Group("", authMiddleware)
	market.GET("/campaigns", campaignHandler.List)
	market.POST("/campaigns", campaignHandler.Create, brandsOnly)
	market.GET("/campaigns/:id", campaignHandler.Get)
	market.POST("/campaigns/:id/apply", campaignHandler.Apply, influencersOnly)
	market.GET("/collaborations", campaignHandler.Collaborations)
	market.GET("/earnings", campaignHandler.Earnings, influencersOnly)
	market.GET("/dashboard", campaignHandler.Dashboard)
	market.POST("/upload", uploadHandler.Upload, echomiddleware.BodyLimit("12M"))
	if deps.UploadDir != "" {
		root.Static(uploadsPath, deps.UploadDir)
	}

	// --- Health probes and tooling (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: registry}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func versionPrefix(version string) string {
	v := strings.Trim(version, "/")
	if v == "" {
		return ""
	}
	return "/" + v
}

// requestLogger logs one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency.Round(time.Microsecond)).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
