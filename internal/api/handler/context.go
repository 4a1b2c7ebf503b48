package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/influencehub/marketplace/internal/api/middleware"
	"github.com/influencehub/marketplace/internal/core/domain"
)

// identity is the caller as described by the Auth middleware claims.
type identity struct {
	UserID    string
	Email     string
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

// ctxIdentity extracts the claims injected by the Auth middleware and
// fails fast when they are absent, which means the route was mounted
// without authentication.
func ctxIdentity(c echo.Context) (identity, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	email, _ := c.Get(middleware.CtxEmail).(string)
	rawRole, _ := c.Get(middleware.CtxRole).(string)
	role, _ := domain.NormalizeRole(rawRole)
	tokenID, _ := c.Get(middleware.CtxTokenID).(string)
	exp, _ := c.Get(middleware.CtxTokenExp).(time.Time)

	return identity{UserID: userID, Email: email, Role: role, TokenID: tokenID, ExpiresAt: exp}, nil
}
