package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

// UserHandler serves the /api/users endpoints.
type UserHandler struct {
	accounts ports.AccountService
}

func NewUserHandler(accounts ports.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Register creates a new account and signs it in.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/users/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	role, _ := domain.NormalizeRole(req.Role)
	if !role.Known() {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be one of: brand influencer")
	}

	token, user, err := h.accounts.Register(c.Request().Context(), domain.Registration{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Role:      role,
		BrandName: req.BrandName,
		Industry:  req.Industry,
		Website:   req.Website,
		Username:  req.Username,
		Category:  req.Category,
		Followers: req.Followers,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{Token: token, User: user})
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Router       /api/users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// Profile returns the account behind the bearer token.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authResponse
// @Failure      401  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /api/users/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.accounts.Profile(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{User: user})
}

// UpdatePassword changes the caller's password.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updatePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Router       /api/users/update-password [put]
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	change := domain.PasswordChange{CurrentPassword: req.CurrentPassword, NewPassword: req.NewPassword}
	if err := h.accounts.UpdatePassword(c.Request().Context(), id.UserID, change); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// DeleteAccount removes the caller's account and revokes the token used.
//
// @Summary      Delete account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /api/users/delete-account [delete]
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.accounts.Delete(ctx, id.UserID); err != nil {
		return err
	}
	if err := h.accounts.Logout(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "account deleted"})
}

// Logout revokes the bearer token.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  messageResponse
// @Router       /api/users/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.accounts.Logout(c.Request().Context(), id.TokenID, id.ExpiresAt); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}
