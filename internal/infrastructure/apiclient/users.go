package apiclient

import (
	"context"
	"net/http"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

const (
	endpointLogin          = "/api/users/login"
	endpointRegister       = "/api/users/register"
	endpointProfile        = "/api/users/profile"
	endpointUpdatePassword = "/api/users/update-password"
	endpointDeleteAccount  = "/api/users/delete-account"
	endpointLogout         = "/api/users/logout"
)

var _ ports.AuthAPI = (*Client)(nil)

// Login posts credentials and decodes the auth response.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
	return c.envelope(ctx, Request{Endpoint: endpointLogin, Method: http.MethodPost, Body: creds})
}

// Register creates an account and decodes the auth response.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.AuthEnvelope, error) {
	return c.envelope(ctx, Request{Endpoint: endpointRegister, Method: http.MethodPost, Body: reg})
}

// Profile fetches the account behind the attached token. A response that names
// no account is reported as an error.
func (c *Client) Profile(ctx context.Context) (domain.AuthEnvelope, error) {
	env, err := c.envelope(ctx, Request{Endpoint: endpointProfile})
	if err != nil {
		return env, err
	}
	if !env.HasIdentity() {
		return domain.AuthEnvelope{}, &domain.APIError{
			Message: "profile response does not identify a user",
			Status:  http.StatusOK,
			Payload: env.Raw,
		}
	}
	return env, nil
}

// UpdatePassword changes the password of the current account.
func (c *Client) UpdatePassword(ctx context.Context, change domain.PasswordChange) error {
	resp, err := c.Execute(ctx, Request{Endpoint: endpointUpdatePassword, Method: http.MethodPut, Body: change})
	return discard(resp, err)
}

// DeleteAccount removes the current account.
func (c *Client) DeleteAccount(ctx context.Context) error {
	resp, err := c.Execute(ctx, Request{Endpoint: endpointDeleteAccount, Method: http.MethodDelete})
	return discard(resp, err)
}

// Logout tells the server the session is over.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.Execute(ctx, Request{Endpoint: endpointLogout, Method: http.MethodPost})
	return discard(resp, err)
}

func (c *Client) envelope(ctx context.Context, req Request) (domain.AuthEnvelope, error) {
	resp, err := c.Execute(ctx, req)
	if err != nil {
		return domain.AuthEnvelope{}, err
	}
	if resp.Raw != nil {
		resp.Raw.Body.Close()
		return domain.AuthEnvelope{}, &domain.APIError{
			Message: "unexpected non-JSON auth response",
			Status:  resp.StatusCode,
		}
	}
	env, err := domain.DecodeAuthEnvelope(resp.JSON)
	if err != nil {
		return domain.AuthEnvelope{}, &domain.APIError{
			Message: "invalid auth response: " + err.Error(),
			Status:  resp.StatusCode,
			Payload: resp.JSON,
			Err:     err,
		}
	}
	return env, nil
}

// discard releases a response whose body the caller does not need.
func discard(resp *Response, err error) error {
	if err != nil {
		return err
	}
	if resp.Raw != nil {
		resp.Raw.Body.Close()
	}
	return nil
}
