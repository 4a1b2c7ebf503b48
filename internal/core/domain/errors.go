package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusNetworkFailure is the APIError status used when no HTTP response was
// received. It can never collide with a real HTTP status code.
const StatusNetworkFailure = 0

// Client-side sentinel errors, for use with errors.Is.
var (
	// ErrTransport matches any APIError produced by a transport failure.
	ErrTransport = errors.New("transport failure")
	// ErrUnauthorized matches any APIError carrying HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenMissing is returned when a login succeeds but no token was issued.
	ErrTokenMissing = errors.New("server did not issue a session token")
	// ErrSuperseded is returned when a newer session operation already settled
	// the session and this operation's result was discarded.
	ErrSuperseded = errors.New("superseded by a newer session operation")
	// ErrNotAuthenticated is returned by operations that need a signed-in session.
	ErrNotAuthenticated = errors.New("session is not authenticated")
	// ErrAmbiguousBody is returned for a request that sets both a JSON body and a multipart form.
	ErrAmbiguousBody = errors.New("request sets both a JSON body and a multipart form")
)

// Backend sentinel errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrAlreadyApplied     = errors.New("already applied to campaign")
	ErrCampaignClosed     = errors.New("campaign is not accepting applications")
	ErrPasswordMismatch   = errors.New("current password is incorrect")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// APIError is the single error shape produced by the API client, whether the
// failure happened in transport or was reported by the server.
type APIError struct {
	// Message is human readable and safe to display directly.
	Message string
	// Status is the HTTP status, or StatusNetworkFailure.
	Status int
	// Payload is the parsed error body when one was received.
	Payload any
	// Err is the underlying transport error, if any.
	Err error
}

func (e *APIError) Error() string {
	if e.Status == StatusNetworkFailure {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is supports errors.Is(err, ErrTransport) and errors.Is(err, ErrUnauthorized).
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Status == StatusNetworkFailure
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// IsClientError reports a 4xx response.
func (e *APIError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// IsServerError reports a 5xx response.
func (e *APIError) IsServerError() bool {
	return e.Status >= 500
}

// Retryable reports whether a caller may retry with backoff. Client errors never are.
func (e *APIError) Retryable() bool {
	return e.Status == StatusNetworkFailure || e.IsServerError()
}

// AsAPIError unwraps err to an *APIError when it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
