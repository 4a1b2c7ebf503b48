package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// EnvelopeShape records which form the server used for an auth response.
type EnvelopeShape int

const (
	// ShapeWrapped is {"user": {...}, "token": "..."}.
	ShapeWrapped EnvelopeShape = iota + 1
	// ShapeBare is the user object itself, optionally with a top-level token.
	ShapeBare
)

func (s EnvelopeShape) String() string {
	switch s {
	case ShapeWrapped:
		return "wrapped"
	case ShapeBare:
		return "bare"
	default:
		return "unknown"
	}
}

// AuthEnvelope is the decoded response of login, register and profile calls.
type AuthEnvelope struct {
	Shape EnvelopeShape
	// Token is empty when the server did not issue or rotate one.
	Token string
	// User always carries a normalized role.
	User User
	// RoleDefaulted is true when the server omitted the role and DefaultRole was applied.
	RoleDefaulted bool
	// Raw is the undecoded response body.
	Raw json.RawMessage
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the signup request body. Role-specific fields are optional.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name,omitempty"`
	Role      Role   `json:"role"`
	BrandName string `json:"brandName,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Website   string `json:"website,omitempty"`
	Username  string `json:"username,omitempty"`
	Category  string `json:"category,omitempty"`
	Followers int64  `json:"followers,omitempty"`
}

// PasswordChange is the update-password request body.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

var errEmptyEnvelope = errors.New("empty auth response")

// DecodeAuthEnvelope resolves an auth response into one shape. A non-null
// "user" object selects the wrapped form; otherwise the whole body is the user.
func DecodeAuthEnvelope(raw json.RawMessage) (AuthEnvelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return AuthEnvelope{}, errEmptyEnvelope
	}

	var head struct {
		Token string          `json:"token"`
		User  json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(trimmed, &head); err != nil {
		return AuthEnvelope{}, fmt.Errorf("decode auth response: %w", err)
	}

	env := AuthEnvelope{Token: head.Token, Raw: raw}
	userJSON := bytes.TrimSpace(head.User)
	if len(userJSON) > 0 && userJSON[0] == '{' {
		env.Shape = ShapeWrapped
	} else {
		env.Shape = ShapeBare
		userJSON = trimmed
	}

	if err := json.Unmarshal(userJSON, &env.User); err != nil {
		return AuthEnvelope{}, fmt.Errorf("decode user: %w", err)
	}
	env.User.Role, env.RoleDefaulted = NormalizeRole(string(env.User.Role))
	return env, nil
}

// HasIdentity reports whether the envelope resolved an actual account rather
// than, say, a bare {"token": "..."} object.
func (e AuthEnvelope) HasIdentity() bool {
	return e.User.ID != "" || e.User.Email != ""
}
