package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Role is the account category that decides which marketplace surface a user sees.
type Role string

const (
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
)

// DefaultRole is applied when the server omits the role entirely.
const DefaultRole = RoleInfluencer

// NormalizeRole lowercases and trims raw. A blank value yields DefaultRole and
// defaulted=true so callers can report the data-quality issue.
func NormalizeRole(raw string) (role Role, defaulted bool) {
	r := strings.ToLower(strings.TrimSpace(raw))
	if r == "" {
		return DefaultRole, true
	}
	return Role(r), false
}

// Known reports whether r is one of the roles the marketplace understands.
func (r Role) Known() bool {
	return r == RoleBrand || r == RoleInfluencer
}

func (r Role) String() string { return string(r) }

// UserID accepts both JSON strings and numbers, since backends disagree.
type UserID string

func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = UserID(n.String())
	return nil
}

// Int returns the numeric form of the id when it has one.
func (id UserID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

// User is the identity resolved for the current session.
// Brand accounts fill BrandName/Industry/Website; influencer accounts fill
// Username/Category/Followers.
type User struct {
	ID        UserID    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	BrandName string    `json:"brandName,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	Website   string    `json:"website,omitempty"`
	Username  string    `json:"username,omitempty"`
	Category  string    `json:"category,omitempty"`
	Followers int64     `json:"followers,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// UnmarshalJSON also accepts a mongo-style "_id" when "id" is absent.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	aux := struct {
		*plain
		MongoID UserID `json:"_id"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// DisplayName picks the most specific human-facing name for the account.
func (u User) DisplayName() string {
	switch {
	case u.Role == RoleBrand && u.BrandName != "":
		return u.BrandName
	case u.Username != "":
		return u.Username
	case u.Name != "":
		return u.Name
	default:
		return u.Email
	}
}
