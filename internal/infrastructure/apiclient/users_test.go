package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/influencehub/marketplace/internal/core/domain"
)

func TestLogin_WrappedEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var creds domain.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if creds.Email != "b@x.io" || creds.Password != "pw" {
			t.Fatalf("unexpected credentials %+v", creds)
		}
		writeJSON(w, http.StatusOK, `{"user":{"id":1,"email":"b@x.io","role":"brand"},"token":"T1"}`)
	})

	env, err := c.Login(context.Background(), domain.Credentials{Email: "b@x.io", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Shape != domain.ShapeWrapped || env.Token != "T1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.User.ID != "1" || env.User.Role != domain.RoleBrand {
		t.Fatalf("unexpected user %+v", env.User)
	}
}

func TestRegister_BareEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/register" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusCreated, `{"_id":"64f0","email":"i@x.io","token":"T2"}`)
	})

	env, err := c.Register(context.Background(), domain.Registration{Email: "i@x.io", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Shape != domain.ShapeBare || env.Token != "T2" || env.User.ID != "64f0" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.User.Role != domain.RoleInfluencer || !env.RoleDefaulted {
		t.Fatalf("expected defaulted influencer role, got %+v", env)
	}
}

func TestLogin_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	})

	_, err := c.Login(context.Background(), domain.Credentials{Email: "x", Password: "bad"})
	apiErr, ok := domain.AsAPIError(err)
	if !ok || apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Invalid credentials" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestProfile_RequiresIdentity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T" {
			t.Fatalf("expected bearer header")
		}
		writeJSON(w, http.StatusOK, `{"token":"T"}`)
	}, WithToken("T"))

	if _, err := c.Profile(context.Background()); err == nil {
		t.Fatalf("expected an error for a profile without identity")
	}
}

func TestProfile_NullBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `null`)
	})

	_, err := c.Profile(context.Background())
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusOK {
		t.Fatalf("expected APIError for null profile, got %v", err)
	}
}

func TestPassThroughOperations(t *testing.T) {
	seen := map[string]string{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen[r.URL.Path] = r.Method
		if r.URL.Path == "/api/users/update-password" {
			var change domain.PasswordChange
			if err := json.NewDecoder(r.Body).Decode(&change); err != nil || change.NewPassword != "new" {
				t.Fatalf("unexpected password change %+v, err %v", change, err)
			}
		}
		writeJSON(w, http.StatusOK, `{"message":"ok"}`)
	}, WithToken("T"))

	ctx := context.Background()
	if err := c.UpdatePassword(ctx, domain.PasswordChange{CurrentPassword: "old", NewPassword: "new"}); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if err := c.DeleteAccount(ctx); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	want := map[string]string{
		"/api/users/update-password": http.MethodPut,
		"/api/users/delete-account":  http.MethodDelete,
		"/api/users/logout":          http.MethodPost,
	}
	for path, method := range want {
		if seen[path] != method {
			t.Fatalf("expected %s %s, saw %q", method, path, seen[path])
		}
	}
}
