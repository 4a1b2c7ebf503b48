package domain

import (
	"encoding/json"
	"testing"
)

func TestDecodeAuthEnvelope_Wrapped(t *testing.T) {
	env, err := DecodeAuthEnvelope(json.RawMessage(`{"token":"abc","user":{"id":1,"email":"a@b.com"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Shape != ShapeWrapped {
		t.Fatalf("expected wrapped shape, got %s", env.Shape)
	}
	if env.Token != "abc" {
		t.Fatalf("expected token abc, got %q", env.Token)
	}
	if env.User.ID != "1" || env.User.Email != "a@b.com" {
		t.Fatalf("unexpected user: %+v", env.User)
	}
	if env.User.Role != RoleInfluencer || !env.RoleDefaulted {
		t.Fatalf("expected defaulted influencer role, got %q (defaulted=%v)", env.User.Role, env.RoleDefaulted)
	}
}

func TestDecodeAuthEnvelope_Bare(t *testing.T) {
	env, err := DecodeAuthEnvelope(json.RawMessage(`{"id":"u1","email":"b@c.com","role":" Brand ","brandName":"Acme","token":"t1"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Shape != ShapeBare {
		t.Fatalf("expected bare shape, got %s", env.Shape)
	}
	if env.Token != "t1" {
		t.Fatalf("expected top-level token in bare shape, got %q", env.Token)
	}
	if env.User.Role != RoleBrand || env.RoleDefaulted {
		t.Fatalf("expected normalized brand role, got %q (defaulted=%v)", env.User.Role, env.RoleDefaulted)
	}
	if env.User.BrandName != "Acme" {
		t.Fatalf("expected brand fields, got %+v", env.User)
	}
}

func TestDecodeAuthEnvelope_NullUserFallsBackToBare(t *testing.T) {
	env, err := DecodeAuthEnvelope(json.RawMessage(`{"user":null,"id":7,"email":"n@x.io","role":"influencer"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Shape != ShapeBare || env.User.ID != "7" {
		t.Fatalf("expected bare user with id 7, got %s %+v", env.Shape, env.User)
	}
}

func TestDecodeAuthEnvelope_TokenOnly(t *testing.T) {
	env, err := DecodeAuthEnvelope(json.RawMessage(`{"token":"only"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.HasIdentity() {
		t.Fatalf("token-only body must not resolve an identity: %+v", env.User)
	}
	if env.Token != "only" {
		t.Fatalf("expected token, got %q", env.Token)
	}
}

func TestDecodeAuthEnvelope_Invalid(t *testing.T) {
	for _, body := range []string{"", "null", "   ", `[1,2]`, `{"user":{"id":true}}`} {
		if _, err := DecodeAuthEnvelope(json.RawMessage(body)); err == nil {
			t.Fatalf("expected error for body %q", body)
		}
	}
}
