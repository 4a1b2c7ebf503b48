package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Check
		code   int
		status string
	}{
		{"no dependencies", nil, http.StatusOK, "ok"},
		{"all healthy", map[string]Check{
			"mongodb": func(context.Context) error { return nil },
			"redis":   func(context.Context) error { return nil },
		}, http.StatusOK, "ok"},
		{"one down", map[string]Check{
			"mongodb": func(context.Context) error { return nil },
			"redis":   func(context.Context) error { return errors.New("connection refused") },
		}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

			if err := NewHealthHandler(tt.checks).Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Status != tt.status || len(resp.Dependencies) != len(tt.checks) {
				t.Fatalf("unexpected readiness %+v", resp)
			}
		})
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	if err := NewHealthHandler(nil).Liveness(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("liveness: %d, %v", rec.Code, err)
	}
}
