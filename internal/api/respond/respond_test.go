package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

func TestFail_WritesEnvelope(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/x", nil), rec)

	if err := Fail(c, NoToken); err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var env map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if env["success"] != false || env["code"] != "NO_TOKEN" || env["statusCode"] != float64(401) {
		t.Fatalf("unexpected envelope: %v", env)
	}
	if _, ok := env["timestamp"].(string); !ok {
		t.Fatalf("missing timestamp: %v", env)
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrNoToken, "NO_TOKEN"},
		{domain.ErrInvalidToken, "INVALID_TOKEN"},
		{domain.ErrSessionExpired, "SESSION_EXPIRED"},
		{domain.ErrUserNotFound, "USER_NOT_FOUND"},
		{domain.ErrForbidden, "FORBIDDEN"},
		{domain.ErrRoleNotPermitted, "FORBIDDEN"},
		{fmt.Errorf("%w: %w", domain.ErrUserStoreUnavailable, errors.New("db down")), "AUTH_ERROR"},
		{domain.ErrInvalidCredentials, "INVALID_CREDENTIALS"},
		{&ValidationError{Fields: map[string]string{"email": "email is required"}}, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		p, ok := FromError(tt.err)
		if !ok || p.Code != tt.want {
			t.Errorf("FromError(%v) = %+v, %v; want %s", tt.err, p, ok, tt.want)
		}
	}

	if _, ok := FromError(errors.New("boom")); ok {
		t.Errorf("unexpected mapping for unknown error")
	}
}

func TestIsAPIRequest(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		want   bool
	}{
		{"api path", "/api/me", "text/html", true},
		{"json accept", "/dashboard", "application/json", true},
		{"browser", "/dashboard", "text/html,application/xhtml+xml", false},
		{"no accept header", "/auth/login", "", true},
		{"curl default", "/auth/login", "*/*", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			if got := IsAPIRequest(r); got != tt.want {
				t.Fatalf("IsAPIRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}
