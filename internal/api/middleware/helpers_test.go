package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/service"
)

type sessionFunc func(ctx context.Context, userID int64, sessionID string) service.SessionStatus

func (f sessionFunc) Check(ctx context.Context, userID int64, sessionID string) service.SessionStatus {
	return f(ctx, userID, sessionID)
}

type loaderFunc func(ctx context.Context, claims *domain.TokenClaims) (*domain.Identity, error)

func (f loaderFunc) Load(ctx context.Context, claims *domain.TokenClaims) (*domain.Identity, error) {
	return f(ctx, claims)
}

func validSessions() SessionChecker {
	return sessionFunc(func(context.Context, int64, string) service.SessionStatus { return service.SessionValid })
}

// loaderFromClaims trusts the claims; used where the user store is not under test.
func loaderFromClaims() IdentityLoader {
	return loaderFunc(func(_ context.Context, c *domain.TokenClaims) (*domain.Identity, error) {
		rec := &domain.UserRecord{ID: c.SubjectID, TenantID: c.TenantID, Role: c.Role, IsActive: true}
		return service.BuildIdentity(rec, c), nil
	})
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *recordingSink) Publish(ev domain.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func newCodec() *service.TokenCodec {
	return service.NewTokenCodec(service.TokenCodecConfig{AccessSecret: "test-secret"}, zerolog.Nop())
}

func issue(t *testing.T, codec *service.TokenCodec, claims domain.TokenClaims) string {
	t.Helper()
	tok, _, err := codec.Issue(claims)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func withIdentity(c echo.Context, id *domain.Identity) {
	setIdentity(c, id)
}

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
