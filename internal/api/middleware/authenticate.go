package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/api/metrics"
	"github.com/officehub/gatekeeper/internal/api/respond"
	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/service"
)

// TokenVerifier extracts and verifies bearer tokens.
type TokenVerifier interface {
	Extract(r *http.Request) (string, bool)
	Verify(raw string) (*domain.TokenClaims, error)
}

// SessionChecker reports whether a token's session is still live.
type SessionChecker interface {
	Check(ctx context.Context, userID int64, sessionID string) service.SessionStatus
}

// IdentityLoader builds the request identity from verified claims.
type IdentityLoader interface {
	Load(ctx context.Context, claims *domain.TokenClaims) (*domain.Identity, error)
}

// Authenticator runs token verification, the session check and the user
// lookup as one stage and attaches the resulting identity to the request.
type Authenticator struct {
	tokens   TokenVerifier
	sessions SessionChecker
	users    IdentityLoader
	loginURL string
	log      zerolog.Logger
}

// NewAuthenticator wires the stage. Browser requests rejected for a missing
// or stale credential are redirected to loginURL.
func NewAuthenticator(tokens TokenVerifier, sessions SessionChecker, users IdentityLoader, loginURL string, log zerolog.Logger) *Authenticator {
	if loginURL == "" {
		loginURL = "/login"
	}
	return &Authenticator{tokens: tokens, sessions: sessions, users: users, loginURL: loginURL, log: log}
}

func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			raw, ok := a.tokens.Extract(req)
			if !ok {
				return a.reject(c, respond.NoToken)
			}

			claims, err := a.tokens.Verify(raw)
			if err != nil {
				return a.reject(c, respond.InvalidToken)
			}
			metrics.TokensVerifiedTotal.WithLabelValues(string(claims.Schema)).Inc()

			status := a.sessions.Check(req.Context(), claims.SubjectID, claims.SessionID)
			switch status {
			case service.SessionFailOpen, service.SessionFailClosed:
				metrics.SessionStoreFailuresTotal.WithLabelValues(status.String()).Inc()
			}
			if !status.Allowed() {
				return a.reject(c, respond.SessionExpired)
			}

			start := time.Now()
			id, err := a.users.Load(req.Context(), claims)
			switch {
			case err == nil:
				metrics.UserLookupDuration.WithLabelValues("found").Observe(time.Since(start).Seconds())
			case errors.Is(err, domain.ErrUserNotFound):
				metrics.UserLookupDuration.WithLabelValues("not_found").Observe(time.Since(start).Seconds())
				return a.reject(c, respond.UserNotFound)
			default:
				metrics.UserLookupDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
				a.log.Error().Err(err).
					Str("request_id", requestID(c)).
					Str("path", req.URL.Path).
					Msg("authentication failed")
				return a.reject(c, respond.AuthError)
			}

			setIdentity(c, id)
			metrics.AuthDecisionsTotal.WithLabelValues("authenticate", "allow").Inc()
			return next(c)
		}
	}
}

func (a *Authenticator) reject(c echo.Context, p respond.Problem) error {
	metrics.AuthDecisionsTotal.WithLabelValues("authenticate", p.Code).Inc()

	switch p.Code {
	case respond.NoToken.Code, respond.InvalidToken.Code, respond.SessionExpired.Code:
		if !respond.IsAPIRequest(c.Request()) {
			return c.Redirect(http.StatusSeeOther, a.loginURL)
		}
	}
	return respond.Fail(c, p)
}
