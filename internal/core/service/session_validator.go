package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/ports"
)

// SessionStatus is the outcome of a session check.
type SessionStatus int

const (
	SessionValid SessionStatus = iota
	// SessionSkipped: validation disabled or the token carries no session id.
	SessionSkipped
	SessionRevoked
	// SessionFailOpen: the store failed and the request was allowed through.
	SessionFailOpen
	// SessionFailClosed: the store failed and the request was rejected.
	SessionFailClosed
)

func (s SessionStatus) String() string {
	switch s {
	case SessionValid:
		return "valid"
	case SessionSkipped:
		return "skipped"
	case SessionRevoked:
		return "revoked"
	case SessionFailOpen:
		return "fail_open"
	case SessionFailClosed:
		return "fail_closed"
	}
	return "unknown"
}

// Allowed reports whether the request may continue.
func (s SessionStatus) Allowed() bool {
	return s != SessionRevoked && s != SessionFailClosed
}

// SessionValidatorConfig toggles session checking.
type SessionValidatorConfig struct {
	Enabled    bool
	FailClosed bool
}

// SessionValidator confirms a token's session is still live in the store.
type SessionValidator struct {
	repo  ports.SessionRepository
	cfg   SessionValidatorConfig
	audit ports.AuditSink
	log   zerolog.Logger
	now   func() time.Time
}

// NewSessionValidator wires the validator. audit may be nil.
func NewSessionValidator(repo ports.SessionRepository, cfg SessionValidatorConfig, audit ports.AuditSink, log zerolog.Logger) *SessionValidator {
	return &SessionValidator{repo: repo, cfg: cfg, audit: audit, log: log, now: time.Now}
}

// Check never returns an error: store failures are folded into
// SessionFailOpen or SessionFailClosed depending on configuration, and
// logged exactly once.
func (v *SessionValidator) Check(ctx context.Context, userID int64, sessionID string) SessionStatus {
	if !v.cfg.Enabled || sessionID == "" || v.repo == nil {
		return SessionSkipped
	}

	ctx, span := startSpan(ctx, "session.check", attribute.Int64("user.id", userID))
	defer span.End()

	ok, err := v.repo.Exists(ctx, userID, sessionID, v.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session store unavailable")

		status := SessionFailOpen
		if v.cfg.FailClosed {
			status = SessionFailClosed
		}
		v.log.Error().Err(err).
			Int64("user_id", userID).
			Str("outcome", status.String()).
			Msg("session store unavailable")
		v.publish(userID, status)
		return status
	}
	if !ok {
		return SessionRevoked
	}
	return SessionValid
}

// IsSessionValid is the boolean form of Check.
func (v *SessionValidator) IsSessionValid(ctx context.Context, userID int64, sessionID string) bool {
	return v.Check(ctx, userID, sessionID).Allowed()
}

func (v *SessionValidator) publish(userID int64, status SessionStatus) {
	if v.audit == nil {
		return
	}
	v.audit.Publish(domain.AuditEvent{
		Timestamp: v.now().UTC(),
		ActorID:   userID,
		Action:    domain.AuditSessionStoreFailure,
		Detail:    status.String(),
	})
}
