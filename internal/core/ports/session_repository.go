package ports

import (
	"context"
	"time"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

// SessionRepository persists server-side sessions.
type SessionRepository interface {
	// Exists reports whether a session (userID, sessionID) exists and has not
	// expired at now. Infrastructure failures are returned as errors.
	Exists(ctx context.Context, userID int64, sessionID string, now time.Time) (bool, error)
	Create(ctx context.Context, s domain.SessionRecord) error
	Revoke(ctx context.Context, userID int64, sessionID string) error
}
