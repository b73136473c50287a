package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

const sessionExistsQuery = `SELECT EXISTS (
	SELECT 1 FROM user_sessions
	WHERE user_id = $1 AND session_id = $2 AND expires_at > $3
)`

const insertSessionQuery = `INSERT INTO user_sessions
	(session_id, user_id, tenant_id, user_agent, ip, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const deleteSessionQuery = `DELETE FROM user_sessions WHERE user_id = $1 AND session_id = $2`

const uniqueViolation = "23505"

var ErrSessionExists = errors.New("session already exists")

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Exists(ctx context.Context, userID int64, sessionID string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var exists bool
	if err := r.db.QueryRowContext(ctx, sessionExistsQuery, userID, sessionID, now.UTC()).Scan(&exists); err != nil {
		return false, fmt.Errorf("session exists: %w", err)
	}
	return exists, nil
}

func (r *SessionRepository) Create(ctx context.Context, s domain.SessionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, insertSessionQuery,
		s.SessionID, s.UserID, s.TenantID, s.UserAgent, s.IP, s.CreatedAt.UTC(), s.ExpiresAt.UTC())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrSessionExists
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Revoke deletes the session. Revoking an unknown session is not an error.
func (r *SessionRepository) Revoke(ctx context.Context, userID int64, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, deleteSessionQuery, userID, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
