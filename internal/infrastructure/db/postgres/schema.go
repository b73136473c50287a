package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		tenant_id     BIGINT NOT NULL REFERENCES tenants(id),
		username      TEXT NOT NULL,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('root', 'admin', 'employee')),
		department_id BIGINT,
		is_active     BOOLEAN NOT NULL DEFAULT true,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (lower(email))`,
	`CREATE INDEX IF NOT EXISTS users_tenant_idx ON users (tenant_id, id)`,
	`CREATE TABLE IF NOT EXISTS user_sessions (
		session_id TEXT PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		tenant_id  BIGINT NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		ip         TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS user_sessions_user_idx ON user_sessions (user_id, expires_at)`,
	`CREATE TABLE IF NOT EXISTS auth_audit_events (
		id               BIGSERIAL PRIMARY KEY,
		occurred_at      TIMESTAMPTZ NOT NULL,
		request_id       TEXT NOT NULL DEFAULT '',
		actor_id         BIGINT NOT NULL DEFAULT 0,
		actor_tenant_id  BIGINT NOT NULL DEFAULT 0,
		requested_tenant TEXT NOT NULL DEFAULT '',
		action           TEXT NOT NULL,
		resource         TEXT NOT NULL DEFAULT '',
		detail           TEXT NOT NULL DEFAULT '',
		ip               TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS auth_audit_events_tenant_idx ON auth_audit_events (actor_tenant_id, occurred_at)`,
}

// EnsureSchema creates the tables and indexes the pipeline reads from. It is
// idempotent and safe to call on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
