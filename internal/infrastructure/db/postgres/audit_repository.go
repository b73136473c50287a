package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

const insertAuditQuery = `INSERT INTO auth_audit_events
	(occurred_at, request_id, actor_id, actor_tenant_id, requested_tenant, action, resource, detail, ip)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, ev *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, insertAuditQuery,
		ev.Timestamp.UTC(), ev.RequestID, ev.ActorID, ev.ActorTenantID, ev.RequestedTenant,
		string(ev.Action), ev.Resource, ev.Detail, ev.IP)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
