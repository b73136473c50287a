package ports

import (
	"context"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

// AuditRepository persists security audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}
