package ports

import (
	"context"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

// AuditService records a single audit event (log line plus persistence).
type AuditService interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// AuditSink accepts audit events from the request path without blocking it.
type AuditSink interface {
	Publish(event domain.AuditEvent)
}
