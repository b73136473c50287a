package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that logs every event and persists
// it when repo is non-nil.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

func (s *auditService) Record(ctx context.Context, ev domain.AuditEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	level := zerolog.InfoLevel
	switch ev.Action {
	case domain.AuditTenantDenied, domain.AuditRoleDenied, domain.AuditSessionStoreFailure:
		level = zerolog.WarnLevel
	}
	s.log.WithLevel(level).
		Str("action", string(ev.Action)).
		Str("request_id", ev.RequestID).
		Int64("actor_id", ev.ActorID).
		Int64("actor_tenant_id", ev.ActorTenantID).
		Str("requested_tenant", ev.RequestedTenant).
		Str("resource", ev.Resource).
		Str("ip", ev.IP).
		Str("detail", ev.Detail).
		Msg("audit")

	if s.repo == nil {
		return nil
	}
	if err := s.repo.Insert(ctx, &ev); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}
