package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/ports"
)

// Guard holds the authorization stages that run after Authenticate. Every
// denial is logged and sent to the audit sink.
type Guard struct {
	audit ports.AuditSink
	log   zerolog.Logger
}

// NewGuard builds a Guard. audit may be nil.
func NewGuard(audit ports.AuditSink, log zerolog.Logger) *Guard {
	return &Guard{audit: audit, log: log}
}

func (g *Guard) record(c echo.Context, id *domain.Identity, action domain.AuditAction, requested, detail string) {
	if g.audit == nil {
		return
	}
	req := c.Request()
	ev := domain.AuditEvent{
		Timestamp:       time.Now().UTC(),
		RequestID:       requestID(c),
		RequestedTenant: requested,
		Action:          action,
		Resource:        req.Method + " " + req.URL.Path,
		Detail:          detail,
		IP:              c.RealIP(),
	}
	if id != nil {
		ev.ActorID = id.ID
		ev.ActorTenantID = id.TenantID
	}
	g.audit.Publish(ev)
}
