package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/officehub/gatekeeper/internal/api/metrics"
	"github.com/officehub/gatekeeper/internal/api/respond"
	"github.com/officehub/gatekeeper/internal/core/domain"
)

// RequireRole enforces role-based access control on the authenticated
// identity. Root passes every check and admin passes employee checks.
func (g *Guard) RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	required := strings.Join(names, ",")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok {
				return respond.Fail(c, respond.NoToken)
			}
			if !id.Satisfies(roles...) {
				g.log.Warn().
					Str("request_id", requestID(c)).
					Int64("user_id", id.ID).
					Str("role", string(id.EffectiveRole)).
					Str("required", required).
					Str("path", c.Request().URL.Path).
					Msg("role check failed")
				g.record(c, id, domain.AuditRoleDenied, "", "required "+required+", acting as "+string(id.EffectiveRole))
				metrics.AuthDecisionsTotal.WithLabelValues("role", respond.Forbidden.Code).Inc()
				return respond.Fail(c, respond.Forbidden)
			}
			return next(c)
		}
	}
}
