package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/officehub/gatekeeper/internal/api/metrics"
	"github.com/officehub/gatekeeper/internal/api/respond"
	"github.com/officehub/gatekeeper/internal/core/domain"
)

const (
	HeaderTenantID = "X-Tenant-Id"
	paramTenantID  = "tenantId"
	queryTenantID  = "tenant_id"
)

// RequestedTenant returns the tenant the request targets, looking at the
// X-Tenant-Id header, the :tenantId route param and the tenant_id query
// parameter in that order.
func RequestedTenant(c echo.Context) (string, bool) {
	if v := c.Request().Header.Get(HeaderTenantID); v != "" {
		return v, true
	}
	if v := c.Param(paramTenantID); v != "" {
		return v, true
	}
	if v := c.QueryParam(queryTenantID); v != "" {
		return v, true
	}
	return "", false
}

// CheckTenantAccess allows a request that names no tenant or names the
// caller's own tenant. A value that is not an integer is a denial.
func CheckTenantAccess(id *domain.Identity, requested string) error {
	if id == nil {
		return domain.ErrNoToken
	}
	if requested == "" {
		return nil
	}
	tenant, err := strconv.ParseInt(requested, 10, 64)
	if err != nil || tenant != id.TenantID {
		return domain.ErrForbidden
	}
	return nil
}

// TenantGuard rejects requests that target another tenant's data.
func (g *Guard) TenantGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok {
				return respond.Fail(c, respond.NoToken)
			}

			requested, _ := RequestedTenant(c)
			if err := CheckTenantAccess(id, requested); err != nil {
				g.log.Warn().
					Str("request_id", requestID(c)).
					Int64("user_id", id.ID).
					Int64("user_tenant_id", id.TenantID).
					Str("requested_tenant", requested).
					Str("path", c.Request().URL.Path).
					Msg("cross-tenant access denied")
				g.record(c, id, domain.AuditTenantDenied, requested, "")
				metrics.AuthDecisionsTotal.WithLabelValues("tenant", respond.Forbidden.Code).Inc()
				return respond.Fail(c, respond.Forbidden)
			}
			return next(c)
		}
	}
}
