package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/officehub/gatekeeper/internal/api/middleware"
	"github.com/officehub/gatekeeper/internal/api/respond"
)

type pingResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
	Tenant  int64  `json:"tenantId"`
}

// Ping is mounted behind the admin and root presets as a cheap probe of the
// authorization chain.
func Ping(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respond.Fail(c, respond.NoToken)
	}
	return c.JSON(http.StatusOK, pingResponse{Success: true, Role: string(id.EffectiveRole), Tenant: id.TenantID})
}
