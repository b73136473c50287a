package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

// CurrentIdentity returns the identity attached by Authenticate.
func CurrentIdentity(c echo.Context) (*domain.Identity, bool) {
	return domain.IdentityFromContext(c.Request().Context())
}

func setIdentity(c echo.Context, id *domain.Identity) {
	req := c.Request()
	c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), id)))
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
