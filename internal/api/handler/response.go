package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/officehub/gatekeeper/internal/api/middleware"
	"github.com/officehub/gatekeeper/internal/api/respond"
)

// body returns the payload validated by middleware.ValidateBody, binding it
// directly when the route has no validation stage.
func body[T any](c echo.Context) (*T, error) {
	if v, ok := middleware.Body[T](c); ok {
		return v, nil
	}
	v := new(T)
	if err := c.Bind(v); err != nil {
		return nil, err
	}
	return v, nil
}

// fail writes the envelope for known domain errors and hands anything else
// to the global error handler.
func fail(c echo.Context, err error) error {
	if p, ok := respond.FromError(err); ok {
		return respond.Fail(c, p)
	}
	return err
}
