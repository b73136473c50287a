package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/officehub/gatekeeper/internal/api/respond"
)

const bodyKey = "validated_body"

// ValidateBody binds the request body into a T, validates it with the echo
// validator and stores it for Body. It runs last in a chain, after the
// security stages.
func ValidateBody[T any]() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body := new(T)
			if err := c.Bind(body); err != nil {
				return respond.Fail(c, respond.BadRequest)
			}
			if err := c.Validate(body); err != nil {
				var ve *respond.ValidationError
				if errors.As(err, &ve) {
					env := respond.Validation.Envelope(time.Now())
					env.Details = ve.Fields
					return respond.FailEnvelope(c, env)
				}
				return respond.Fail(c, respond.Validation.WithMessage(err.Error()))
			}
			c.Set(bodyKey, body)
			return next(c)
		}
	}
}

// Body returns the value stored by ValidateBody[T].
func Body[T any](c echo.Context) (*T, bool) {
	body, ok := c.Get(bodyKey).(*T)
	return body, ok
}
