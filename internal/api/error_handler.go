package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/api/respond"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their envelope and status code.
//   - Maps echo's own errors (unknown route, bad bind) onto the envelope.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		p := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(p.Status)
			return
		}
		_ = c.JSON(p.Status, p.Envelope(time.Now()))
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) respond.Problem {
	if p, ok := respond.FromError(err); ok {
		return p
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return respond.NotFound
		case http.StatusBadRequest:
			return respond.BadRequest
		case http.StatusMethodNotAllowed:
			return respond.Problem{Status: he.Code, Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"}
		}
		if he.Code < http.StatusInternalServerError {
			return respond.Problem{Status: he.Code, Code: "HTTP_ERROR", Message: fmt.Sprintf("%v", he.Message)}
		}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return respond.Internal
}
