package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/api/metrics"
	"github.com/officehub/gatekeeper/internal/api/respond"
	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/service"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"

	// RateLimitedPath serves the page browsers are redirected to.
	RateLimitedPath = "/rate-limited"
)

// RateChecker is implemented by service.RateLimiter.
type RateChecker interface {
	Enabled() bool
	Policy(class domain.EndpointClass) (service.RatePolicy, bool)
	Allow(ctx context.Context, class domain.EndpointClass, callerKey string) (service.RateDecision, error)
}

// RateLimit throttles requests of one endpoint class.
func RateLimit(limiter RateChecker, class domain.EndpointClass, log zerolog.Logger) echo.MiddlewareFunc {
	if _, ok := limiter.Policy(class); !ok {
		panic(fmt.Sprintf("middleware: no rate limit policy for class %q", class))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Enabled() {
				return next(c)
			}

			d, err := limiter.Allow(c.Request().Context(), class, callerKey(c))
			if err != nil {
				metrics.RateLimitStoreErrorsTotal.WithLabelValues(string(class)).Inc()
				log.Warn().Err(err).
					Str("class", string(class)).
					Str("request_id", requestID(c)).
					Msg("rate limit store unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set(HeaderRateLimitLimit, strconv.FormatInt(d.Limit, 10))
			h.Set(HeaderRateLimitRemaining, strconv.FormatInt(d.Remaining, 10))
			if !d.ResetAt.IsZero() {
				h.Set(HeaderRateLimitReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
			}

			if d.Allowed {
				return next(c)
			}

			metrics.RateLimitRejectionsTotal.WithLabelValues(string(class)).Inc()
			retry := d.RetryAfterSeconds()
			if !respond.IsAPIRequest(c.Request()) {
				return c.Redirect(http.StatusSeeOther, fmt.Sprintf("%s?retryAfter=%d", RateLimitedPath, retry))
			}
			h.Set(echo.HeaderRetryAfter, strconv.FormatInt(retry, 10))
			env := respond.RateLimited.Envelope(time.Now())
			env.RetryAfter = retry
			return respond.FailEnvelope(c, env)
		}
	}
}

// callerKey identifies the caller by address only. The limiter runs before
// authentication, so nothing else on the request can be trusted yet.
func callerKey(c echo.Context) string {
	return c.RealIP()
}
