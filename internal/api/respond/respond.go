// Package respond renders the error envelope shared by the pipeline
// middleware and the handlers:
//
//	{"success":false,"error":"...","code":"NO_TOKEN","statusCode":401,"timestamp":"..."}
package respond

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

// Problem pairs an HTTP status with a stable machine-readable code and the
// message shown to the client.
type Problem struct {
	Status  int
	Code    string
	Message string
}

var (
	NoToken            = Problem{http.StatusUnauthorized, "NO_TOKEN", "authentication required"}
	InvalidToken       = Problem{http.StatusForbidden, "INVALID_TOKEN", "invalid or expired token"}
	SessionExpired     = Problem{http.StatusForbidden, "SESSION_EXPIRED", "session expired, please log in again"}
	UserNotFound       = Problem{http.StatusForbidden, "USER_NOT_FOUND", "user not found or inactive"}
	Forbidden          = Problem{http.StatusForbidden, "FORBIDDEN", "insufficient permissions"}
	AuthError          = Problem{http.StatusInternalServerError, "AUTH_ERROR", "authentication error"}
	RateLimited        = Problem{http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, please try again later"}
	Validation         = Problem{http.StatusUnprocessableEntity, "VALIDATION_ERROR", "validation failed"}
	BadRequest         = Problem{http.StatusBadRequest, "BAD_REQUEST", "invalid request payload"}
	InvalidCredentials = Problem{http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials"}
	NotFound           = Problem{http.StatusNotFound, "NOT_FOUND", "resource not found"}
	Internal           = Problem{http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"}
)

// Envelope is the JSON body of every error response.
type Envelope struct {
	Success    bool              `json:"success"`
	Error      string            `json:"error"`
	Code       string            `json:"code"`
	StatusCode int               `json:"statusCode"`
	Timestamp  string            `json:"timestamp"`
	RetryAfter int64             `json:"retryAfter,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// Envelope builds the body for p at now.
func (p Problem) Envelope(now time.Time) Envelope {
	return Envelope{
		Error:      p.Message,
		Code:       p.Code,
		StatusCode: p.Status,
		Timestamp:  now.UTC().Format(time.RFC3339),
	}
}

// WithMessage returns a copy of p with a different client message.
func (p Problem) WithMessage(msg string) Problem {
	p.Message = msg
	return p
}

// Fail writes p and returns nil so middleware can terminate the request with
// `return respond.Fail(c, p)`.
func Fail(c echo.Context, p Problem) error {
	return c.JSON(p.Status, p.Envelope(time.Now()))
}

// FailEnvelope writes a prepared envelope.
func FailEnvelope(c echo.Context, env Envelope) error {
	return c.JSON(env.StatusCode, env)
}

// FromError maps domain sentinels onto problems. ok is false for errors that
// have no client-facing meaning.
func FromError(err error) (Problem, bool) {
	switch {
	case errors.Is(err, domain.ErrNoToken):
		return NoToken, true
	case errors.Is(err, domain.ErrInvalidToken):
		return InvalidToken, true
	case errors.Is(err, domain.ErrSessionExpired):
		return SessionExpired, true
	case errors.Is(err, domain.ErrUserNotFound):
		return UserNotFound, true
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrRoleNotPermitted):
		return Forbidden, true
	case errors.Is(err, domain.ErrUserStoreUnavailable):
		return AuthError, true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return InvalidCredentials, true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return Validation, true
	}
	return Problem{}, false
}

// ValidationError carries per-field messages produced by the request
// validator.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

// IsAPIRequest reports whether the caller expects JSON rather than a page.
// Requests under /api/, asking for JSON, sent via XHR or not asking for HTML
// at all are treated as API calls.
func IsAPIRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get(echo.HeaderAccept)
	if strings.Contains(accept, echo.MIMEApplicationJSON) {
		return true
	}
	if r.Header.Get(echo.HeaderXRequestedWith) == "XMLHttpRequest" {
		return true
	}
	return !strings.Contains(accept, echo.MIMETextHTML)
}
