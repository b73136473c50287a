package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

// Preset names an ordered middleware chain for a family of endpoints.
type Preset string

const (
	PresetPublic   Preset = "public"
	PresetAuth     Preset = "auth"
	PresetUser     Preset = "user"
	PresetAdmin    Preset = "admin"
	PresetRoot     Preset = "root"
	PresetAPI      Preset = "api"
	PresetUpload   Preset = "upload"
	PresetDownload Preset = "download"
)

// Stack composes the pipeline stages into presets. Chains always run in the
// order rate limit, authenticate, tenant guard, role check, extras.
type Stack struct {
	limiter RateChecker
	authn   *Authenticator
	guard   *Guard
	log     zerolog.Logger
}

func NewStack(limiter RateChecker, authn *Authenticator, guard *Guard, log zerolog.Logger) *Stack {
	return &Stack{limiter: limiter, authn: authn, guard: guard, log: log}
}

// For returns the chain for preset followed by extra. It panics on an unknown
// preset so a wiring mistake fails at startup.
func (s *Stack) For(preset Preset, extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	var chain []echo.MiddlewareFunc

	switch preset {
	case PresetPublic:
		chain = []echo.MiddlewareFunc{s.rate(domain.ClassPublic)}
	case PresetAuth:
		chain = []echo.MiddlewareFunc{s.rate(domain.ClassAuth)}
	case PresetUser:
		chain = s.authenticated(domain.ClassAuthenticated)
	case PresetAdmin:
		chain = append(s.authenticated(domain.ClassAdmin), s.guard.RequireRole(domain.RoleAdmin))
	case PresetRoot:
		chain = append(s.authenticated(domain.ClassAdmin), s.guard.RequireRole(domain.RoleRoot))
	case PresetAPI:
		chain = s.authenticated(domain.ClassAPI)
	case PresetUpload:
		chain = s.authenticated(domain.ClassUpload)
	case PresetDownload:
		chain = s.authenticated(domain.ClassDownload)
	default:
		panic(fmt.Sprintf("middleware: unknown security preset %q", preset))
	}

	return append(chain, extra...)
}

func (s *Stack) authenticated(class domain.EndpointClass) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		s.rate(class),
		s.authn.Middleware(),
		s.guard.TenantGuard(),
	}
}

func (s *Stack) rate(class domain.EndpointClass) echo.MiddlewareFunc {
	return RateLimit(s.limiter, class, s.log)
}
