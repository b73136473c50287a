package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/api/handler"
	"github.com/officehub/gatekeeper/internal/api/middleware"
	"github.com/officehub/gatekeeper/internal/core/ports"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	SecureCookies  bool
	MetricsEnabled bool
}

// Dependencies are the wired components the router mounts.
type Dependencies struct {
	AuthService   ports.AuthService
	Authenticator *middleware.Authenticator
	Guard         *middleware.Guard
	Limiter       middleware.RateChecker
	Health        map[string]handler.PingFunc
	Log           zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig, deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.IPExtractor = echo.ExtractIPFromXFFHeader()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	if cfg.MetricsEnabled {
		e.Use(echoprometheus.NewMiddleware("gatekeeper"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	stack := middleware.NewStack(deps.Limiter, deps.Authenticator, deps.Guard, deps.Log)
	authHandler := handler.NewAuthHandler(deps.AuthService, cfg.SecureCookies)

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewHealthDependenciesHandler(deps.Health).Readiness)

	e.GET(middleware.RateLimitedPath, handler.RateLimited, stack.For(middleware.PresetPublic)...)

	// --- Credential issuance ---
	e.POST("/auth/login", authHandler.Login, stack.For(middleware.PresetAuth, middleware.ValidateBody[handler.LoginRequest]())...)
	e.POST("/auth/refresh", authHandler.Refresh, stack.For(middleware.PresetAuth)...)

	// --- Authenticated API ---
	api := e.Group("/api")
	api.POST("/auth/switch-role", authHandler.SwitchRole, stack.For(middleware.PresetUser, middleware.ValidateBody[handler.SwitchRoleRequest]())...)
	api.POST("/auth/logout", authHandler.Logout, stack.For(middleware.PresetUser)...)
	api.GET("/me", authHandler.Me, stack.For(middleware.PresetUser)...)
	api.GET("/tenants/:tenantId/me", authHandler.Me, stack.For(middleware.PresetUser)...)
	api.GET("/admin/ping", handler.Ping, stack.For(middleware.PresetAdmin)...)
	api.GET("/root/ping", handler.Ping, stack.For(middleware.PresetRoot)...)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			level := zerolog.InfoLevel
			if v.Error != nil || v.Status >= 500 {
				level = zerolog.ErrorLevel
			}
			log.WithLevel(level).
				Err(v.Error).
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("path", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
