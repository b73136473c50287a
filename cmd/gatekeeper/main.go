package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/api"
	"github.com/officehub/gatekeeper/internal/api/handler"
	"github.com/officehub/gatekeeper/internal/api/middleware"
	"github.com/officehub/gatekeeper/internal/core/ports"
	"github.com/officehub/gatekeeper/internal/core/service"
	"github.com/officehub/gatekeeper/internal/infrastructure/config"
	mongostore "github.com/officehub/gatekeeper/internal/infrastructure/db/mongo"
	"github.com/officehub/gatekeeper/internal/infrastructure/db/postgres"
	redisstore "github.com/officehub/gatekeeper/internal/infrastructure/db/redis"
	httpserver "github.com/officehub/gatekeeper/internal/infrastructure/http"
	"github.com/officehub/gatekeeper/internal/infrastructure/memory"
	"github.com/officehub/gatekeeper/internal/infrastructure/queue"
	"github.com/officehub/gatekeeper/pkg/logger"
)

const auditWorkers = 4

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gatekeeper: %v\n", err)
		os.Exit(1)
	}
}

// stores are the repositories of the configured driver plus the pings the
// readiness probe runs and the functions that release them.
type stores struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	audit    ports.AuditRepository
	pings    map[string]handler.PingFunc
	closers  []httpserver.ShutdownFunc
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "gatekeeper",
	})

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}

	windows, err := openWindowStore(ctx, cfg, st)
	if err != nil {
		for _, c := range st.closers {
			_ = c(context.Background())
		}
		return err
	}

	auditService := service.NewAuditService(st.audit, logger.Component("audit"))
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcher := queue.NewAuditDispatcher(auditWorkers, auditService, logger.Component("audit"))
	dispatcher.Start(dispatcherCtx)

	codec := service.NewTokenCodec(service.TokenCodecConfig{
		AccessSecret:  cfg.Auth.JWTSecret,
		RefreshSecret: cfg.Auth.JWTRefreshSecret,
		AccessTTL:     cfg.Auth.AccessTokenTTL,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
	}, logger.Component("token"))

	sessions := service.NewSessionValidator(st.sessions, service.SessionValidatorConfig{
		Enabled:    cfg.Auth.SessionValidation,
		FailClosed: cfg.Auth.SessionFailClosed,
	}, dispatcher, logger.Component("session"))

	users := service.NewUserContextLoader(st.users, logger.Component("user"))
	limiter := service.NewRateLimiter(windows, cfg.RateLimit.Policies(), cfg.RateLimit.TestMode, logger.Component("ratelimit"))
	authService := service.NewAuthService(st.users, st.sessions, codec, dispatcher, logger.Component("auth"))

	if cfg.RateLimit.TestMode {
		log.Warn().Msg("rate limiting disabled by RATE_LIMIT_TEST_MODE")
	}
	if !cfg.Auth.SessionValidation {
		log.Warn().Msg("session validation disabled by SESSION_VALIDATION_ENABLED")
	}

	router := api.NewRouter(api.RouterConfig{
		SecureCookies:  !cfg.IsDevelopment(),
		MetricsEnabled: cfg.MetricsEnabled,
	}, api.Dependencies{
		AuthService:   authService,
		Authenticator: middleware.NewAuthenticator(codec, sessions, users, cfg.LoginURL, logger.Component("authn")),
		Guard:         middleware.NewGuard(dispatcher, logger.Component("guard")),
		Limiter:       limiter,
		Health:        st.pings,
		Log:           log,
	})

	srv := httpserver.NewServer(router, ":"+cfg.Port, 15*time.Second, log)
	for _, c := range st.closers {
		srv.OnShutdown(c)
	}
	srv.OnShutdown(func(context.Context) error {
		stopDispatcher()
		dispatcher.Wait()
		if n := dispatcher.Dropped(); n > 0 {
			log.Warn().Int64("dropped", n).Msg("audit events dropped")
		}
		return nil
	})

	log.Info().
		Str("env", cfg.Env).
		Str("store", cfg.StoreDriver).
		Str("rate_limit_store", cfg.RateLimit.Store).
		Msg("gatekeeper starting")

	return srv.Run(ctx)
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")
		return &stores{
			users:    mongostore.NewUserRepository(db),
			sessions: mongostore.NewSessionRepository(db),
			audit:    mongostore.NewAuditRepository(db),
			pings: map[string]handler.PingFunc{
				"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
			},
			closers: []httpserver.ShutdownFunc{client.Disconnect},
		}, nil

	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Msg("connected to postgres")
		return &stores{
			users:    postgres.NewUserRepository(db),
			sessions: postgres.NewSessionRepository(db),
			audit:    postgres.NewAuditRepository(db),
			pings: map[string]handler.PingFunc{
				"postgres": db.PingContext,
			},
			closers: []httpserver.ShutdownFunc{func(context.Context) error { return db.Close() }},
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

func openWindowStore(ctx context.Context, cfg *config.Config, st *stores) (ports.WindowStore, error) {
	if cfg.RateLimit.Store != config.RateStoreRedis {
		return memory.NewWindowStore(cfg.RateLimit.CacheSize, cfg.RateLimit.LongestWindow()), nil
	}

	client, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit store: %w", err)
	}
	st.pings["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	st.closers = append(st.closers, closeRedis(client))
	return redisstore.NewWindowStore(client), nil
}

func closeRedis(client *redis.Client) httpserver.ShutdownFunc {
	return func(context.Context) error { return client.Close() }
}
