// Command server runs the storefront authentication API.
//
// @title                       Storefront Auth API
// @version                     1.0
// @description                 Registration, login, session tokens, lockout and access control for the storefront.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/auth-core/internal/api"
	"github.com/storefront/auth-core/internal/api/handler"
	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/ports"
	"github.com/storefront/auth-core/internal/core/service"
	"github.com/storefront/auth-core/internal/infrastructure/config"
	"github.com/storefront/auth-core/internal/infrastructure/db/memory"
	"github.com/storefront/auth-core/internal/infrastructure/db/mongo"
	redisdb "github.com/storefront/auth-core/internal/infrastructure/db/redis"
	"github.com/storefront/auth-core/internal/infrastructure/queue"
	"github.com/storefront/auth-core/internal/infrastructure/ratelimit"
	"github.com/storefront/auth-core/internal/infrastructure/security"
	"github.com/storefront/auth-core/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction()})

	// --- Storage ---
	var (
		store  ports.CredentialStore
		events ports.AuthEventRepository
		mdb    *mongodriver.Database
	)
	switch cfg.Store.Driver {
	case "mongo":
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:       cfg.Mongo.URI,
			Database:  cfg.Mongo.Database,
			OpTimeout: cfg.Store.Timeout,
		})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()

		repo := mongo.NewIdentityRepository(db, cfg.Store.Timeout)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		store, events, mdb = repo, mongo.NewAuthEventRepository(db), db
	default:
		log.Warn().Msg("using in-memory credential store, identities are lost on restart")
		store, events = memory.NewIdentityStore(), queue.NewLogRepository(logger.Component(log, "audit"))
	}

	// --- Rate limiting ---
	var (
		limiter ports.RateLimiter
		rdb     *redis.Client
	)
	switch cfg.RateLimit.Backend {
	case "redis":
		rdb, err = redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		limiter = redisdb.NewRateLimiter(rdb)
	default:
		mem := ratelimit.NewMemoryLimiter(logger.Component(log, "ratelimit"), ratelimit.WithSweepInterval(cfg.RateLimit.Sweep))
		mem.Start(ctx)
		limiter = mem
	}

	// --- Core ---
	tokens, err := security.NewJWTIssuer(security.JWTConfig{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Audience: cfg.Auth.JWTAudience,
		TTL:      cfg.Auth.JWTTTL,
	})
	if err != nil {
		return err
	}

	// Workers outlive the signal context so Close can drain pending events.
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, events, logger.Component(log, "audit"))
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Close()

	lockout := service.NewLockoutTracker(store, domain.LockoutPolicy{
		Threshold: cfg.Lockout.Threshold,
		Duration:  cfg.Lockout.Duration,
	})
	authService := service.NewAuthService(
		store,
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		tokens,
		lockout,
		dispatcher,
		logger.Component(log, "auth"),
	)
	guard := service.NewGuard(tokens, store, logger.Component(log, "guard"))

	e, err := api.NewRouter(api.Deps{
		Log:         log,
		Production:  cfg.IsProduction(),
		AuthService: authService,
		Guard:       guard,
		Ownership:   service.NewOwnershipRegistry(),
		Limiter:     limiter,
		Cookie: handler.CookieConfig{
			Name:   cfg.Auth.CookieName,
			MaxAge: cfg.CookieMaxAge(),
			Secure: cfg.IsProduction(),
		},
		PhoneRegion:     cfg.PhoneRegion,
		APIKeys:         cfg.APIKeys,
		RateLimitMax:    cfg.RateLimit.Max,
		RateLimitWindow: cfg.RateLimit.Window,
		IPRateLimit:     cfg.IPRateLimit,
		Mongo:           mdb,
		Redis:           rdb,
	})
	if err != nil {
		return err
	}

	return serve(ctx, e, ":"+cfg.Port, log)
}

func serve(ctx context.Context, h http.Handler, addr string, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
