package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"

	_ "github.com/storefront/auth-core/docs"
	"github.com/storefront/auth-core/internal/api/handler"
	"github.com/storefront/auth-core/internal/api/middleware"
	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/ports"
	"github.com/storefront/auth-core/internal/core/service"
)

// Deps carries everything the router wires into handlers and guards.
type Deps struct {
	Log        zerolog.Logger
	Production bool

	AuthService ports.AuthService
	Guard       ports.Guard
	Ownership   *service.OwnershipRegistry
	Limiter     ports.RateLimiter

	Cookie      handler.CookieConfig
	PhoneRegion string
	APIKeys     []string

	RateLimitMax    int
	RateLimitWindow time.Duration
	// IPRateLimit is requests per second per client IP; 0 disables it.
	IPRateLimit float64

	// Optional, checked by the readiness probe when set.
	Mongo *mongo.Database
	Redis *redis.Client

	// Registry receives the HTTP metrics; nil uses the process default.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator(d.PhoneRegion)
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.Production)

	// --- Global middleware ---
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.Recover())

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "storefront_auth",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.AuthService, d.Cookie, d.PhoneRegion)
	identityHandler := handler.NewIdentityHandler(d.AuthService)

	// --- Guard stages ---
	apiKey := middleware.APIKey(middleware.NewAPIKeys(d.APIKeys))
	authenticate := middleware.Authenticate(d.Guard, d.Cookie.Name)
	limit := middleware.RateLimit(d.Limiter, d.RateLimitMax, d.RateLimitWindow, d.Log)
	ownsIdentity, err := middleware.RequireOwnership(d.Guard, d.Ownership, service.ResourceIdentity, "id")
	if err != nil {
		return nil, err
	}
	adminOnly := middleware.RequireRole(d.Guard, domain.RoleAdmin)

	v1 := e.Group("/api/v1")
	if d.IPRateLimit > 0 {
		v1.Use(ipRateLimiter(d.IPRateLimit))
	}

	// --- Auth routes ---
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register, middleware.Pipeline(apiKey))
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, middleware.Pipeline(authenticate, limit))
	auth.PATCH("/password", authHandler.ChangePassword, middleware.Pipeline(authenticate, limit))

	// --- Identity routes ---
	v1.GET("/identities/:id", identityHandler.Get, middleware.Pipeline(apiKey, authenticate, ownsIdentity, limit))

	admin := v1.Group("/admin", middleware.Pipeline(apiKey, authenticate, adminOnly, limit))
	admin.POST("/identities/:id/deactivate", identityHandler.Deactivate)
	admin.POST("/identities/:id/unlock", identityHandler.Unlock)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Mongo, d.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

// requestLogger bridges echo's access log into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// ipRateLimiter throttles by client IP ahead of any per-identity limit.
func ipRateLimiter(perSecond float64) echo.MiddlewareFunc {
	burst := int(perSecond * 2)
	if burst < 1 {
		burst = 1
	}
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			c.Response().Header().Set("Retry-After", strconv.Itoa(1))
			return domain.ErrRateLimited
		},
	})
}
