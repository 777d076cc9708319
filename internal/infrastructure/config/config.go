package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const minSecretLength = 32

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// PhoneRegion is the default region for numbers without a country code.
	PhoneRegion string `env:"PHONE_REGION, default=US"`
	// APIKeys lets service callers skip user authentication.
	APIKeys []string `env:"API_KEYS"`
	// IPRateLimit is requests per second per client IP, 0 disables it.
	IPRateLimit  float64 `env:"IP_RATE_LIMIT, default=20"`
	AuditWorkers int     `env:"AUDIT_WORKERS, default=4"`

	Auth      AuthConfig
	Lockout   LockoutConfig
	RateLimit RateLimitConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET, required"`
	JWTIssuer     string        `env:"JWT_ISSUER,      default=storefront"`
	JWTAudience   string        `env:"JWT_AUDIENCE,    default=storefront-web"`
	JWTTTL        time.Duration `env:"JWT_TTL,         default=2160h"`
	CookieName    string        `env:"COOKIE_NAME,     default=jwt"`
	CookieTTLDays int           `env:"COOKIE_TTL_DAYS, default=90"`
	BcryptCost    int           `env:"BCRYPT_COST,     default=12"`
}

type LockoutConfig struct {
	Threshold int           `env:"LOCKOUT_THRESHOLD, default=5"`
	Duration  time.Duration `env:"LOCKOUT_DURATION,  default=2h"`
}

type RateLimitConfig struct {
	Max     int           `env:"RATE_LIMIT_MAX,     default=100"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW,  default=15m"`
	Backend string        `env:"RATE_LIMIT_BACKEND, default=memory"`
	Sweep   time.Duration `env:"RATE_LIMIT_SWEEP,   default=1m"`
}

type StoreConfig struct {
	Driver  string        `env:"STORE_DRIVER,  default=mongo"`
	Timeout time.Duration `env:"STORE_TIMEOUT, default=3s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,  default=200ms"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.APIKeys = compact(cfg.APIKeys)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// CookieMaxAge is the auth cookie lifetime.
func (c *Config) CookieMaxAge() time.Duration {
	return time.Duration(c.Auth.CookieTTLDays) * 24 * time.Hour
}

// Validate rejects settings the server cannot safely start with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength))
	}
	if c.Auth.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Auth.CookieTTLDays <= 0 {
		errs = append(errs, errors.New("COOKIE_TTL_DAYS must be positive"))
	}
	if c.Lockout.Threshold <= 0 || c.Lockout.Duration <= 0 {
		errs = append(errs, errors.New("LOCKOUT_THRESHOLD and LOCKOUT_DURATION must be positive"))
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive"))
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND %q: want memory or redis", c.RateLimit.Backend))
	}
	switch c.Store.Driver {
	case "memory", "mongo":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q: want memory or mongo", c.Store.Driver))
	}
	if c.Store.Timeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
