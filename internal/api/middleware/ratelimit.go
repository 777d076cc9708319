package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/auth-core/internal/api/metrics"
	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/ports"
)

// RateLimit bounds requests per authenticated principal. It must run after
// Authenticate. A failing limiter backend lets the request through.
func RateLimit(limiter ports.RateLimiter, max int, window time.Duration, log zerolog.Logger) Stage {
	return func(c echo.Context) error {
		key, principal := rateKey(c)

		d, err := limiter.Check(c.Request().Context(), key, max, window)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
			return nil
		}

		h := c.Response().Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			h.Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds))
			metrics.RateLimitedTotal.WithLabelValues(principal).Inc()
			return domain.ErrRateLimited
		}
		return nil
	}
}

func rateKey(c echo.Context) (key, principal string) {
	if fp, ok := ServiceFrom(c); ok {
		return "apikey:" + fp, "apikey"
	}
	if identity, ok := IdentityFrom(c); ok {
		return "identity:" + identity.ID, "identity"
	}
	return "ip:" + c.RealIP(), "ip"
}
