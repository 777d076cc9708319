package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/storefront/auth-core/internal/api/metrics"
	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/ports"
)

const (
	HeaderAPIKey    = "X-API-Key"
	TokenQueryParam = "token"
)

// ExtractToken finds the session token: Authorization bearer header first,
// then the cookie, then the query parameter.
func ExtractToken(c echo.Context, cookieName string) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if tok := strings.TrimSpace(parts[1]); tok != "" {
				return tok
			}
		}
	}
	if cookieName != "" {
		if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
			return ck.Value
		}
	}
	return c.QueryParam(TokenQueryParam)
}

// Authenticate resolves the session token into an identity. Requests already
// authenticated by an API key pass through.
func Authenticate(guard ports.Guard, cookieName string) Stage {
	return func(c echo.Context) error {
		if _, ok := ServiceFrom(c); ok {
			return nil
		}
		identity, err := guard.RequireAuthenticated(c.Request().Context(), ExtractToken(c, cookieName))
		if err != nil {
			if reason := rejectionReason(err); reason != "" {
				metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
			}
			return err
		}
		SetIdentity(c, identity)
		return nil
	}
}

// APIKeys holds the allow-list of service keys as SHA-256 digests.
type APIKeys struct {
	digests [][sha256.Size]byte
}

func NewAPIKeys(keys []string) *APIKeys {
	a := &APIKeys{}
	for _, k := range keys {
		if k != "" {
			a.digests = append(a.digests, sha256.Sum256([]byte(k)))
		}
	}
	return a
}

// Match compares key against every entry in constant time and returns a
// short fingerprint for rate limiting and logs.
func (a *APIKeys) Match(key string) (string, bool) {
	if a == nil || key == "" {
		return "", false
	}
	d := sha256.Sum256([]byte(key))
	found := 0
	for i := range a.digests {
		found |= subtle.ConstantTimeCompare(d[:], a.digests[i][:])
	}
	if found != 1 {
		return "", false
	}
	return hex.EncodeToString(d[:6]), true
}

// APIKey authenticates service callers that present X-API-Key. Requests
// without the header continue to user authentication; a wrong key is
// rejected outright.
func APIKey(keys *APIKeys) Stage {
	return func(c echo.Context) error {
		key := c.Request().Header.Get(HeaderAPIKey)
		if key == "" {
			return nil
		}
		fp, ok := keys.Match(key)
		if !ok {
			metrics.TokenRejectionsTotal.WithLabelValues("apikey").Inc()
			return domain.ErrInvalidAPIKey
		}
		c.Set(serviceKey, fp)
		return nil
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingToken):
		return "missing"
	case errors.Is(err, domain.ErrExpiredToken):
		return "expired"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid"
	case errors.Is(err, domain.ErrTokenInvalidated):
		return "invalidated"
	case errors.Is(err, domain.ErrIdentityGone):
		return "gone"
	case errors.Is(err, domain.ErrAccountDeactivated):
		return "deactivated"
	default:
		return ""
	}
}
