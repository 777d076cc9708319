package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/storefront/auth-core/internal/core/domain"
)

const (
	identityKey = "auth.identity"
	serviceKey  = "auth.service"
)

// SetIdentity stores the authenticated identity on the request context.
func SetIdentity(c echo.Context, identity *domain.Identity) {
	c.Set(identityKey, identity)
}

// IdentityFrom returns the identity set by Authenticate.
func IdentityFrom(c echo.Context) (*domain.Identity, bool) {
	identity, ok := c.Get(identityKey).(*domain.Identity)
	return identity, ok && identity != nil
}

// ServiceFrom returns the fingerprint of the API key that authenticated the
// request, if any.
func ServiceFrom(c echo.Context) (string, bool) {
	fp, ok := c.Get(serviceKey).(string)
	return fp, ok && fp != ""
}
