package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/storefront/auth-core/internal/api/middleware"
	"github.com/storefront/auth-core/internal/core/domain"
)

// ctxIdentity returns the identity injected by the Authenticate stage. A
// missing identity means the route was registered without it.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, domain.ErrMissingToken
	}
	return identity, nil
}

func isServiceCall(c echo.Context) bool {
	_, ok := middleware.ServiceFrom(c)
	return ok
}
