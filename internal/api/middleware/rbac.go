package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/ports"
	"github.com/storefront/auth-core/internal/core/service"
)

// RequireRole enforces exact role membership. Service callers bypass it.
func RequireRole(guard ports.Guard, roles ...domain.Role) Stage {
	return func(c echo.Context) error {
		if _, ok := ServiceFrom(c); ok {
			return nil
		}
		identity, _ := IdentityFrom(c)
		return guard.RequireRole(identity, roles...)
	}
}

// RequireOwnership allows admins and the owner of the resource named by the
// path parameter param. The owner lookup for kind is resolved here, once,
// so an unknown kind fails at route registration.
func RequireOwnership(guard ports.Guard, registry *service.OwnershipRegistry, kind service.ResourceKind, param string) (Stage, error) {
	lookup, err := registry.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return func(c echo.Context) error {
		if _, ok := ServiceFrom(c); ok {
			return nil
		}
		identity, ok := IdentityFrom(c)
		if !ok {
			return domain.ErrMissingToken
		}
		if identity.Role == domain.RoleAdmin {
			return nil
		}
		ownerID, err := lookup(c.Request().Context(), c.Param(param))
		if err != nil {
			return err
		}
		return guard.RequireOwnerOrAdmin(identity, ownerID)
	}, nil
}
