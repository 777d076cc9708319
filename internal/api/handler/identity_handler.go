package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/auth-core/internal/core/ports"
)

// IdentityHandler serves identity records to their owners and to admins.
type IdentityHandler struct {
	authService ports.AuthService
	now         func() time.Time
}

func NewIdentityHandler(authService ports.AuthService) *IdentityHandler {
	return &IdentityHandler{authService: authService, now: time.Now}
}

// Get returns an identity.
//
// @Summary      Get identity
// @Tags         identities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Identity ID"
// @Success      200  {object}  identityEnvelope
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /identities/{id} [get]
func (h *IdentityHandler) Get(c echo.Context) error {
	identity, err := h.authService.Profile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newIdentityEnvelope(identity, h.now()))
}

// Deactivate soft-deletes an identity. Its tokens stop authenticating.
//
// @Summary      Deactivate identity
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Identity ID"
// @Success      200  {object}  identityEnvelope
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/identities/{id}/deactivate [post]
func (h *IdentityHandler) Deactivate(c echo.Context) error {
	identity, err := h.authService.Deactivate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newIdentityEnvelope(identity, h.now()))
}

// Unlock clears failed attempts and any active lock.
//
// @Summary      Unlock identity
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Identity ID"
// @Success      200  {object}  identityEnvelope
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/identities/{id}/unlock [post]
func (h *IdentityHandler) Unlock(c echo.Context) error {
	identity, err := h.authService.Unlock(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newIdentityEnvelope(identity, h.now()))
}
