package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/ports"
)

// CookieConfig controls the session cookie written on login.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
	phoneRegion string
	now         func() time.Time
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig, phoneRegion string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		phoneRegion: phoneRegion,
		now:         time.Now,
	}
}

// Register creates a new identity and signs it in.
//
// @Summary      Register a new identity
// @Description  Self-registration always creates a user. The admin role is honoured only for callers presenting a service API key.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	role := domain.RoleUser
	if isServiceCall(c) {
		role, _ = domain.ParseRole(req.Role)
	}

	phone := ""
	if req.PhoneNumber != "" {
		var err error
		if phone, err = NormalizePhone(req.PhoneNumber, h.phoneRegion); err != nil {
			return domain.NewValidationError("", domain.FieldError{Field: "phoneNumber", Message: "phoneNumber must be a valid phone number"})
		}
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: phone,
		Role:        role,
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, res.Token)
	return c.JSON(http.StatusCreated, newAuthResponse(res, h.now()))
}

// Login authenticates an identity and returns a JWT.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, res.Token)
	return c.JSON(http.StatusOK, newAuthResponse(res, h.now()))
}

// Logout expires the session cookie. It always succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.baseCookie("", -1, time.Unix(0, 0)))
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "logged out"})
}

// Me returns the authenticated identity.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  identityEnvelope
// @Failure      401  {object}  errorResponse
// @Failure      429  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newIdentityEnvelope(identity, h.now()))
}

// ChangePassword replaces the caller's password. Tokens issued before the
// change stop working; a fresh one is returned.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/password [patch]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.authService.ChangePassword(c.Request().Context(), identity.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, res.Token)
	return c.JSON(http.StatusOK, newAuthResponse(res, h.now()))
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(h.baseCookie(token, int(h.cookie.MaxAge.Seconds()), h.now().Add(h.cookie.MaxAge)))
}

func (h *AuthHandler) baseCookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
