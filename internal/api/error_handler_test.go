package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/auth-core/internal/core/domain"
)

func render(t *testing.T, err error, production bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop(), production)(err, c)

	var body map[string]any
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("invalid json: %v", jerr)
	}
	return rec, body
}

func TestHTTPErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrAccountLocked, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrEmailTaken, http.StatusConflict},
		{domain.ErrIdentityNotFound, http.StatusNotFound},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.Unavailable(errors.New("deadline")), http.StatusServiceUnavailable},
		{domain.NewValidationError(""), http.StatusBadRequest},
		{echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec, body := render(t, tt.err, true)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			if body["success"] != false {
				t.Fatalf("expected success=false, got %v", body["success"])
			}
		})
	}
}

func TestHTTPErrorHandler_ValidationFields(t *testing.T) {
	err := domain.NewValidationError("", domain.FieldError{Field: "email", Message: "email is required"})
	_, body := render(t, err, true)

	fields, ok := body["errors"].([]any)
	if !ok || len(fields) != 1 {
		t.Fatalf("expected one field error, got %v", body["errors"])
	}
	if f := fields[0].(map[string]any); f["field"] != "email" {
		t.Fatalf("unexpected field error %v", f)
	}
}

func TestHTTPErrorHandler_HidesInternalDetails(t *testing.T) {
	_, body := render(t, errors.New("mongo: secret connection string"), true)
	if body["message"] != "internal server error" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if _, ok := body["stack"]; ok {
		t.Fatalf("stack must not be rendered in production")
	}
}

func TestHTTPErrorHandler_StackOutsideProduction(t *testing.T) {
	cause := errors.New("bcrypt: cost out of range")
	_, body := render(t, fmt.Errorf("register: hash password: %w", cause), false)

	stack, ok := body["stack"].([]any)
	if !ok || len(stack) != 2 {
		t.Fatalf("expected the two layer wrap chain, got %v", body["stack"])
	}
	if stack[0] != "register: hash password: bcrypt: cost out of range" || stack[1] != "bcrypt: cost out of range" {
		t.Fatalf("unexpected chain %v", stack)
	}

	_, body = render(t, domain.ErrForbidden, false)
	if _, ok := body["stack"]; ok {
		t.Fatalf("operational errors carry no stack")
	}
}

func TestErrorChain_Joined(t *testing.T) {
	chain := errorChain(errors.Join(errors.New("a"), fmt.Errorf("b: %w", errors.New("c"))))
	want := []string{"a\nb: c", "a", "b: c", "c"}
	if len(chain) != len(want) {
		t.Fatalf("expected %v, got %v", want, chain)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, chain)
		}
	}
}
