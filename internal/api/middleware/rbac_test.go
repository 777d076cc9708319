package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/service"
)

func TestRequireRole_ExactMembership(t *testing.T) {
	e := echo.New()
	guard := &stubGuard{}

	tests := []struct {
		name    string
		role    domain.Role
		allowed []domain.Role
		wantErr error
	}{
		{"admin on admin route", domain.RoleAdmin, []domain.Role{domain.RoleAdmin}, nil},
		{"user on admin route", domain.RoleUser, []domain.Role{domain.RoleAdmin}, domain.ErrForbidden},
		{"admin on user-only route", domain.RoleAdmin, []domain.Role{domain.RoleUser}, domain.ErrForbidden},
		{"either", domain.RoleUser, []domain.Role{domain.RoleUser, domain.RoleAdmin}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			SetIdentity(c, &domain.Identity{ID: "id-1", Role: tt.role})

			err := RequireRole(guard, tt.allowed...)(c)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRequireRole_NoIdentity(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	if err := RequireRole(&stubGuard{}, domain.RoleAdmin)(c); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestRequireOwnership(t *testing.T) {
	e := echo.New()
	guard := &stubGuard{}
	registry := service.NewOwnershipRegistry()
	if err := registry.Register("order", func(_ context.Context, id string) (string, error) {
		if id == "missing" {
			return "", domain.ErrIdentityNotFound
		}
		return "owner-" + id, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	stage, err := RequireOwnership(guard, registry, "order", "id")
	if err != nil {
		t.Fatalf("build stage: %v", err)
	}

	run := func(identity *domain.Identity, param string) error {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(param)
		SetIdentity(c, identity)
		return stage(c)
	}

	if err := run(&domain.Identity{ID: "owner-7", Role: domain.RoleUser}, "7"); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := run(&domain.Identity{ID: "owner-8", Role: domain.RoleUser}, "7"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := run(&domain.Identity{ID: "someone", Role: domain.RoleAdmin}, "7"); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
	if err := run(&domain.Identity{ID: "owner-x", Role: domain.RoleUser}, "missing"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestRequireOwnership_UnknownKind(t *testing.T) {
	if _, err := RequireOwnership(&stubGuard{}, service.NewOwnershipRegistry(), "invoice", "id"); err == nil {
		t.Fatalf("expected error for unregistered kind")
	}
}
