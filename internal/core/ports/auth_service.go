package ports

import (
	"context"

	"github.com/storefront/auth-core/internal/core/domain"
)

// RegisterInput is the registration payload after transport-level validation.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Role        domain.Role
}

// AuthResult pairs an identity with a freshly minted token.
type AuthResult struct {
	Identity *domain.Identity
	Token    string
}

// AuthService implements the registration, login and credential lifecycle flows.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ChangePassword(ctx context.Context, identityID, current, next string) (*AuthResult, error)
	SetPassword(ctx context.Context, identityID, plain string) (*domain.Identity, error)
	Deactivate(ctx context.Context, identityID string) (*domain.Identity, error)
	Unlock(ctx context.Context, identityID string) (*domain.Identity, error)
	Profile(ctx context.Context, identityID string) (*domain.Identity, error)
}

// Guard is the authorization boundary collaborators call into.
type Guard interface {
	RequireAuthenticated(ctx context.Context, token string) (*domain.Identity, error)
	RequireRole(identity *domain.Identity, allowed ...domain.Role) error
	RequireOwnerOrAdmin(identity *domain.Identity, ownerID string) error
}

// OwnerLookup resolves the owning identity id of a resource.
type OwnerLookup func(ctx context.Context, resourceID string) (string, error)
