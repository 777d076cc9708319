package ports

import (
	"context"
	"time"

	"github.com/storefront/auth-core/internal/core/domain"
)

// CredentialStore persists identities. Lookups return domain.ErrIdentityNotFound
// when nothing matches; infrastructure failures surface as domain.ErrStoreUnavailable.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	// Create returns domain.ErrEmailTaken when the normalised email exists.
	Create(ctx context.Context, in domain.NewIdentity) (*domain.Identity, error)

	// IncrementFailedAttempt applies the lockout failure transition as one
	// atomic update. It returns domain.ErrAccountLocked, without touching the
	// counters, while the identity is locked at now.
	IncrementFailedAttempt(ctx context.Context, id string, policy domain.LockoutPolicy, now time.Time) (*domain.Identity, error)
	ResetFailedAttempts(ctx context.Context, id string, now time.Time) (*domain.Identity, error)
	RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) (*domain.Identity, error)
	SetPasswordHash(ctx context.Context, id, hash string, changedAt time.Time) (*domain.Identity, error)
	Deactivate(ctx context.Context, id string, at time.Time) (*domain.Identity, error)
}
