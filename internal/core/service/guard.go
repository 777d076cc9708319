package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/ports"
)

// Guard authenticates bearer tokens and answers authorization questions.
type Guard struct {
	tokens ports.TokenIssuer
	store  ports.CredentialStore
	log    zerolog.Logger
}

func NewGuard(tokens ports.TokenIssuer, store ports.CredentialStore, log zerolog.Logger) *Guard {
	return &Guard{tokens: tokens, store: store, log: log}
}

// RequireAuthenticated verifies token and reloads the identity it names, so
// deactivation and password changes take effect on the next request.
func (g *Guard) RequireAuthenticated(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	identity, err := g.store.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrIdentityGone
		}
		return nil, err
	}

	if !identity.IsActive {
		return nil, domain.ErrAccountDeactivated
	}
	if identity.TokenPredatesPasswordChange(claims.IssuedAt) {
		g.log.Debug().Str("identity_id", identity.ID).Msg("token predates password change")
		return nil, domain.ErrTokenInvalidated
	}

	return identity, nil
}

// RequireRole checks exact membership of the identity's role in allowed.
// There is no hierarchy: {admin} rejects user.
func (g *Guard) RequireRole(identity *domain.Identity, allowed ...domain.Role) error {
	if identity == nil {
		return domain.ErrMissingToken
	}
	for _, r := range allowed {
		if identity.Role == r {
			return nil
		}
	}
	return domain.ErrForbidden
}

// RequireOwnerOrAdmin allows admins and the identity that owns the resource.
func (g *Guard) RequireOwnerOrAdmin(identity *domain.Identity, ownerID string) error {
	if identity == nil {
		return domain.ErrMissingToken
	}
	if identity.Role == domain.RoleAdmin {
		return nil
	}
	if ownerID != "" && identity.ID == ownerID {
		return nil
	}
	return domain.ErrForbidden
}
