package ports

import (
	"context"

	"github.com/storefront/auth-core/internal/core/domain"
)

// AuthEventPublisher hands audit events off without blocking the caller.
type AuthEventPublisher interface {
	Publish(event domain.AuthEvent)
}

// AuthEventRepository persists the audit trail.
type AuthEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}
