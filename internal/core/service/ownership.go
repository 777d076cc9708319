package service

import (
	"context"
	"fmt"

	"github.com/storefront/auth-core/internal/core/ports"
)

// ResourceKind tags a resource type at route registration time.
type ResourceKind string

// ResourceIdentity is an identity record; its owner is itself.
const ResourceIdentity ResourceKind = "identity"

// OwnershipRegistry maps a resource kind to the function that finds its owner.
// Populate it at startup; it is read-only once routes are registered.
type OwnershipRegistry struct {
	lookups map[ResourceKind]ports.OwnerLookup
}

func NewOwnershipRegistry() *OwnershipRegistry {
	r := &OwnershipRegistry{lookups: make(map[ResourceKind]ports.OwnerLookup)}
	r.lookups[ResourceIdentity] = func(_ context.Context, id string) (string, error) {
		return id, nil
	}
	return r
}

// Register adds kind. Registering a kind twice is a wiring bug.
func (r *OwnershipRegistry) Register(kind ResourceKind, lookup ports.OwnerLookup) error {
	if lookup == nil {
		return fmt.Errorf("ownership: nil lookup for %q", kind)
	}
	if _, exists := r.lookups[kind]; exists {
		return fmt.Errorf("ownership: kind %q already registered", kind)
	}
	r.lookups[kind] = lookup
	return nil
}

// Lookup resolves kind once, at route registration.
func (r *OwnershipRegistry) Lookup(kind ResourceKind) (ports.OwnerLookup, error) {
	fn, ok := r.lookups[kind]
	if !ok {
		return nil, fmt.Errorf("ownership: unknown resource kind %q", kind)
	}
	return fn, nil
}
