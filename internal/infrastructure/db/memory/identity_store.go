// Package memory is an in-process CredentialStore for development and tests.
// Every mutation runs under one mutex, which makes the lockout transitions
// atomic per identity in the same way the Mongo pipeline update is.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/auth-core/internal/core/domain"
)

type IdentityStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Identity
	byEmail map[string]string
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{
		byID:    make(map[string]*domain.Identity),
		byEmail: make(map[string]string),
	}
}

func (s *IdentityStore) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *IdentityStore) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return identity.Clone(), nil
}

func (s *IdentityStore) Create(_ context.Context, in domain.NewIdentity) (*domain.Identity, error) {
	email := domain.NormalizeEmail(in.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, domain.ErrEmailTaken
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	identity := &domain.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: in.PasswordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PhoneNumber:  in.PhoneNumber,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	s.byID[identity.ID] = identity
	s.byEmail[email] = identity.ID
	return identity.Clone(), nil
}

func (s *IdentityStore) IncrementFailedAttempt(_ context.Context, id string, policy domain.LockoutPolicy, now time.Time) (*domain.Identity, error) {
	return s.mutate(id, func(i *domain.Identity) error {
		return i.RegisterFailure(now, policy)
	})
}

func (s *IdentityStore) ResetFailedAttempts(_ context.Context, id string, now time.Time) (*domain.Identity, error) {
	return s.mutate(id, func(i *domain.Identity) error {
		i.ResetAttempts(now)
		return nil
	})
}

func (s *IdentityStore) RecordSuccessfulLogin(_ context.Context, id string, at time.Time) (*domain.Identity, error) {
	return s.mutate(id, func(i *domain.Identity) error {
		return i.RegisterSuccess(at)
	})
}

func (s *IdentityStore) SetPasswordHash(_ context.Context, id, hash string, changedAt time.Time) (*domain.Identity, error) {
	return s.mutate(id, func(i *domain.Identity) error {
		at := changedAt
		i.PasswordHash = hash
		i.PasswordChangedAt = &at
		i.UpdatedAt = changedAt
		return nil
	})
}

func (s *IdentityStore) Deactivate(_ context.Context, id string, at time.Time) (*domain.Identity, error) {
	return s.mutate(id, func(i *domain.Identity) error {
		i.IsActive = false
		i.UpdatedAt = at
		return nil
	})
}

// mutate applies fn to a copy and commits it only when fn succeeds, so a
// rejected transition never leaves a partial write behind.
func (s *IdentityStore) mutate(id string, fn func(*domain.Identity) error) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.byID[id] = next
	return next.Clone(), nil
}
