package service

import (
	"context"
	"time"

	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/ports"
)

// LockoutTracker drives the per-identity lockout state machine on top of the
// credential store. Counter updates are delegated to the store so each
// transition is a single atomic write.
type LockoutTracker struct {
	store  ports.CredentialStore
	policy domain.LockoutPolicy
}

func NewLockoutTracker(store ports.CredentialStore, policy domain.LockoutPolicy) *LockoutTracker {
	return &LockoutTracker{store: store, policy: policy.Normalize()}
}

// Policy returns the effective threshold and duration.
func (t *LockoutTracker) Policy() domain.LockoutPolicy { return t.policy }

// Gate rejects an identity that is locked at now. It runs before password
// verification so no hashing work is spent on a locked account.
func (t *LockoutTracker) Gate(identity *domain.Identity, now time.Time) error {
	if identity.IsLocked(now) {
		return domain.ErrAccountLocked
	}
	return nil
}

// RecordFailure applies the failed-login transition.
func (t *LockoutTracker) RecordFailure(ctx context.Context, id string, now time.Time) (*domain.Identity, error) {
	return t.store.IncrementFailedAttempt(ctx, id, t.policy, now)
}

// RecordSuccess clears the counters and stamps lastLogin. It fails with
// domain.ErrAccountLocked if a lock was set after Gate passed.
func (t *LockoutTracker) RecordSuccess(ctx context.Context, id string, now time.Time) (*domain.Identity, error) {
	return t.store.RecordSuccessfulLogin(ctx, id, now)
}

// Unlock clears a lock administratively.
func (t *LockoutTracker) Unlock(ctx context.Context, id string, now time.Time) (*domain.Identity, error) {
	return t.store.ResetFailedAttempts(ctx, id, now)
}
