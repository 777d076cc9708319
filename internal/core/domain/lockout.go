package domain

import "time"

// LockState is the lockout state of an identity at a given instant.
type LockState string

const (
	StateUnlocked LockState = "unlocked"
	StateLocked   LockState = "locked"
	// StateLockExpired is a Locked record whose lockUntil has passed but has
	// not yet been cleared by a failed attempt.
	StateLockExpired LockState = "lock_expired"
)

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 2 * time.Hour
)

// LockoutPolicy parameterises the failure transition.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy returns a policy of 5 attempts and a 2 hour lock.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: DefaultLockoutThreshold, Duration: DefaultLockoutDuration}
}

// Normalize fills zero fields with defaults.
func (p LockoutPolicy) Normalize() LockoutPolicy {
	if p.Threshold <= 0 {
		p.Threshold = DefaultLockoutThreshold
	}
	if p.Duration <= 0 {
		p.Duration = DefaultLockoutDuration
	}
	return p
}

// IsLocked holds iff lockUntil is present and in the future.
func (i *Identity) IsLocked(now time.Time) bool {
	return i.LockUntil != nil && i.LockUntil.After(now)
}

// LockState reports the current state for now.
func (i *Identity) LockState(now time.Time) LockState {
	switch {
	case i.LockUntil == nil:
		return StateUnlocked
	case i.LockUntil.After(now):
		return StateLocked
	default:
		return StateLockExpired
	}
}

// RegisterFailure applies a failed login at now. It returns ErrAccountLocked
// and leaves the record untouched while the lock is still in force.
//
// An expired lock restarts the count at 1: the attempt that observed the
// expiry is itself the first strike of the new window.
func (i *Identity) RegisterFailure(now time.Time, p LockoutPolicy) error {
	p = p.Normalize()

	switch i.LockState(now) {
	case StateLocked:
		return ErrAccountLocked
	case StateLockExpired:
		i.LockUntil = nil
		i.LoginAttempts = 1
	default:
		i.LoginAttempts++
	}

	if i.LoginAttempts >= p.Threshold {
		until := now.Add(p.Duration)
		i.LockUntil = &until
	}
	i.UpdatedAt = now
	return nil
}

// RegisterSuccess clears all lockout state and records the login time. It
// returns ErrAccountLocked, leaving the record untouched, while a lock is in
// force at now.
func (i *Identity) RegisterSuccess(now time.Time) error {
	if i.IsLocked(now) {
		return ErrAccountLocked
	}
	i.LoginAttempts = 0
	i.LockUntil = nil
	at := now
	i.LastLogin = &at
	i.UpdatedAt = now
	return nil
}

// ResetAttempts clears the counter and any lock without recording a login.
func (i *Identity) ResetAttempts(now time.Time) {
	i.LoginAttempts = 0
	i.LockUntil = nil
	i.UpdatedAt = now
}
