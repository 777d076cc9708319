package domain

import (
	"strings"
	"time"
)

// Identity is the authenticable principal.
type Identity struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	PhoneNumber       string     `json:"phoneNumber,omitempty"`
	Role              Role       `json:"role"`
	IsActive          bool       `json:"isActive"`
	LoginAttempts     int        `json:"-"`
	LockUntil         *time.Time `json:"-"`
	PasswordChangedAt *time.Time `json:"passwordChangedAt,omitempty"`
	LastLogin         *time.Time `json:"lastLogin,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// NewIdentity carries registration data once the password has been hashed.
type NewIdentity struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  string
	Role         Role
	CreatedAt    time.Time
}

// NormalizeEmail is the canonical form used as the login key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.LockUntil = cloneTime(i.LockUntil)
	c.PasswordChangedAt = cloneTime(i.PasswordChangedAt)
	c.LastLogin = cloneTime(i.LastLogin)
	return &c
}

// TokenPredatesPasswordChange reports whether a token issued at issuedAt was
// minted before the most recent password change. Comparison is at second
// granularity because token timestamps are.
func (i *Identity) TokenPredatesPasswordChange(issuedAt time.Time) bool {
	if i.PasswordChangedAt == nil {
		return false
	}
	return i.PasswordChangedAt.Unix() > issuedAt.Unix()
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
