package domain

import "time"

// AuthEventType names a security-relevant occurrence.
type AuthEventType string

const (
	EventRegistered      AuthEventType = "registered"
	EventLoginSucceeded  AuthEventType = "login_succeeded"
	EventLoginFailed     AuthEventType = "login_failed"
	EventLoginRejected   AuthEventType = "login_rejected_locked"
	EventAccountLocked   AuthEventType = "account_locked"
	EventPasswordChanged AuthEventType = "password_changed"
	EventDeactivated     AuthEventType = "deactivated"
)

// AuthEvent is an entry of the authentication audit trail.
type AuthEvent struct {
	Type       AuthEventType
	IdentityID string
	Email      string
	At         time.Time
	Detail     string
}
