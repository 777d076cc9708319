package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an error for the transport layer.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindConflict
	KindNotFound
	KindRateLimited
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed error every core operation returns. Operational errors
// (everything but KindInternal) carry a message that is safe to show callers.
type Error struct {
	Kind    ErrorKind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind and message so wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Operational reports whether the message may be surfaced verbatim.
func (e *Error) Operational() bool { return e.Kind != KindInternal }

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrInvalidCredentials = newError(KindAuthentication, "invalid email or password")
	ErrAccountLocked      = newError(KindAuthentication, "too many failed login attempts, try again later")
	ErrAccountDeactivated = newError(KindAuthentication, "account has been deactivated")
	ErrMissingToken       = newError(KindAuthentication, "authentication required")
	ErrInvalidToken       = newError(KindAuthentication, "invalid token")
	ErrExpiredToken       = newError(KindAuthentication, "token has expired")
	ErrTokenInvalidated   = newError(KindAuthentication, "password was changed, please log in again")
	ErrIdentityGone       = newError(KindAuthentication, "the account for this token no longer exists")
	ErrInvalidAPIKey      = newError(KindAuthentication, "invalid API key")
	ErrForbidden          = newError(KindAuthorization, "you do not have permission to perform this action")
	ErrEmailTaken         = newError(KindConflict, "an account with this email already exists")
	ErrIdentityNotFound   = newError(KindNotFound, "identity not found")
	ErrRateLimited        = newError(KindRateLimited, "too many requests, please try again later")
	ErrStoreUnavailable   = newError(KindUnavailable, "service temporarily unavailable")
)

// NewValidationError builds a 400-class error with field-level detail.
func NewValidationError(msg string, fields ...FieldError) *Error {
	if msg == "" {
		msg = "invalid input"
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Unavailable wraps an infrastructure failure (timeout, lost connection).
func Unavailable(err error) *Error {
	return &Error{Kind: ErrStoreUnavailable.Kind, Message: ErrStoreUnavailable.Message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
