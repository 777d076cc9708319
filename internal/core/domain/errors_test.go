package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIs_MatchesWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("login: %w", ErrAccountLocked)
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected wrapped sentinel to match")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("distinct sentinels must not match")
	}
}

func TestUnavailable_KeepsCause(t *testing.T) {
	cause := errors.New("context deadline exceeded")
	err := Unavailable(cause)

	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if KindOf(err) != KindUnavailable {
		t.Fatalf("unexpected kind %s", KindOf(err))
	}
}

func TestKindOf_Untyped(t *testing.T) {
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("untyped errors must be internal")
	}
	if KindOf(NewValidationError("", FieldError{Field: "email", Message: "required"})) != KindValidation {
		t.Fatalf("expected validation kind")
	}
}
