package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/ports"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit. It counts bytes, not runes.
	MaxPasswordBytes = 72
)

// Option customises an AuthService.
type Option func(*AuthService)

// WithClock injects the time source (tests advance it to expire locks).
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) {
		if now != nil {
			s.now = now
		}
	}
}

// AuthService implements registration, login and the password lifecycle.
type AuthService struct {
	store   ports.CredentialStore
	hasher  ports.PasswordHasher
	tokens  ports.TokenIssuer
	lockout *LockoutTracker
	events  ports.AuthEventPublisher
	log     zerolog.Logger
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	store ports.CredentialStore,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	lockout *LockoutTracker,
	events ports.AuthEventPublisher,
	log zerolog.Logger,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		lockout: lockout,
		events:  events,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	identity, err := s.store.Create(ctx, domain.NewIdentity{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PhoneNumber:  in.PhoneNumber,
		Role:         in.Role,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("register: issue token: %w", err)
	}

	s.publish(domain.EventRegistered, identity, "")
	s.log.Info().Str("identity_id", identity.ID).Str("role", string(identity.Role)).Msg("identity registered")

	return &ports.AuthResult{Identity: identity, Token: token}, nil
}

// Login authenticates email/password. Unknown emails and wrong passwords
// produce the same error so account existence is not revealed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			s.burnHash(password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if err := s.lockout.Gate(identity, now); err != nil {
		s.publish(domain.EventLoginRejected, identity, "")
		return nil, err
	}

	if !s.hasher.Verify(password, identity.PasswordHash) {
		return nil, s.failedLogin(ctx, identity, now)
	}

	if !identity.IsActive {
		return nil, domain.ErrAccountDeactivated
	}

	// A concurrent failure may have locked the account while the hash was
	// being compared; the store refuses the success in that case.
	updated, err := s.lockout.RecordSuccess(ctx, identity.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrAccountLocked) {
			s.publish(domain.EventLoginRejected, identity, "locked during verification")
		}
		return nil, err
	}
	identity = updated

	token, err := s.tokens.Issue(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	s.publish(domain.EventLoginSucceeded, identity, "")
	return &ports.AuthResult{Identity: identity, Token: token}, nil
}

func (s *AuthService) failedLogin(ctx context.Context, identity *domain.Identity, now time.Time) error {
	updated, err := s.lockout.RecordFailure(ctx, identity.ID, now)
	if err != nil {
		// A concurrent failure may have crossed the threshold first.
		if errors.Is(err, domain.ErrAccountLocked) {
			return domain.ErrAccountLocked
		}
		return err
	}

	s.publish(domain.EventLoginFailed, updated, fmt.Sprintf("attempts=%d", updated.LoginAttempts))
	if updated.IsLocked(now) {
		s.publish(domain.EventAccountLocked, updated, "until="+updated.LockUntil.UTC().Format(time.RFC3339))
		s.log.Warn().
			Str("identity_id", updated.ID).
			Time("lock_until", *updated.LockUntil).
			Msg("account locked after repeated failures")
	}
	return domain.ErrInvalidCredentials
}

// SetPassword hashes plain and stores it, moving passwordChangedAt forward.
// Every token issued before this second stops authenticating.
func (s *AuthService) SetPassword(ctx context.Context, identityID, plain string) (*domain.Identity, error) {
	if fe := checkPassword("password", plain); fe != nil {
		return nil, domain.NewValidationError("", *fe)
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("set password: hash: %w", err)
	}

	identity, err := s.store.SetPasswordHash(ctx, identityID, hash, s.now())
	if err != nil {
		return nil, err
	}

	s.publish(domain.EventPasswordChanged, identity, "")
	return identity, nil
}

// ChangePassword verifies current, stores next and returns a fresh token.
func (s *AuthService) ChangePassword(ctx context.Context, identityID, current, next string) (*ports.AuthResult, error) {
	identity, err := s.store.FindByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(current, identity.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if current == next {
		return nil, domain.NewValidationError("", domain.FieldError{
			Field:   "newPassword",
			Message: "new password must differ from the current password",
		})
	}
	if fe := checkPassword("newPassword", next); fe != nil {
		return nil, domain.NewValidationError("", *fe)
	}

	identity, err = s.SetPassword(ctx, identityID, next)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("change password: issue token: %w", err)
	}
	return &ports.AuthResult{Identity: identity, Token: token}, nil
}

// Deactivate soft-deletes an identity. It is never removed from the store.
func (s *AuthService) Deactivate(ctx context.Context, identityID string) (*domain.Identity, error) {
	identity, err := s.store.Deactivate(ctx, identityID, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(domain.EventDeactivated, identity, "")
	s.log.Info().Str("identity_id", identity.ID).Msg("identity deactivated")
	return identity, nil
}

// Unlock clears lockout state on behalf of an administrator.
func (s *AuthService) Unlock(ctx context.Context, identityID string) (*domain.Identity, error) {
	return s.lockout.Unlock(ctx, identityID, s.now())
}

func (s *AuthService) Profile(ctx context.Context, identityID string) (*domain.Identity, error) {
	return s.store.FindByID(ctx, identityID)
}

// burnHash spends one verification on a throwaway hash so unknown emails
// take as long as wrong passwords.
func (s *AuthService) burnHash(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password")
		if err != nil {
			s.log.Warn().Err(err).Msg("could not prepare dummy hash")
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_ = s.hasher.Verify(password, s.dummyHash)
	}
}

func (s *AuthService) publish(t domain.AuthEventType, identity *domain.Identity, detail string) {
	if s.events == nil || identity == nil {
		return
	}
	s.events.Publish(domain.AuthEvent{
		Type:       t,
		IdentityID: identity.ID,
		Email:      identity.Email,
		At:         s.now(),
		Detail:     detail,
	})
}

func validateRegistration(in ports.RegisterInput) error {
	var fields []domain.FieldError
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		fields = append(fields, domain.FieldError{Field: "email", Message: "email must be a valid email"})
	}
	if fe := checkPassword("password", in.Password); fe != nil {
		fields = append(fields, *fe)
	}
	if in.FirstName == "" {
		fields = append(fields, domain.FieldError{Field: "firstName", Message: "firstName is required"})
	}
	if in.LastName == "" {
		fields = append(fields, domain.FieldError{Field: "lastName", Message: "lastName is required"})
	}
	if !in.Role.Valid() {
		fields = append(fields, domain.FieldError{Field: "role", Message: "role must be one of: user admin"})
	}
	if len(fields) > 0 {
		return domain.NewValidationError("", fields...)
	}
	return nil
}

func checkPassword(field, plain string) *domain.FieldError {
	switch {
	case len(plain) < MinPasswordLength:
		return &domain.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at least %d characters", field, MinPasswordLength),
		}
	case len(plain) > MaxPasswordBytes:
		return &domain.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d bytes", field, MaxPasswordBytes),
		}
	}
	return nil
}
