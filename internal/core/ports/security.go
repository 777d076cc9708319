package ports

import "time"

// PasswordHasher is a one-way, salted, slow hash.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenClaims are the verified contents of a session token.
type TokenClaims struct {
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer mints and verifies stateless session tokens. Verify is pure:
// it never consults the credential store.
type TokenIssuer interface {
	Issue(identityID string) (string, error)
	Verify(token string) (TokenClaims, error)
	TTL() time.Duration
}
