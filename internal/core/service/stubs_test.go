package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/ports"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// plainHasher is a fast, reversible stand-in for bcrypt.
type plainHasher struct {
	mu       sync.Mutex
	verifies int
}

func (h *plainHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("empty")
	}
	return "hashed:" + plain, nil
}

func (h *plainHasher) Verify(plain, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return hash == "hashed:"+plain
}

func (h *plainHasher) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

// gatedHasher parks Verify for the gated password until release is closed.
type gatedHasher struct {
	plainHasher
	gated   string
	entered chan struct{}
	release chan struct{}
}

func newGatedHasher(gated string) *gatedHasher {
	return &gatedHasher{gated: gated, entered: make(chan struct{}), release: make(chan struct{})}
}

func (h *gatedHasher) Verify(plain, hash string) bool {
	if plain == h.gated {
		h.entered <- struct{}{}
		<-h.release
	}
	return h.plainHasher.Verify(plain, hash)
}

// seqTokens issues "tok-<n>-<id>" and remembers when each was minted.
type seqTokens struct {
	mu     sync.Mutex
	now    func() time.Time
	n      int
	issued map[string]ports.TokenClaims
}

func newSeqTokens(now func() time.Time) *seqTokens {
	return &seqTokens{now: now, issued: make(map[string]ports.TokenClaims)}
}

func (s *seqTokens) Issue(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	tok := fmt.Sprintf("tok-%d-%s", s.n, id)
	now := s.now()
	s.issued[tok] = ports.TokenClaims{SubjectID: id, IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	return tok, nil
}

func (s *seqTokens) Verify(tok string) (ports.TokenClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.issued[tok]
	if !ok || !strings.HasPrefix(tok, "tok-") {
		return ports.TokenClaims{}, domain.ErrInvalidToken
	}
	if s.now().After(c.ExpiresAt) {
		return ports.TokenClaims{}, domain.ErrExpiredToken
	}
	return c, nil
}

func (s *seqTokens) TTL() time.Duration { return time.Hour }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (p *recordingPublisher) Publish(e domain.AuthEvent) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *recordingPublisher) types() []domain.AuthEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.AuthEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) has(t domain.AuthEventType) bool {
	for _, got := range p.types() {
		if got == t {
			return true
		}
	}
	return false
}

// failingStore fails every call with err.
type failingStore struct{ err error }

func (s failingStore) FindByEmail(context.Context, string) (*domain.Identity, error) { return nil, s.err }
func (s failingStore) FindByID(context.Context, string) (*domain.Identity, error)    { return nil, s.err }
func (s failingStore) Create(context.Context, domain.NewIdentity) (*domain.Identity, error) {
	return nil, s.err
}
func (s failingStore) IncrementFailedAttempt(context.Context, string, domain.LockoutPolicy, time.Time) (*domain.Identity, error) {
	return nil, s.err
}
func (s failingStore) ResetFailedAttempts(context.Context, string, time.Time) (*domain.Identity, error) {
	return nil, s.err
}
func (s failingStore) RecordSuccessfulLogin(context.Context, string, time.Time) (*domain.Identity, error) {
	return nil, s.err
}
func (s failingStore) SetPasswordHash(context.Context, string, string, time.Time) (*domain.Identity, error) {
	return nil, s.err
}
func (s failingStore) Deactivate(context.Context, string, time.Time) (*domain.Identity, error) {
	return nil, s.err
}
