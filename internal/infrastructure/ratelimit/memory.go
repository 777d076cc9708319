package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/auth-core/internal/core/ports"
)

const defaultSweepInterval = time.Minute

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps per-key windows in process memory. Counters are not
// shared between instances; use the Redis limiter when running more than one.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
	sweep   time.Duration
	log     zerolog.Logger
}

// MemoryOption customises a MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

func WithSweepInterval(d time.Duration) MemoryOption {
	return func(l *MemoryLimiter) {
		if d > 0 {
			l.sweep = d
		}
	}
}

func NewMemoryLimiter(log zerolog.Logger, opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
		sweep:   defaultSweepInterval,
		log:     log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request against key. A window restarts once now passes
// its reset time.
func (l *MemoryLimiter) Check(_ context.Context, key string, max int, win time.Duration) (ports.RateDecision, error) {
	now := l.now()

	l.mu.Lock()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(win)}
		l.windows[key] = w
	}
	w.count++
	count, resetAt := w.count, w.resetAt
	l.mu.Unlock()

	return decide(count, max, resetAt, now), nil
}

// Start evicts expired windows every sweep interval until ctx is done.
func (l *MemoryLimiter) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(l.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.Evict(); n > 0 {
					l.log.Debug().Int("evicted", n).Msg("rate limit windows swept")
				}
			}
		}
	}()
}

// Evict drops every window whose reset time has passed and returns how many.
func (l *MemoryLimiter) Evict() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
			n++
		}
	}
	return n
}

// Len reports the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func decide(count, max int, resetAt, now time.Time) ports.RateDecision {
	d := ports.RateDecision{
		Allowed:   count <= max,
		Remaining: max - count,
		ResetAt:   resetAt,
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfterSeconds = int(math.Ceil(resetAt.Sub(now).Seconds()))
		if d.RetryAfterSeconds < 1 {
			d.RetryAfterSeconds = 1
		}
	}
	return d
}
