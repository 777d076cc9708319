package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func TestMemoryLimiter_DeniesOverMax(t *testing.T) {
	c := newClock()
	l := NewMemoryLimiter(zerolog.Nop(), WithClock(c.Now))
	ctx := context.Background()
	win := 15 * time.Minute

	for i := 1; i <= 100; i++ {
		d, err := l.Check(ctx, "identity-x", 100, win)
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 100-i, d.Remaining)
	}

	d, err := l.Check(ctx, "identity-x", 100, win)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.InDelta(t, 900, d.RetryAfterSeconds, 1)
}

func TestMemoryLimiter_RetryAfterShrinks(t *testing.T) {
	c := newClock()
	l := NewMemoryLimiter(zerolog.Nop(), WithClock(c.Now))
	ctx := context.Background()

	_, _ = l.Check(ctx, "k", 1, time.Minute)
	c.Advance(20*time.Second + 500*time.Millisecond)

	d, err := l.Check(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 40, d.RetryAfterSeconds)
}

func TestMemoryLimiter_NewWindowAllows(t *testing.T) {
	c := newClock()
	l := NewMemoryLimiter(zerolog.Nop(), WithClock(c.Now))
	ctx := context.Background()
	win := 15 * time.Minute

	for i := 0; i < 101; i++ {
		_, _ = l.Check(ctx, "identity-x", 100, win)
	}

	// the reset instant still belongs to the old window
	c.Advance(win)
	d, _ := l.Check(ctx, "identity-x", 100, win)
	assert.False(t, d.Allowed)

	c.Advance(time.Millisecond)
	d, err := l.Check(ctx, "identity-x", 100, win)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 99, d.Remaining)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	c := newClock()
	l := NewMemoryLimiter(zerolog.Nop(), WithClock(c.Now))
	ctx := context.Background()

	_, _ = l.Check(ctx, "a", 1, time.Minute)
	d, _ := l.Check(ctx, "a", 1, time.Minute)
	assert.False(t, d.Allowed)

	d, _ = l.Check(ctx, "b", 1, time.Minute)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_Evict(t *testing.T) {
	c := newClock()
	l := NewMemoryLimiter(zerolog.Nop(), WithClock(c.Now))
	ctx := context.Background()

	_, _ = l.Check(ctx, "short", 5, time.Second)
	_, _ = l.Check(ctx, "long", 5, time.Hour)
	require.Equal(t, 2, l.Len())

	c.Advance(2 * time.Second)
	assert.Equal(t, 1, l.Evict())
	assert.Equal(t, 1, l.Len())
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	c := newClock()
	l := NewMemoryLimiter(zerolog.Nop(), WithClock(c.Now))
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := l.Check(ctx, "shared", 20, time.Minute)
			if err != nil {
				panic(fmt.Sprintf("check %d: %v", i, err))
			}
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, allowed)
}
