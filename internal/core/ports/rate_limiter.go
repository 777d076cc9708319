package ports

import (
	"context"
	"time"
)

// RateDecision is the outcome of a single rate-limit check.
type RateDecision struct {
	Allowed           bool
	Remaining         int
	RetryAfterSeconds int
	ResetAt           time.Time
}

// RateLimiter bounds request volume per key within a fixed window.
type RateLimiter interface {
	Check(ctx context.Context, key string, max int, window time.Duration) (RateDecision, error)
}
