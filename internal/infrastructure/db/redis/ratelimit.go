package redis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront/auth-core/internal/core/ports"
)

const rateLimitPrefix = "ratelimit:"

// fixedWindow increments the counter and starts its expiry on the first hit.
// Returns {count, pttl_ms}.
var fixedWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RateLimiter shares per-key windows across every instance pointed at the
// same Redis.
type RateLimiter struct {
	client redis.Scripter
	now    func() time.Time
}

func NewRateLimiter(client redis.Scripter) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

func (l *RateLimiter) Check(ctx context.Context, key string, max int, window time.Duration) (ports.RateDecision, error) {
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = 1
	}

	res, err := fixedWindow.Run(ctx, l.client, []string{rateLimitPrefix + key}, ms).Int64Slice()
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return ports.RateDecision{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	d := ports.RateDecision{
		Allowed:   count <= max,
		Remaining: max - count,
		ResetAt:   l.now().Add(ttl),
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfterSeconds = int(math.Ceil(ttl.Seconds()))
		if d.RetryAfterSeconds < 1 {
			d.RetryAfterSeconds = 1
		}
	}
	return d, nil
}
