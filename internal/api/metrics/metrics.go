// Package metrics defines the custom Prometheus metrics of the auth core.
// Request-level HTTP metrics come from echoprometheus; everything here is
// domain specific.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── Audit events ──────────────────────────────────────────────────────────────

// EventsTotal counts audit events written to the trail.
// Label:
//   - type: the event type (e.g. "login_failed", "account_locked")
var EventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Total number of authentication audit events recorded, by type.",
	},
	[]string{"type"},
)

// EventsDroppedTotal counts audit events discarded because a worker queue
// was full or persisting them failed.
// Label:
//   - reason: "queue_full" or "insert_failed"
var EventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of audit events that were not persisted.",
	},
	[]string{"reason"},
)

// AuditQueueDepth tracks events waiting in each dispatcher worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Request guards ────────────────────────────────────────────────────────────

// RateLimitedTotal counts requests denied by the per-identity limiter.
// Label:
//   - principal: "identity" or "apikey"
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the per-identity rate limiter.",
	},
	[]string{"principal"},
)

// TokenRejectionsTotal counts bearer tokens that failed authentication.
// Label:
//   - reason: "missing", "invalid", "expired", "invalidated", "gone", "deactivated"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of requests whose token was rejected, by reason.",
	},
	[]string{"reason"},
)

// PasswordHashDuration measures bcrypt hashing and verification time.
// Label:
//   - op: "hash" or "verify"
var PasswordHashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of password hash and verify operations.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2},
	},
	[]string{"op"},
)
