package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/storefront/auth-core/internal/core/domain"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultStoreTimeout = 3 * time.Second
)

// Config holds the connection settings for the credential store.
type Config struct {
	URI      string
	Database string
	// Timeout bounds the initial connect and ping.
	Timeout time.Duration
	// OpTimeout caps server selection, so an unreachable cluster surfaces as
	// ErrStoreUnavailable instead of hanging a login.
	OpTimeout time.Duration
}

// Connect dials MongoDB, pings the primary and returns the client together
// with the selected database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = defaultStoreTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("auth-core").
		SetServerSelectionTimeout(opTimeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// storeErr classifies a driver error. Timeouts and network failures fail fast
// as domain.ErrStoreUnavailable; anything else is wrapped with the operation.
func storeErr(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return domain.Unavailable(wrapped)
	}
	return wrapped
}
