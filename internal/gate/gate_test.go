package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBackendDown = errors.New("connection refused")

// failingStore simulates an unreachable remote backend.
type failingStore struct{}

func (failingStore) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return false, errBackendDown
}

func (failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errBackendDown
}

func (failingStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return errBackendDown
}

func (failingStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	return 0, false, errBackendDown
}

func (failingStore) Delete(ctx context.Context, key string) error {
	return errBackendDown
}

// stalledStore simulates a backend whose server stopped responding:
// every call hangs until its per-op deadline fires, the way the Redis
// and MySQL stores bound each round-trip, then reports the timeout.
type stalledStore struct {
	opTimeout time.Duration
}

func (s stalledStore) stall(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	<-ctx.Done()
	return ctx.Err()
}

func (s stalledStore) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return false, s.stall(ctx)
}

func (s stalledStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, s.stall(ctx)
}

func (s stalledStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.stall(ctx)
}

func (s stalledStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	return 0, false, s.stall(ctx)
}

func (s stalledStore) Delete(ctx context.Context, key string) error {
	return s.stall(ctx)
}
