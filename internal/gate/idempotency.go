package gate

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ETAnderson/gatehouse/internal/kv"
)

// IdempotencyGate answers "is this dedupe key new within the window?"
// exactly once per key per window.
type IdempotencyGate struct {
	primary  kv.Store
	fallback kv.Store
	logger   *slog.Logger

	degrades atomic.Int64
}

func NewIdempotencyGate(primary kv.Store, fallback kv.Store, logger *slog.Logger) *IdempotencyGate {
	return &IdempotencyGate{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Remember reports whether key is being observed for the first time
// within ttl, and records it. It never returns an error: backend
// failure degrades to the in-memory fallback for this call only.
func (g *IdempotencyGate) Remember(ctx context.Context, key string, ttl time.Duration) bool {
	return setIfAbsentDegrading(ctx, g.primary, g.fallback, g.logger, &g.degrades, SeenKeyPrefix+key, ttl)
}

// Degrades reports how many calls fell back to the in-memory store.
func (g *IdempotencyGate) Degrades() int64 {
	return g.degrades.Load()
}
