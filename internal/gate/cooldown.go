package gate

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ETAnderson/gatehouse/internal/kv"
)

// CooldownGate throttles actions per thread regardless of event
// identity. It is deliberately separate from the idempotency gate: a
// burst of distinct events on one thread must still be spaced out even
// though each carries a unique dedupe key.
type CooldownGate struct {
	primary  kv.Store
	fallback kv.Store
	logger   *slog.Logger

	degrades atomic.Int64
}

func NewCooldownGate(primary kv.Store, fallback kv.Store, logger *slog.Logger) *CooldownGate {
	return &CooldownGate{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// TryAcquire atomically reserves the cooldown window for entityID if no
// window is live. A window of zero or less disables the gate. The
// reservation holds for the full window once taken; it is never rolled
// back, even when the downstream action fails.
func (g *CooldownGate) TryAcquire(ctx context.Context, entityID string, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	return setIfAbsentDegrading(ctx, g.primary, g.fallback, g.logger, &g.degrades, CooldownKeyPrefix+entityID, window)
}

// Remaining reports how much of the live cooldown window is left for
// entityID. ok is false when no window is live.
func (g *CooldownGate) Remaining(ctx context.Context, entityID string) (time.Duration, bool) {
	key := CooldownKeyPrefix + entityID

	remaining, ok, err := g.primary.TTL(ctx, key)
	if err == nil {
		return remaining, ok
	}

	g.degrades.Add(1)
	g.logger.Warn("kv backend unavailable reading cooldown ttl, degrading",
		"key", key,
		"error", err,
	)

	remaining, ok, err = g.fallback.TTL(ctx, key)
	if err != nil {
		return 0, false
	}
	return remaining, ok
}

// Degrades reports how many calls fell back to the in-memory store.
func (g *CooldownGate) Degrades() int64 {
	return g.degrades.Load()
}
