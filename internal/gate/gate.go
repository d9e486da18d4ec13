// Package gate holds the two admission gates: the idempotency gate
// ("have I seen this event") and the cooldown gate ("have I recently
// acted on this thread"). Both are thin wrappers over one atomic
// conditional-set on a kv.Store.
//
// The gates share a degrade policy: a failure of the primary backend is
// never surfaced to the pipeline. The call falls back to a process-local
// store, the degrade is logged at warning level and counted, and the
// gate still returns correct boolean semantics for that call. During an
// outage, suppression is therefore best-effort per process rather than
// global, which is an accepted trade-off for this workload.
package gate

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ETAnderson/gatehouse/internal/kv"
)

// Key namespaces. Disjoint so clearing one never affects the other.
const (
	SeenKeyPrefix     = "seen:"
	CooldownKeyPrefix = "cooldown:"
)

// setIfAbsentDegrading runs the conditional set against primary, and on
// error retries it against fallback. The final bool is authoritative
// for this call; only a fallback failure (which should not happen for an
// in-process store) makes the answer a guess, and then we admit rather
// than silently drop the event.
func setIfAbsentDegrading(
	ctx context.Context,
	primary kv.Store,
	fallback kv.Store,
	logger *slog.Logger,
	degrades *atomic.Int64,
	key string,
	ttl time.Duration,
) bool {
	stored, err := primary.SetIfAbsent(ctx, key, "1", ttl)
	if err == nil {
		return stored
	}

	degrades.Add(1)
	logger.Warn("kv backend unavailable, degrading to in-memory fallback",
		"key", key,
		"error", err,
	)

	stored, err = fallback.SetIfAbsent(ctx, key, "1", ttl)
	if err != nil {
		logger.Error("in-memory fallback failed, admitting",
			"key", key,
			"error", err,
		)
		return true
	}
	return stored
}
