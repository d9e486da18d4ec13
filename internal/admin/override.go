// Package admin provides the out-of-band recovery operations: clearing
// a dedupe key or a thread's cooldown so a legitimately-failed event can
// be redriven. Authorization is the calling layer's job.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ETAnderson/gatehouse/internal/gate"
	"github.com/ETAnderson/gatehouse/internal/kv"
)

// Override deletes directly on the namespaced keys, bypassing the
// gates. Clears hit both the primary and the fallback store so a record
// written during a degrade window cannot shadow the clear.
type Override struct {
	Primary  kv.Store
	Fallback kv.Store
	Logger   *slog.Logger
}

// ClearDedupeKey removes the seen-marker for key. Clearing an absent
// key is a no-op.
func (o Override) ClearDedupeKey(ctx context.Context, key string) error {
	return o.clear(ctx, "dedupe_key", key, gate.SeenKeyPrefix+key)
}

// ClearCooldown removes the live cooldown window for a thread, if any.
func (o Override) ClearCooldown(ctx context.Context, entityID string) error {
	return o.clear(ctx, "thread_id", entityID, gate.CooldownKeyPrefix+entityID)
}

func (o Override) clear(ctx context.Context, label string, id string, storeKey string) error {
	primaryErr := o.Primary.Delete(ctx, storeKey)

	if o.Fallback != nil {
		if err := o.Fallback.Delete(ctx, storeKey); err != nil && primaryErr == nil {
			primaryErr = err
		}
	}

	if primaryErr != nil {
		return fmt.Errorf("clear %s %q: %w", label, id, primaryErr)
	}

	o.Logger.Info("admin override cleared key", label, id)
	return nil
}
