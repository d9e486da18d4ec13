// Package pipeline orchestrates admission for a single inbound event:
// normalize, derive the dedupe key, pass the idempotency and cooldown
// gates, then dispatch the action through the retrying client.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ETAnderson/gatehouse/internal/event"
	"github.com/ETAnderson/gatehouse/internal/gate"
	"github.com/ETAnderson/gatehouse/internal/retry"
)

// Outcome is a terminal admission state. Suppressions are expected
// control flow, not errors; only OutcomeFailed carries an error.
type Outcome string

const (
	// OutcomeRejectedMalformed: no thread identity, dropped before any
	// key was derived (so no idempotency record exists for it).
	OutcomeRejectedMalformed Outcome = "rejected_malformed"

	// OutcomeSuppressedDuplicate: the dedupe key was already seen inside
	// the idempotency window. Normal for redelivered events.
	OutcomeSuppressedDuplicate Outcome = "suppressed_duplicate"

	// OutcomeSuppressedCooldown: a distinct event, but the thread acted
	// within its cooldown window.
	OutcomeSuppressedCooldown Outcome = "suppressed_cooldown"

	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Action is the side effect the pipeline admits, typically posting a
// reply to the event's thread. The decision id doubles as a provider
// idempotency key so retried calls are safe.
type Action func(ctx context.Context, e event.Event, idempotencyKey string) error

// Decision is the terminal record for one inbound event.
type Decision struct {
	ID        string
	Outcome   Outcome
	DedupeKey string
	ThreadID  string
	Elapsed   time.Duration
	Err       error
}

// Pipeline holds no per-event state; all admission state lives in the
// gates' backing store, so one Pipeline serves any number of concurrent
// events.
type Pipeline struct {
	Idempotency *gate.IdempotencyGate
	Cooldown    *gate.CooldownGate
	Retry       retry.Client
	Action      Action
	Logger      *slog.Logger

	// DedupeTTL is the idempotency window. Zero or less defaults to 24h.
	DedupeTTL time.Duration

	// CooldownWindow is the per-thread action spacing. Zero or less
	// disables the cooldown gate.
	CooldownWindow time.Duration
}

// Admit runs one event through the gates and, if both pass, dispatches
// the action. Suppressions are reported in the Decision, never as
// errors; the caller should acknowledge the event upstream regardless
// of the outcome to avoid delivery-retry storms.
func (p *Pipeline) Admit(ctx context.Context, raw event.Raw) Decision {
	start := time.Now()
	d := Decision{ID: uuid.NewString()}

	ev, err := event.Normalize(raw)
	if err != nil {
		d.Outcome = OutcomeRejectedMalformed
		d.Err = err
		return p.finish(d, start)
	}
	d.ThreadID = ev.ThreadID
	d.DedupeKey = event.DedupeKey(ev)

	if !p.Idempotency.Remember(ctx, d.DedupeKey, p.dedupeTTL()) {
		d.Outcome = OutcomeSuppressedDuplicate
		return p.finish(d, start)
	}

	if !p.Cooldown.TryAcquire(ctx, ev.ThreadID, p.CooldownWindow) {
		// The event stays marked seen and the cooldown holds: the window
		// throttles by time, not by whether an action ran.
		d.Outcome = OutcomeSuppressedCooldown
		return p.finish(d, start)
	}

	err = p.Retry.Do(ctx, func(ctx context.Context) error {
		return p.Action(ctx, ev, d.ID)
	})
	if err != nil {
		// The event is already marked seen, so a redelivery will be
		// suppressed rather than retried. Operators redrive via the
		// admin override when the failure was not a duplicate.
		d.Outcome = OutcomeFailed
		d.Err = err
		return p.finish(d, start)
	}

	d.Outcome = OutcomeSucceeded
	return p.finish(d, start)
}

func (p *Pipeline) finish(d Decision, start time.Time) Decision {
	d.Elapsed = time.Since(start)

	attrs := []any{
		"decision_id", d.ID,
		"outcome", string(d.Outcome),
		"dedupe_key", d.DedupeKey,
		"thread_id", d.ThreadID,
		"elapsed_ms", d.Elapsed.Milliseconds(),
	}

	switch d.Outcome {
	case OutcomeFailed:
		p.Logger.Error("event action failed after retries; clear the dedupe key to redrive",
			append(attrs, "error", d.Err)...)
	case OutcomeRejectedMalformed:
		p.Logger.Warn("event dropped, no thread identity", append(attrs, "error", d.Err)...)
	default:
		p.Logger.Info("event admission decided", attrs...)
	}
	return d
}

func (p *Pipeline) dedupeTTL() time.Duration {
	if p.DedupeTTL > 0 {
		return p.DedupeTTL
	}
	return 24 * time.Hour
}
