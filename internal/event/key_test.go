package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeKey_StrongKeyIsStable(t *testing.T) {
	e1 := Event{ThreadID: "T1", MessageID: "m1", OccurredAtMs: 1000}
	e2 := Event{ThreadID: "T1", MessageID: "m1", OccurredAtMs: 95000, ChangeFlag: "NEW"}

	// Identical message ids mean identical keys, no matter how the rest
	// of the redelivered payload drifted.
	assert.Equal(t, DedupeKey(e1), DedupeKey(e2))
	assert.Equal(t, "msg:m1", DedupeKey(e1))
}

func TestDedupeKey_StrongKeysDiffer(t *testing.T) {
	e1 := Event{ThreadID: "T1", MessageID: "m1"}
	e2 := Event{ThreadID: "T1", MessageID: "m2"}

	assert.NotEqual(t, DedupeKey(e1), DedupeKey(e2))
}

func TestDedupeKey_FallbackSameBucket(t *testing.T) {
	// Duplicate deliveries a few seconds apart land in the same bucket.
	e1 := Event{ThreadID: "T1", OccurredAtMs: 20_000, ChangeFlag: "NEW"}
	e2 := Event{ThreadID: "T1", OccurredAtMs: 23_500, ChangeFlag: "NEW"}

	assert.Equal(t, DedupeKey(e1), DedupeKey(e2))
	assert.Equal(t, "t:T1|b10:2|chg:NEW", DedupeKey(e1))
}

func TestDedupeKey_FallbackDiscriminates(t *testing.T) {
	base := Event{ThreadID: "T1", OccurredAtMs: 20_000, ChangeFlag: "NEW"}

	// More than one bucket apart: different key.
	later := Event{ThreadID: "T1", OccurredAtMs: 31_000, ChangeFlag: "NEW"}
	assert.NotEqual(t, DedupeKey(base), DedupeKey(later))

	// Different change flag: different key.
	changed := Event{ThreadID: "T1", OccurredAtMs: 20_000, ChangeFlag: "EDIT"}
	assert.NotEqual(t, DedupeKey(base), DedupeKey(changed))

	// Different thread: different key.
	other := Event{ThreadID: "T2", OccurredAtMs: 20_000, ChangeFlag: "NEW"}
	assert.NotEqual(t, DedupeKey(base), DedupeKey(other))
}

func TestDedupeKey_FallbackEmptyChangeFlag(t *testing.T) {
	e := Event{ThreadID: "T1", OccurredAtMs: 20_000}
	assert.Equal(t, "t:T1|b10:2|chg:-", DedupeKey(e))
}
