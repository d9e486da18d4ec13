package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ETAnderson/gatehouse/internal/event"
	"github.com/ETAnderson/gatehouse/internal/pipeline"
)

type countingAdmitter struct {
	mu   sync.Mutex
	seen []event.Raw
}

func (c *countingAdmitter) Admit(ctx context.Context, raw event.Raw) pipeline.Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, raw)
	return pipeline.Decision{Outcome: pipeline.OutcomeSucceeded}
}

func (c *countingAdmitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func testPoolLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPool_DrainsQueueIntoPipeline(t *testing.T) {
	admitter := &countingAdmitter{}
	pool := NewPool(admitter, 16, 2, testPoolLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = pool.Run(ctx) }()

	for i := 0; i < 10; i++ {
		require.True(t, pool.Enqueue(event.Raw{ObjectID: "T1", MessageID: event.FlexString(rune('a' + i))}))
	}

	deadline := time.Now().Add(2 * time.Second)
	for admitter.count() < 10 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 10, admitter.count())
	assert.Equal(t, 0, pool.Pending())
}

func TestPool_EnqueueReportsFullQueue(t *testing.T) {
	admitter := &countingAdmitter{}
	pool := NewPool(admitter, 2, 1, testPoolLogger())

	// No workers running: the queue fills and Enqueue backpressures.
	assert.True(t, pool.Enqueue(event.Raw{ObjectID: "T1"}))
	assert.True(t, pool.Enqueue(event.Raw{ObjectID: "T2"}))
	assert.False(t, pool.Enqueue(event.Raw{ObjectID: "T3"}))
	assert.Equal(t, 2, pool.Pending())
}

func TestPool_RunRequiresPipeline(t *testing.T) {
	pool := NewPool(nil, 1, 1, testPoolLogger())
	assert.Error(t, pool.Run(context.Background()))
}

// slowAdmitter reports whether its admission context was cancelled
// before the (simulated) action could finish.
type slowAdmitter struct {
	started chan struct{}
	result  chan error
}

func (a *slowAdmitter) Admit(ctx context.Context, raw event.Raw) pipeline.Decision {
	close(a.started)
	select {
	case <-ctx.Done():
		a.result <- ctx.Err()
	case <-time.After(100 * time.Millisecond):
		a.result <- nil
	}
	return pipeline.Decision{Outcome: pipeline.OutcomeSucceeded}
}

func TestPool_CancelDoesNotAbortInFlightAdmission(t *testing.T) {
	admitter := &slowAdmitter{
		started: make(chan struct{}),
		result:  make(chan error, 1),
	}
	pool := NewPool(admitter, 4, 1, testPoolLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = pool.Run(ctx) }()

	require.True(t, pool.Enqueue(event.Raw{ObjectID: "T1"}))

	// Cancel while the admission is mid-flight. The worker must let it
	// run to completion and only stop pulling new events.
	<-admitter.started
	cancel()

	select {
	case err := <-admitter.result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("admission did not finish")
	}
}

func TestPool_StopsOnCancel(t *testing.T) {
	admitter := &countingAdmitter{}
	pool := NewPool(admitter, 4, 2, testPoolLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after cancel")
	}
}
