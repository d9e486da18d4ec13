// Package worker drains the inbound event queue into the admission
// pipeline with a bounded pool of goroutines, so the webhook handler
// can acknowledge receipt without waiting on gates or the upstream API.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ETAnderson/gatehouse/internal/event"
	"github.com/ETAnderson/gatehouse/internal/pipeline"
)

// Admitter is what the pool drives; satisfied by *pipeline.Pipeline.
type Admitter interface {
	Admit(ctx context.Context, raw event.Raw) pipeline.Decision
}

type Pool struct {
	Pipeline    Admitter
	Logger      *slog.Logger
	Concurrency int // <= 0 defaults to 4

	queue chan event.Raw
}

func NewPool(p Admitter, queueSize int, concurrency int, logger *slog.Logger) *Pool {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{
		Pipeline:    p,
		Logger:      logger,
		Concurrency: concurrency,
		queue:       make(chan event.Raw, queueSize),
	}
}

// Enqueue hands an event to the pool without blocking. It returns false
// when the queue is full; the handler turns that into backpressure
// (503) so the provider redelivers later, where the idempotency gate
// will sort out any duplicates.
func (p *Pool) Enqueue(raw event.Raw) bool {
	select {
	case p.queue <- raw:
		return true
	default:
		return false
	}
}

// Run blocks, admitting queued events until ctx is cancelled. Events
// already picked up finish their current admission before workers exit.
func (p *Pool) Run(ctx context.Context) error {
	if p.Pipeline == nil {
		return errors.New("pipeline is nil")
	}

	n := p.Concurrency
	if n <= 0 {
		n = 4
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			p.drain(ctx)
		}()
	}

	wg.Wait()
	return ctx.Err()
}

func (p *Pool) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-p.queue:
			// The run context only governs queue selection. An event
			// already picked up admits on a detached context so shutdown
			// does not abort its retry sleeps or an in-flight post.
			p.Pipeline.Admit(context.WithoutCancel(ctx), raw)
		}
	}
}

// Pending reports how many events are queued but not yet picked up.
func (p *Pool) Pending() int {
	return len(p.queue)
}
