package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrAlreadyAwaited is returned when Await is called more than once on the same Queue.
var ErrAlreadyAwaited = errors.New("queue: already awaited")

// Unit is a deferred piece of work. It reports completion by returning, exactly once.
type Unit func(ctx context.Context) error

// Queue runs deferred units with a concurrency cap and first-error-wins semantics.
// A Queue is single use.
type Queue struct {
	concurrency int

	mu      sync.Mutex
	units   []Unit
	awaited bool
}

// New creates a queue running at most concurrency units at a time. Values below 1 mean 1.
func New(concurrency int) *Queue {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Queue{concurrency: concurrency}
}

// Defer registers a unit. Units deferred after Await has started are ignored.
func (q *Queue) Defer(unit Unit) {
	if unit == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.awaited {
		return
	}
	q.units = append(q.units, unit)
}

// Len returns the number of registered units.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.units)
}

// Await runs every registered unit and returns once: with the first unit error, with the
// context error if ctx ends before all units ran, or nil when every unit succeeded.
// With zero units it returns nil immediately.
func (q *Queue) Await(ctx context.Context) error {
	q.mu.Lock()
	if q.awaited {
		q.mu.Unlock()
		return ErrAlreadyAwaited
	}
	q.awaited = true
	units := q.units
	q.mu.Unlock()

	if len(units) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.concurrency)

	var completed atomic.Int64

	for _, unit := range units {
		// g.Go blocks until a slot frees up, so the failure of an earlier unit is
		// visible through gctx by the time the next one is scheduled.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if err := unit(gctx); err != nil {
				return err
			}
			completed.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if int(completed.Load()) == len(units) {
		return nil
	}
	return ctx.Err()
}
