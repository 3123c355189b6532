package actor

import "context"

// BackpressureCoordinator grants at-most-one permit at a time. It
// serializes THEN-body evaluations with HOLD state writes so each body
// observes the prior state write before the next request is even
// dequeued.
//
// Grounded on pumped-go/scope.go's Update() "one mutation settles before
// the next begins" pattern, reimplemented here as a permit actor backed by
// bounded(1) channels so the pending-queue itself cannot grow unbounded.
type BackpressureCoordinator struct {
	requests chan chan struct{}
	release  chan struct{}
	loop     *ActorLoop
}

// NewBackpressureCoordinator starts the coordinator's loop.
func NewBackpressureCoordinator(ctx context.Context) *BackpressureCoordinator {
	c := &BackpressureCoordinator{
		requests: make(chan chan struct{}, 1),
		release:  make(chan struct{}, 1),
	}
	c.loop = NewActorLoop(ctx, "backpressure-coordinator", nil, c.run)
	return c
}

func (c *BackpressureCoordinator) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case grant := <-c.requests:
			select {
			case grant <- struct{}{}:
			case <-ctx.Done():
				close(grant)
				return
			}
			// hold the permit until release, or shutdown.
			select {
			case <-c.release:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Acquire blocks until a permit is granted or ctx is cancelled.
func (c *BackpressureCoordinator) Acquire(ctx context.Context) error {
	grant := make(chan struct{})
	select {
	case c.requests <- grant:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-grant:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release signals that the current permit holder is done. Non-blocking;
// best-effort during shutdown (a failed release during teardown is not an
// error the caller need observe, per spec.md §7).
func (c *BackpressureCoordinator) Release() {
	select {
	case c.release <- struct{}{}:
	default:
	}
}

// Close stops the coordinator's loop.
func (c *BackpressureCoordinator) Close() {
	c.loop.Stop()
}
