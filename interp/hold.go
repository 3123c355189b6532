// Package interp implements the interpreter/evaluator glue that drives
// HOLD/THEN/WHEN/WHILE accumulator and pattern-matching constructs over
// the already-built ValueActor/List/Variable primitives, and the
// FunctionCall/FLUSHED propagation and PASSED-context plumbing around
// user function calls, per spec.md §4 and §9.
//
// Grounded on pumped-go/scope.go's Exec/flow-dependency-resolution loop
// (resolve dependencies, then run a factory against resolved values) for
// "drive an AST node into actor construction," generalized from a
// one-shot flow execution to a long-running reactive accumulator.
package interp

import (
	"context"
	"fmt"

	"github.com/boonlang/boon-runtime/actor"
	"github.com/boonlang/boon-runtime/value"
	"github.com/boonlang/boon-runtime/valueactor"
)

// TransformFn is a THEN body: given the current HOLD state and the event
// value that triggered it, produce the next state.
type TransformFn func(ctx context.Context, state value.Value, event value.Value) (value.Value, error)

// Hold is the `initial |> HOLD state { events |> THEN { ... } }`
// accumulator: an initial value plus an event stream combined through a
// transform, yielding a reactive cell (spec.md glossary: HOLD).
//
// Sequencing is serialized through a BackpressureCoordinator so each
// THEN body observes the prior state write before the next event is
// processed (spec.md §4.3, §9): the coordinator's acquire/release pair
// brackets each fold step.
type Hold struct {
	actor  *valueactor.ValueActor
	coord  *actor.BackpressureCoordinator
	cancel context.CancelFunc
}

// NewHold starts a Hold seeded with initial, folding every value from
// events through transform.
func NewHold(ctx context.Context, name string, initial value.Value, events <-chan value.Value, transform TransformFn) *Hold {
	ctx, cancel := context.WithCancel(ctx)
	coord := actor.NewBackpressureCoordinator(ctx)

	in := make(chan value.Value, 1)
	in <- initial
	va := valueactor.New(ctx, name, in)

	h := &Hold{actor: va, coord: coord, cancel: cancel}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := coord.Acquire(ctx); err != nil {
					return
				}
				cur, err := va.CurrentValue(ctx)
				if err == nil {
					if next, terr := transform(ctx, cur, ev); terr == nil {
						va.StoreValueDirectly(ctx, next)
					}
				}
				coord.Release()
			}
		}
	}()

	return h
}

// Actor exposes the underlying reactive cell for subscription/current-value
// reads.
func (h *Hold) Actor() *valueactor.ValueActor { return h.actor }

// Stop tears down the hold's event-processing goroutine, coordinator, and
// backing actor.
func (h *Hold) Stop() {
	h.cancel()
	h.coord.Close()
	h.actor.Stop()
}

// Then is the single-shot THEN combinator standing alone (outside a
// HOLD): it evaluates body against the next value from source, once, and
// stores the result into an output ValueActor. Used where a THEN body
// isn't folding HOLD state but just reacting to one event.
func Then(ctx context.Context, name string, source *valueactor.ValueActor, body func(ctx context.Context, v value.Value) (value.Value, error)) (*valueactor.ValueActor, error) {
	sub, err := source.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("interp: Then subscribe: %w", err)
	}
	in := make(chan value.Value, 1)
	out := valueactor.New(ctx, name, in)
	go func() {
		defer close(in)
		select {
		case <-ctx.Done():
			return
		case v, ok := <-sub.Chan():
			if !ok {
				return
			}
			if r, err := body(ctx, v); err == nil {
				out.StoreValueDirectly(ctx, r)
			}
		}
	}()
	return out, nil
}
