package interp

import (
	"context"
	"sync/atomic"

	"github.com/boonlang/boon-runtime/value"
)

// WhenArm is one pattern arm of a WHEN: Match decides whether the arm
// fires for a given value, Body produces the arm's result.
type WhenArm struct {
	Match func(value.Value) bool
	Body  func(ctx context.Context, v value.Value) (value.Value, error)
}

// When evaluates arms in order against v and runs the first matching
// arm's body; returns ok=false if no arm matched (spec.md glossary:
// WHEN — "event-triggered match").
func When(ctx context.Context, v value.Value, arms []WhenArm) (value.Value, bool, error) {
	for _, arm := range arms {
		if arm.Match(v) {
			r, err := arm.Body(ctx, v)
			if err != nil {
				return nil, true, err
			}
			return r, true, nil
		}
	}
	return nil, false, nil
}

// scopeGeneration is a process-wide monotonic counter: every
// SubscriptionScope ever created gets a strictly increasing generation
// number from it, independent of arm name.
var scopeGeneration atomic.Uint64

// SubscriptionScope is an atomic "cancelled" flag plus a cancel func, the
// Drop-guard construct spec.md §5 names for terminating every stream a
// WHILE arm created when the arm switches away. It also carries a
// monotonic generation number: a rapid A→B→A arm flip produces two
// distinct SubscriptionScopes for arm "A", and a stale in-flight value
// from the first one's cancelled-but-not-yet-unwound async work can be
// told apart from the second one's by comparing generations, which
// Cancelled() alone cannot do once the first scope's goroutine races
// past its own Cancelled() check.
type SubscriptionScope struct {
	cancelled  atomic.Bool
	cancel     context.CancelFunc
	ctx        context.Context
	generation uint64
}

// NewSubscriptionScope derives a child context from parent; combinators
// that run inside the scope should select on Done() (or poll Cancelled())
// at each step, per spec.md §5.
func NewSubscriptionScope(parent context.Context) *SubscriptionScope {
	ctx, cancel := context.WithCancel(parent)
	return &SubscriptionScope{cancel: cancel, ctx: ctx, generation: scopeGeneration.Add(1)}
}

// Context returns the scope's derived context; streams created under this
// scope should be built from it so cancelling the scope stops them.
func (s *SubscriptionScope) Context() context.Context { return s.ctx }

// Cancelled reports whether the scope has been cancelled.
func (s *SubscriptionScope) Cancelled() bool { return s.cancelled.Load() }

// Generation returns this scope's creation order, strictly increasing
// across every SubscriptionScope created in the process.
func (s *SubscriptionScope) Generation() uint64 { return s.generation }

// StaleFor reports whether this scope is stale relative to gen, i.e.
// whether gen differs from this scope's own generation — true when gen
// belongs to the scope that replaced this one after an A→B→A flip.
func (s *SubscriptionScope) StaleFor(gen uint64) bool { return gen != s.generation }

// Cancel marks the scope cancelled and cancels its derived context.
func (s *SubscriptionScope) Cancel() {
	s.cancelled.Store(true)
	s.cancel()
}

// ArmSelector picks the active WHILE arm name for a given value.
type ArmSelector func(value.Value) string

// ArmFactory constructs a new SubscriptionScope-bound arm: it should
// build whatever streams the arm needs from scope.Context() and return
// the arm's current output.
type ArmFactory func(scope *SubscriptionScope, v value.Value) (value.Value, error)

// While runs the arm selector on each value from source and swaps the
// active arm's SubscriptionScope whenever the selected arm name changes:
// the previous scope is cancelled (terminating everything it created)
// before the new arm's factory runs, per spec.md's "WHILE arm switch"
// end-to-end scenario.
type While struct {
	ctx       context.Context
	selector  ArmSelector
	factories map[string]ArmFactory
	current   string
	scope     *SubscriptionScope
}

// NewWhile constructs a While driver over the given arm factories.
func NewWhile(ctx context.Context, selector ArmSelector, factories map[string]ArmFactory) *While {
	return &While{ctx: ctx, selector: selector, factories: factories}
}

// Advance evaluates the selector against v; if the selected arm differs
// from the currently active one, the previous arm's scope is cancelled
// and a fresh scope is created before invoking the new arm's factory.
func (w *While) Advance(v value.Value) (value.Value, error) {
	arm := w.selector(v)
	if arm != w.current || w.scope == nil {
		if w.scope != nil {
			w.scope.Cancel()
		}
		w.scope = NewSubscriptionScope(w.ctx)
		w.current = arm
	}
	factory, ok := w.factories[arm]
	if !ok {
		return nil, nil
	}
	return factory(w.scope, v)
}

// CurrentGeneration returns the active arm scope's generation, or 0 if
// Advance has never run.
func (w *While) CurrentGeneration() uint64 {
	if w.scope == nil {
		return 0
	}
	return w.scope.Generation()
}

// Stop cancels the currently active arm's scope, if any.
func (w *While) Stop() {
	if w.scope != nil {
		w.scope.Cancel()
	}
}
