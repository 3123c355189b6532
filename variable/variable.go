// Package variable implements the named reactive cell (Variable) and
// field-chain resolution over Object/TaggedObject via switch-map
// semantics (VariableOrArgumentReference), per spec.md §3/§4.8.
//
// Grounded on pumped-go/executor.go's Controller[T] (owns an
// executor+scope, Get/Peek/Update/Release) for Variable's shape, and on
// executor_generated.go's Derive1..9 pattern for the field-chain
// dependency-wiring idiom.
package variable

import (
	"context"

	"github.com/boonlang/boon-runtime/scope"
	"github.com/boonlang/boon-runtime/value"
	"github.com/boonlang/boon-runtime/valueactor"
)

// Variable owns a name, a ValueActor, a persistence id, a scope, and
// optionally a link-event sender. Invariant (spec.md §3): a Variable keeps all referenced
// actors alive for its lifetime — Inputs holds them.
type Variable struct {
	Name          string
	Actor         *valueactor.ValueActor
	PersistenceID scope.PersistenceId
	Scope         *scope.Scope

	// LinkSender is set when this Variable is a LINK socket; forward
	// writers push into it instead of constructing a new cell.
	LinkSender chan<- value.Value

	// Inputs holds producer actors alive for this Variable's lifetime,
	// per spec.md §9 ("a consumer must hold its producers").
	Inputs []valueactor.Keepalive
}

// ConstructInfo implements scope.Node so Variable participates in the
// dependency graph and its debug rendering.
func (v *Variable) ConstructInfo() scope.ConstructInfo {
	return scope.ConstructInfo{
		Type:        "Variable",
		ID:          v.PersistenceID,
		Description: v.Name,
	}
}

// New constructs a Variable around an already-running ValueActor.
func New(name string, a *valueactor.ValueActor, pid scope.PersistenceId, s *scope.Scope, inputs ...valueactor.Keepalive) *Variable {
	return &Variable{Name: name, Actor: a, PersistenceID: pid, Scope: s, Inputs: inputs}
}

// Get resolves the variable's current value, per pumped-go/controller.go's
// Controller.Get.
func (v *Variable) Get(ctx context.Context) (value.Value, error) {
	return v.Actor.Value(ctx)
}

// Current peeks the stored value without waiting for a new one.
func (v *Variable) Current(ctx context.Context) (value.Value, error) {
	return v.Actor.CurrentValue(ctx)
}

// Stop tears down this Variable's actor. Callers are responsible for
// stopping held Inputs separately if they are uniquely owned.
func (v *Variable) Stop() { v.Actor.Stop() }
