// Package dataflow implements the differential-style dataflow compiler:
// a second back-end for the same AST that lowers reactive programs to a
// graph of typed operator specs (not actors), per spec.md §4.11.
//
// Grounded on original_source/crates/boon/src/platform/browser/
// engine_dd/core/compile.rs's CompiledProgram::{Static, Dataflow} split
// for the static-vs-dataflow decision, and on the teacher's
// ReactiveGraph adjacency-list shape (pumped-go/graph.go) for the
// operator graph's edge representation.
package dataflow

import "fmt"

// VarId identifies a scalar operator node in the graph.
type VarId int

// InputId identifies an external-event input node.
type InputId int

// ListKey is the 4-digit key assigned to a list item by AppendNewKeyed,
// per spec.md §6's list-item path segment convention.
type ListKey string

// InputKind mirrors eventbus.InputKind for the operators that consume
// external events, kept distinct so the dataflow package has no import
// dependency on eventbus (operators describe inputs abstractly; binding
// them to a live eventbus.Bus happens in the executor, not here).
type InputKind int

const (
	LinkPress InputKind = iota
	LinkClick
	KeyDown
	TextChange
	Blur
	Focus
	DoubleClick
	Timer
	Router
)

// Operator is the common interface every operator spec implements: it
// reports its own output VarId (scalar operators) so the graph can be
// built as an edge list keyed by VarId.
type Operator interface {
	Output() VarId
	isOperator()
}

type base struct {
	out VarId
}

func (b base) Output() VarId { return b.out }
func (base) isOperator()     {}

// Literal is a constant scalar value injected into the graph.
type Literal struct {
	base
	Value any
}

// LiteralList is a constant list of scalar values injected into the graph.
type LiteralList struct {
	base
	Items []any
}

// Input is an external source: a LINK event, Timer, or Router input.
type Input struct {
	base
	ID   InputId
	Kind InputKind
	Path string
}

// Map transforms every value from Source through F.
type Map struct {
	base
	Source VarId
	F      func(any) any
}

// FlatMap transforms every value from Source into zero or more outputs.
type FlatMap struct {
	base
	Source VarId
	F      func(any) []any
}

// Join combines the latest values of Left and Right through Combine.
type Join struct {
	base
	Left, Right VarId
	Combine     func(l, r any) any
}

// HoldState is a scalar accumulator: Initial seeds the state; each value
// from Events is folded through Transform against the current state.
type HoldState struct {
	base
	Initial   any
	Events    VarId
	Transform func(state, event any) any
}

// HoldLatest emits the most recently produced value across all Sources.
type HoldLatest struct {
	base
	Sources []VarId
}

// Concat merges all Sources' emissions into one stream, in arrival order.
type Concat struct {
	base
	Sources []VarId
}

// Skip drops the first Count emissions from Source.
type Skip struct {
	base
	Source VarId
	Count  int
}

// KeyedOperator is the marker interface for operators whose inputs and
// outputs are (ListKey, Value) pairs, per spec.md's "Keyed operator"
// glossary entry.
type KeyedOperator interface {
	Operator
	isKeyedOperator()
}

type keyedBase struct {
	base
}

func (keyedBase) isKeyedOperator() {}

// AppendNewKeyed assigns a monotonically increasing 4-digit ListKey to
// each value from Source, starting at InitialCounter.
type AppendNewKeyed struct {
	keyedBase
	Source         VarId
	InitialCounter int
}

// MapToKeyed demultiplexes a wildcard Input's events to per-key streams
// by extracting the key segment from the event path via Classify.
type MapToKeyed struct {
	keyedBase
	Source   VarId
	Classify func(path string) (ListKey, bool)
}

// ListRetain keeps only keyed values for which Predicate holds.
type ListRetain struct {
	keyedBase
	Source    VarId
	Predicate func(any) bool
}

// ListRetainReactive keeps only keyed values for which Predicate holds,
// where Predicate may additionally depend on a reactive filter state
// (spec.md's "Filtered count" scenario — switching the active filter
// re-evaluates every item).
type ListRetainReactive struct {
	keyedBase
	List        VarId
	FilterState VarId
	Predicate   func(filterState, value any) bool
}

// ListMap transforms every keyed value through F, preserving its key.
type ListMap struct {
	keyedBase
	Source VarId
	F      func(any) any
}

// ListMapWithKey transforms every keyed value through F, which may also
// inspect the key.
type ListMapWithKey struct {
	keyedBase
	Source VarId
	F      func(key ListKey, value any) any
}

// KeyedHoldState holds per-key accumulator state. Transform returning the
// Unit sentinel self-removes the key. Broadcasts, when non-nil, carries mass-mutation events
// (e.g. "toggle all") that BroadcastHandler turns into a batch of
// (key, optional new value) pairs.
type KeyedHoldState struct {
	keyedBase
	Initial          any
	Events           VarId
	Transform        func(state, event any) any
	Broadcasts       VarId
	BroadcastHandler func(broadcast any, keys []ListKey) []KeyedAssignment
}

// KeyedAssignment is one (key, optional value) pair produced by a
// KeyedHoldState broadcast handler; a nil Value removes the key.
type KeyedAssignment struct {
	Key   ListKey
	Value any
}

// Unit is the self-removal sentinel a KeyedHoldState.Transform returns to
// remove its own key from the keyed collection.
var Unit = struct{ unit byte }{}

// ListAppend appends NewItems (a scalar source of items to add) onto List.
type ListAppend struct {
	keyedBase
	List     VarId
	NewItems VarId
}

// ListRemove removes the keys produced by Removals from List.
type ListRemove struct {
	keyedBase
	List     VarId
	Removals VarId
}

// KeyedConcat merges all Sources' keyed emissions into one keyed stream.
type KeyedConcat struct {
	keyedBase
	Sources []VarId
}

// AssembleList materializes a keyed stream into an ordered list value, for
// handoff to a non-keyed consumer (e.g. the document tree).
type AssembleList struct {
	base
	Source VarId
}

// ListCount emits the current item count of a keyed Source on each
// structural change.
type ListCount struct {
	base
	Source VarId
}

// SideEffectKind enumerates the at-most-once notification kinds a
// SideEffect operator can emit, per spec.md §4.11.
type SideEffectKind int

const (
	PersistHold SideEffectKind = iota
	RouterGoTo
)

// SideEffect fires Effect at most once per emission from Source; used for
// persistence writes and router navigation.
type SideEffect struct {
	Source VarId
	Kind   SideEffectKind
	Key    string // hold name for PersistHold, route for RouterGoTo
	Effect func(value any)
}

func (s SideEffect) String() string {
	return fmt.Sprintf("SideEffect{source=%d, kind=%d, key=%q}", s.Source, s.Kind, s.Key)
}
