package interp

import (
	"context"

	"github.com/boonlang/boon-runtime/list"
	"github.com/boonlang/boon-runtime/scope"
)

// ListVariable is the list-valued analogue of variable.Variable: it pairs
// a *list.List with the identity/scope bookkeeping the dependency graph
// needs, so List and ListBindingFunction combinators (spec.md §2) are
// reachable from AST construction the same way scalar Variables are.
type ListVariable struct {
	Name          string
	List          *list.List
	PersistenceID scope.PersistenceId
	Scope         *scope.Scope

	// Inputs holds upstream Lists alive for this ListVariable's lifetime,
	// matching variable.Variable's "a consumer must hold its producers"
	// invariant (spec.md §9).
	Inputs []*list.List
}

// ConstructInfo implements scope.Node so a ListVariable participates in
// the dependency graph and its debug rendering.
func (lv *ListVariable) ConstructInfo() scope.ConstructInfo {
	return scope.ConstructInfo{
		Type:        "List",
		ID:          lv.PersistenceID,
		Description: lv.Name,
	}
}

// Stop tears down the underlying list's actor loop.
func (lv *ListVariable) Stop() { lv.List.Stop() }

// BindList constructs a ListVariable around a freshly started list.List
// seeded with items, the list-valued equivalent of BindLiteral: a leaf
// reactive collection with no upstream dependency.
func BindList(ctx context.Context, c *Context, name string, span scope.Span, items []list.Item) *ListVariable {
	l := list.New(ctx, name, items)
	pid := scope.NewPersistenceId(span, c.Scope.Identity())
	return &ListVariable{Name: name, List: l, PersistenceID: pid, Scope: c.Scope}
}

// BindMap constructs a ListVariable running list.Map against source,
// registering a reactive dependency edge onto source in ctx's scope, the
// list-valued equivalent of BindDerived.
func BindMap(ctx context.Context, c *Context, name string, span scope.Span, source *ListVariable, eval list.ItemEvaluator) (*ListVariable, error) {
	l, err := list.Map(ctx, name, source.List, eval, nil)
	if err != nil {
		return nil, err
	}
	pid := scope.NewPersistenceId(span, c.Scope.Identity())
	lv := &ListVariable{Name: name, List: l, PersistenceID: pid, Scope: c.Scope, Inputs: []*list.List{source.List}}
	c.Scope.RegisterDependency(lv, source, scope.ModeReactive)
	return lv, nil
}

// BindRetain constructs a ListVariable running list.Retain against
// source, registering a reactive dependency edge onto source.
func BindRetain(ctx context.Context, c *Context, name string, span scope.Span, source *ListVariable, pred list.PredicateEvaluator) (*ListVariable, error) {
	l, err := list.Retain(ctx, name, source.List, pred, nil)
	if err != nil {
		return nil, err
	}
	pid := scope.NewPersistenceId(span, c.Scope.Identity())
	lv := &ListVariable{Name: name, List: l, PersistenceID: pid, Scope: c.Scope, Inputs: []*list.List{source.List}}
	c.Scope.RegisterDependency(lv, source, scope.ModeReactive)
	return lv, nil
}
