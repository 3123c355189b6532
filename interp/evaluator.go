package interp

import (
	"context"

	"github.com/boonlang/boon-runtime/scope"
	"github.com/boonlang/boon-runtime/value"
	"github.com/boonlang/boon-runtime/valueactor"
	"github.com/boonlang/boon-runtime/variable"
)

// Context bundles the per-evaluation state the interpreter threads
// through AST node construction: the enclosing scope and the function
// registry, per spec.md §2's
// "Interpreter / evaluator glue" responsibility ("drives the AST into
// actor construction; manages scopes, contexts, function registry").
type Context struct {
	Scope    *scope.Scope
	Registry *Registry
}

// NewContext constructs a root evaluation context with a fresh function
// registry.
func NewContext(s *scope.Scope) *Context {
	return &Context{Scope: s, Registry: NewRegistry()}
}

// Child derives a nested evaluation context for one dynamic instance of
// a source position (e.g. one list item, one function call), sharing the
// registry but carrying a freshly scoped child Scope.
func (c *Context) Child(index int, pid scope.PersistenceId) *Context {
	return &Context{Scope: c.Scope.NewChild(index, pid), Registry: c.Registry}
}

// BindLiteral constructs a Variable around a freshly started ValueActor
// seeded with v, registering it as a dependency-graph node in ctx's
// scope. This is the leaf case of "drive the AST into actor
// construction": a Literal node becomes a one-shot-seeded reactive cell.
func BindLiteral(ctx context.Context, c *Context, name string, span scope.Span, v value.Value) *variable.Variable {
	in := make(chan value.Value, 1)
	in <- v
	a := valueactor.New(ctx, name, in)
	pid := scope.NewPersistenceId(span, c.Scope.Identity())
	return variable.New(name, a, pid, c.Scope)
}

// BindDerived constructs a Variable whose ValueActor forwards every
// value from source through transform, registering a reactive dependency
// edge from the new Variable onto source in ctx's scope. This is the
// general case for Map/arithmetic/comparison "combinator" AST nodes
// named in spec.md §2's data-flow summary.
func BindDerived(ctx context.Context, c *Context, name string, span scope.Span, source *variable.Variable, transform func(value.Value) (value.Value, error)) (*variable.Variable, error) {
	sub, err := source.Actor.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	in := make(chan value.Value, 1)
	a := valueactor.New(ctx, name, in, valueactor.WithInputs(source.Actor))

	go func() {
		defer close(in)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-sub.Chan():
				if !ok {
					return
				}
				if value.IsFlushed(v) {
					a.StoreValueDirectly(ctx, v)
					continue
				}
				r, err := transform(v)
				if err != nil {
					continue
				}
				a.StoreValueDirectly(ctx, r)
			}
		}
	}()

	pid := scope.NewPersistenceId(span, c.Scope.Identity())
	v := variable.New(name, a, pid, c.Scope, source.Actor)
	c.Scope.RegisterDependency(v, source, scope.ModeReactive)
	return v, nil
}
