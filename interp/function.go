package interp

import (
	"context"
	"fmt"

	"github.com/boonlang/boon-runtime/value"
)

// Passed is the implicit argument threaded through function calls,
// available under the name PASSED and its field paths, per spec.md's
// glossary entry. It is itself a Value, usually an Object, so ordinary
// field-chain resolution (variable.ResolveSnapshot) applies to it.
type Passed struct {
	Value value.Value
}

// passedKey is the context key under which the current Passed context is
// threaded through nested function calls.
type passedKey struct{}

// WithPassed returns a derived context carrying p as the PASSED context
// for any function call evaluated beneath it.
func WithPassed(ctx context.Context, p Passed) context.Context {
	return context.WithValue(ctx, passedKey{}, p)
}

// PassedFrom retrieves the PASSED context threaded onto ctx, if any.
func PassedFrom(ctx context.Context) (Passed, bool) {
	p, ok := ctx.Value(passedKey{}).(Passed)
	return p, ok
}

// Function is a user-defined function body: given its resolved
// arguments, produce a result.
type Function func(ctx context.Context, args []value.Value) (value.Value, error)

// CallFunction evaluates fn against args, implementing spec.md §7's
// FLUSHED propagation rule: "FLUSHED is propagated through FunctionCall
// without invoking the function; the function call node monitors all
// argument streams and forwards a FLUSHED instead of calling." If any
// argument is (or wraps) a Flushed value, the first such Flushed value
// is returned immediately and fn is never invoked.
func CallFunction(ctx context.Context, fn Function, args []value.Value) (value.Value, error) {
	for _, a := range args {
		if value.IsFlushed(a) {
			return a, nil
		}
	}
	return fn(ctx, args)
}

// Registry is the interpreter's function lookup table: name -> body, per
// spec.md §2's "function registry" responsibility of the interpreter
// glue.
type Registry struct {
	fns map[string]Function
}

// NewRegistry constructs an empty function registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]Function)}
}

// Register adds or replaces the function bound to name.
func (r *Registry) Register(name string, fn Function) {
	r.fns[name] = fn
}

// Lookup returns the function bound to name, if any.
func (r *Registry) Lookup(name string) (Function, bool) {
	fn, ok := r.fns[name]
	return fn, ok
}

// Call resolves name in the registry and invokes it through
// CallFunction, threading passed as the PASSED context for the call's
// duration.
func (r *Registry) Call(ctx context.Context, name string, passed Passed, args []value.Value) (value.Value, error) {
	fn, ok := r.fns[name]
	if !ok {
		return nil, fmt.Errorf("interp: no function registered for %q", name)
	}
	return CallFunction(WithPassed(ctx, passed), fn, args)
}
