package variable

import (
	"context"
	"fmt"

	"github.com/boonlang/boon-runtime/value"
)

// AsVariable recovers a *Variable from a value.Field.Handle (stored as
// `any` to avoid the value<->variable import cycle documented on
// value.Field).
func AsVariable(handle any) (*Variable, bool) {
	v, ok := handle.(*Variable)
	return v, ok
}

// FieldOf resolves name on an Object/TaggedObject Value to its Variable
// handle.
func FieldOf(v value.Value, name string) (*Variable, error) {
	var handle any
	var ok bool
	switch t := v.(type) {
	case value.Object:
		handle, ok = t.Get(name)
	case value.TaggedObject:
		handle, ok = t.Get(name)
	default:
		return nil, fmt.Errorf("variable: cannot access field %q on %T", name, v)
	}
	if !ok {
		return nil, fmt.Errorf("variable: no field %q", name)
	}
	variable, ok := AsVariable(handle)
	if !ok {
		return nil, fmt.Errorf("variable: field %q handle is not a Variable (%T)", name, handle)
	}
	return variable, nil
}

// ResolveSnapshot implements a.b.c.d field-chain resolution in Snapshot
// context (THEN/WHEN bodies): each hop awaits a single current value, per
// spec.md §4.8.
func ResolveSnapshot(ctx context.Context, root *Variable, path []string) (value.Value, error) {
	current := root
	var v value.Value
	var err error
	for i, field := range path {
		v, err = current.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("variable: resolving %q (hop %d): %w", field, i, err)
		}
		current, err = FieldOf(v, field)
		if err != nil {
			return nil, err
		}
	}
	return current.Get(ctx)
}

// SwitchMapReference implements a.b.c.d field-chain resolution in
// Streaming context: whenever the outer value changes, the current inner
// subscription is cancelled and a new one to the new field is started.
// Before switching, the current inner channel is polled once
// non-blockingly; a value already buffered there is forwarded first, so
// a rapid double-emission on the outer value doesn't silently drop the
// earlier item underneath the switch (spec.md §4.8).
//
// Grounded (no direct teacher precedent — the teacher's Controller has no
// stream combinators) on the Roasbeef/substrate actor's context-merge-
// and-cancel idiom for "cancel old, start new" semantics: each switch
// spawns the new inner goroutine under a fresh child context and cancels
// the previous one.
func SwitchMapReference(ctx context.Context, root *Variable, path []string) (<-chan value.Value, error) {
	out := make(chan value.Value, 1)

	outerSub, err := root.Actor.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		defer close(out)

		var innerCh chan value.Value
		var innerCancel context.CancelFunc
		stopInner := func() {
			if innerCancel != nil {
				innerCancel()
				innerCancel = nil
			}
			innerCh = nil
		}
		defer stopInner()

		startInner := func(outerVal value.Value) {
			innerCtx, cancel := context.WithCancel(ctx)
			innerCancel = cancel
			innerCh = make(chan value.Value, 1)
			go streamFieldChain(innerCtx, outerVal, path, innerCh)
		}

		for {
			select {
			case <-ctx.Done():
				return

			case outerVal, ok := <-outerSub.Chan():
				if !ok {
					return
				}
				if innerCh != nil {
					// defer the switch by one tick: a value already
					// buffered on the old inner channel belongs to the
					// field chain that was current a moment ago and must
					// still reach out before that chain is torn down.
					select {
					case v, ok := <-innerCh:
						if ok {
							select {
							case out <- v:
							case <-ctx.Done():
								return
							}
						}
					default:
					}
				}
				stopInner()
				startInner(outerVal)

			case v, ok := <-innerCh:
				if !ok {
					// the leaf stream ended on its own (not via a
					// switch): drop the channel so this case stops
					// firing every iteration on the now-closed channel.
					innerCh = nil
					continue
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func streamFieldChain(ctx context.Context, outerVal value.Value, path []string, out chan<- value.Value) {
	defer close(out)
	current := outerVal
	for i, field := range path {
		var handle any
		var ok bool
		switch t := current.(type) {
		case value.Object:
			handle, ok = t.Get(field)
		case value.TaggedObject:
			handle, ok = t.Get(field)
		default:
			return
		}
		if !ok {
			return
		}
		v, ok := AsVariable(handle)
		if !ok {
			return
		}
		if i == len(path)-1 {
			sub, err := v.Actor.Subscribe(ctx)
			if err != nil {
				return
			}
			for {
				select {
				case <-ctx.Done():
					return
				case val, ok := <-sub.Chan():
					if !ok {
						return
					}
					select {
					case out <- val:
					case <-ctx.Done():
						return
					}
				}
			}
		}
		next, err := v.Get(ctx)
		if err != nil {
			return
		}
		current = next
	}
}
