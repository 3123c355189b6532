package interp

import (
	"context"
	"testing"
	"time"

	"github.com/boonlang/boon-runtime/list"
	"github.com/boonlang/boon-runtime/scope"
	"github.com/boonlang/boon-runtime/value"
)

func TestHoldCounterScenario(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan value.Value)
	h := NewHold(ctx, "counter", value.NewNumber(0), events, func(_ context.Context, state, _ value.Value) (value.Value, error) {
		return value.NewNumber(state.(value.Number).V + 1), nil
	})
	defer h.Stop()

	for i := 0; i < 3; i++ {
		events <- value.NewTag("LinkPress")
	}
	time.Sleep(20 * time.Millisecond)

	got, err := h.Actor().CurrentValue(ctx)
	if err != nil {
		t.Fatalf("CurrentValue: %v", err)
	}
	if got.(value.Number).V != 3 {
		t.Fatalf("got %v, want 3", got)
	}
}

func TestHoldSequentialUpdateNoSkips(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan value.Value)
	h := NewHold(ctx, "state", value.NewNumber(0), events, func(_ context.Context, state, _ value.Value) (value.Value, error) {
		return value.NewNumber(state.(value.Number).V + 1), nil
	})
	defer h.Stop()

	for i := 0; i < 5; i++ {
		events <- value.NewTag("pulse")
	}
	time.Sleep(20 * time.Millisecond)

	got, _ := h.Actor().CurrentValue(ctx)
	if got.(value.Number).V != 5 {
		t.Fatalf("got %v, want 5 (no intermediate update skipped)", got)
	}
}

func TestWhenFirstMatchWins(t *testing.T) {
	ctx := context.Background()
	arms := []WhenArm{
		{
			Match: func(v value.Value) bool { return v.(value.Tag).Symbol == "A" },
			Body: func(_ context.Context, v value.Value) (value.Value, error) {
				return value.NewText("matched A"), nil
			},
		},
		{
			Match: func(value.Value) bool { return true },
			Body: func(_ context.Context, v value.Value) (value.Value, error) {
				return value.NewText("fallback"), nil
			},
		},
	}

	got, ok, err := When(ctx, value.NewTag("A"), arms)
	if err != nil || !ok {
		t.Fatalf("When: ok=%v err=%v", ok, err)
	}
	if got.(value.Text).V != "matched A" {
		t.Fatalf("got %v, want matched A", got)
	}
}

func TestWhileArmSwitchCancelsPreviousScope(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var capturedA *SubscriptionScope
	w := NewWhile(ctx, func(v value.Value) string { return v.(value.Tag).Symbol }, map[string]ArmFactory{
		"A": func(s *SubscriptionScope, v value.Value) (value.Value, error) {
			capturedA = s
			return value.NewText("A"), nil
		},
		"B": func(s *SubscriptionScope, v value.Value) (value.Value, error) {
			return value.NewText("B"), nil
		},
	})
	defer w.Stop()

	if _, err := w.Advance(value.NewTag("A")); err != nil {
		t.Fatalf("Advance A: %v", err)
	}
	if capturedA.Cancelled() {
		t.Fatal("A's scope should not be cancelled while A is active")
	}

	if _, err := w.Advance(value.NewTag("B")); err != nil {
		t.Fatalf("Advance B: %v", err)
	}
	if !capturedA.Cancelled() {
		t.Fatal("expected A's scope to be cancelled after switching to B")
	}
}

func TestWhileGenerationDistinguishesRapidAToBToAFlip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var capturedA1, capturedA2 *SubscriptionScope
	seenA := 0
	w := NewWhile(ctx, func(v value.Value) string { return v.(value.Tag).Symbol }, map[string]ArmFactory{
		"A": func(s *SubscriptionScope, v value.Value) (value.Value, error) {
			seenA++
			if seenA == 1 {
				capturedA1 = s
			} else {
				capturedA2 = s
			}
			return value.NewText("A"), nil
		},
		"B": func(s *SubscriptionScope, v value.Value) (value.Value, error) {
			return value.NewText("B"), nil
		},
	})
	defer w.Stop()

	if _, err := w.Advance(value.NewTag("A")); err != nil {
		t.Fatalf("Advance A: %v", err)
	}
	genA1 := capturedA1.Generation()

	if _, err := w.Advance(value.NewTag("B")); err != nil {
		t.Fatalf("Advance B: %v", err)
	}
	if _, err := w.Advance(value.NewTag("A")); err != nil {
		t.Fatalf("Advance A again: %v", err)
	}
	genA2 := capturedA2.Generation()

	if genA1 == genA2 {
		t.Fatalf("genA1 == genA2 == %d, want distinct generations across an A->B->A flip", genA1)
	}
	if !capturedA1.Cancelled() {
		t.Fatal("first A scope should be cancelled after flipping away and back")
	}
	if !capturedA1.StaleFor(w.CurrentGeneration()) {
		t.Fatal("first A scope's generation should be stale relative to the currently active scope")
	}
	if capturedA2.StaleFor(w.CurrentGeneration()) {
		t.Fatal("second A scope's generation should match the currently active scope")
	}
}

func TestCallFunctionShortCircuitsOnFlushed(t *testing.T) {
	ctx := context.Background()
	called := false
	fn := func(context.Context, []value.Value) (value.Value, error) {
		called = true
		return value.NewText("should not run"), nil
	}

	flushed := value.NewFlushed(value.NewText("boom"))
	got, err := CallFunction(ctx, fn, []value.Value{value.NewNumber(1), flushed})
	if err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	if called {
		t.Fatal("expected fn not to be invoked when an argument is Flushed")
	}
	if !value.IsFlushed(got) {
		t.Fatalf("got %#v, want the Flushed value forwarded", got)
	}
}

func TestRegistryCallThreadsPassed(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	r.Register("double", func(ctx context.Context, args []value.Value) (value.Value, error) {
		p, ok := PassedFrom(ctx)
		if !ok {
			t.Fatal("expected PASSED context to be threaded into the function call")
		}
		_ = p
		return value.NewNumber(args[0].(value.Number).V * 2), nil
	})

	got, err := r.Call(ctx, "double", Passed{Value: value.NewNumber(7)}, []value.Value{value.NewNumber(5)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got.(value.Number).V != 10 {
		t.Fatalf("got %v, want 10", got)
	}
}

func TestBindListMapRetainFilteredCount(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewContext(scope.NewScope())
	todos := BindList(ctx, c, "todos", scope.Span{File: "t.boon", Line: 1}, []list.Item{
		{ID: list.NewItemId(), Value: value.NewNumber(1)},
		{ID: list.NewItemId(), Value: value.NewNumber(2)},
		{ID: list.NewItemId(), Value: value.NewNumber(3)},
	})
	defer todos.Stop()

	doubled, err := BindMap(ctx, c, "doubled", scope.Span{File: "t.boon", Line: 2}, todos,
		func(_ context.Context, it list.Item) (value.Value, error) {
			return value.NewNumber(it.Value.(value.Number).V * 2), nil
		})
	if err != nil {
		t.Fatalf("BindMap: %v", err)
	}
	defer doubled.Stop()

	evens, err := BindRetain(ctx, c, "evens", scope.Span{File: "t.boon", Line: 3}, doubled,
		func(_ context.Context, it list.Item) (bool, error) {
			n := int(it.Value.(value.Number).V)
			return n%4 == 0, nil
		})
	if err != nil {
		t.Fatalf("BindRetain: %v", err)
	}
	defer evens.Stop()

	snap, err := evens.List.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap) != 1 || snap[0].Value.(value.Number).V != 4 {
		t.Fatalf("snap = %+v, want exactly [4] (2 doubled, divisible by 4)", snap)
	}

	if err := todos.List.Apply(ctx, list.ListChange{Kind: list.ChangePush, Value: value.NewNumber(4)}); err != nil {
		t.Fatalf("Apply Push: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	snap, err = evens.List.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot after push: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("len(snap) = %d, want 2 after pushing 4 (doubles to 8, divisible by 4)", len(snap))
	}
}

func TestBindDerivedPropagatesTransform(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewContext(scope.NewScope())
	src := BindLiteral(ctx, c, "src", scope.Span{File: "t.boon", Line: 1}, value.NewNumber(1))

	time.Sleep(5 * time.Millisecond)

	doubled, err := BindDerived(ctx, c, "doubled", scope.Span{File: "t.boon", Line: 2}, src, func(v value.Value) (value.Value, error) {
		return value.NewNumber(v.(value.Number).V * 2), nil
	})
	if err != nil {
		t.Fatalf("BindDerived: %v", err)
	}

	got, err := doubled.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.(value.Number).V != 2 {
		t.Fatalf("got %v, want 2", got)
	}
}
