package variable

import (
	"context"
	"testing"
	"time"

	"github.com/boonlang/boon-runtime/scope"
	"github.com/boonlang/boon-runtime/value"
	"github.com/boonlang/boon-runtime/valueactor"
)

func newTestVariable(ctx context.Context, name string, v value.Value) *Variable {
	in := make(chan value.Value, 1)
	in <- v
	a := valueactor.New(ctx, name, in)
	<-a.Ready()
	return New(name, a, scope.NewPersistenceId(scope.Span{File: name}, scope.RootIdentity()), scope.NewScope())
}

func TestFieldOfObject(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inner := newTestVariable(ctx, "b", value.NewNumber(1))
	obj := value.NewObject([]value.Field{{Name: "b", Handle: inner}})

	got, err := FieldOf(obj, "b")
	if err != nil {
		t.Fatalf("FieldOf: %v", err)
	}
	if got != inner {
		t.Fatal("expected the same Variable back")
	}
}

func TestSwitchMapReferencePreservesBufferedValueAcrossRapidSwitch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	leafA := newTestVariable(ctx, "leafA", value.NewNumber(100))
	leafB := newTestVariable(ctx, "leafB", value.NewNumber(200))

	rootIn := make(chan value.Value, 2)
	rootActor := valueactor.New(ctx, "root", rootIn)
	root := New("root", rootActor, scope.NewPersistenceId(scope.Span{File: "root"}, scope.RootIdentity()), scope.NewScope())

	out, err := SwitchMapReference(ctx, root, []string{"leaf"})
	if err != nil {
		t.Fatalf("SwitchMapReference: %v", err)
	}

	rootIn <- value.NewObject([]value.Field{{Name: "leaf", Handle: leafA}})
	<-rootActor.Ready()
	// Give the inner stream time to subscribe to leafA and buffer its
	// already-stored value before the rapid second outer emission arrives,
	// reproducing the race the non-blocking poll-before-switch guards
	// against.
	time.Sleep(20 * time.Millisecond)
	rootIn <- value.NewObject([]value.Field{{Name: "leaf", Handle: leafB}})

	first := <-out
	if n, ok := first.(value.Number); !ok || n.V != 100 {
		t.Fatalf("first = %#v, want Number{100} (leafA's buffered value preserved across the switch)", first)
	}
	second := <-out
	if n, ok := second.(value.Number); !ok || n.V != 200 {
		t.Fatalf("second = %#v, want Number{200} (leafB's value after switching)", second)
	}
}

func TestResolveSnapshotFieldChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	leaf := newTestVariable(ctx, "c", value.NewNumber(42))
	mid := newTestVariable(ctx, "b", value.NewObject([]value.Field{{Name: "c", Handle: leaf}}))
	root := newTestVariable(ctx, "a", value.NewObject([]value.Field{{Name: "b", Handle: mid}}))

	time.Sleep(10 * time.Millisecond)

	got, err := ResolveSnapshot(ctx, root, []string{"b", "c"})
	if err != nil {
		t.Fatalf("ResolveSnapshot: %v", err)
	}
	if n, ok := got.(value.Number); !ok || n.V != 42 {
		t.Fatalf("got %#v, want Number{42}", got)
	}
}
