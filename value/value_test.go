package value

import (
	"math"
	"testing"
)

func TestUnwrapFlushed(t *testing.T) {
	inner := NewNumber(3)
	wrapped := NewFlushed(NewFlushed(inner))

	got, unwrapped := Unwrap(wrapped)
	if !unwrapped {
		t.Fatal("expected unwrapped=true")
	}
	if n, ok := got.(Number); !ok || n.V != 3 {
		t.Fatalf("got %#v, want Number{3}", got)
	}
}

func TestUnwrapNonFlushed(t *testing.T) {
	v := NewText("hi")
	got, unwrapped := Unwrap(v)
	if unwrapped {
		t.Fatal("expected unwrapped=false")
	}
	if got != v {
		t.Fatalf("got %#v, want %#v", got, v)
	}
}

func TestCompareMixedTypePriority(t *testing.T) {
	n := NewNumber(1)
	txt := NewText("a")
	tag := NewTag("X")

	if Compare(n, txt) >= 0 {
		t.Fatal("Number should sort before Text")
	}
	if Compare(txt, tag) >= 0 {
		t.Fatal("Text should sort before Tag")
	}
}

func TestCompareNaNSortsLast(t *testing.T) {
	nan := NewNumber(math.NaN())
	one := NewNumber(1)

	if Compare(nan, one) <= 0 {
		t.Fatal("NaN should sort after a regular number")
	}
	if Compare(nan, NewNumber(math.NaN())) != 0 {
		t.Fatal("two NaNs should compare Equal")
	}
}

func TestObjectGetAndEqual(t *testing.T) {
	obj := NewObject([]Field{{Name: "a", Handle: 1}, {Name: "b", Handle: 2}})
	if h, ok := obj.Get("b"); !ok || h != 2 {
		t.Fatalf("Get(b) = %v, %v", h, ok)
	}
	other := NewObject([]Field{{Name: "a", Handle: 1}, {Name: "b", Handle: 2}})
	if !obj.Equal(other) {
		t.Fatal("expected identity-equal objects to be Equal")
	}
	other2 := NewObject([]Field{{Name: "a", Handle: 1}, {Name: "b", Handle: 3}})
	if obj.Equal(other2) {
		t.Fatal("expected objects with differing handles to not be Equal")
	}
}

func TestBoolTag(t *testing.T) {
	if BoolTag(true).Symbol != "True" {
		t.Fatal("expected True")
	}
	if BoolTag(false).Symbol != "False" {
		t.Fatal("expected False")
	}
}

func TestToJSONFromJSONRoundTripScalars(t *testing.T) {
	resolve := func(any) (Value, error) { return nil, nil }
	makeField := func(name string, v Value) (any, error) { return v, nil }

	for _, v := range []Value{NewNumber(42), NewText("hello"), NewTag("True")} {
		raw, err := ToJSON(v, resolve)
		if err != nil {
			t.Fatalf("ToJSON(%#v): %v", v, err)
		}
		got, err := FromJSON(raw, makeField)
		if err != nil {
			t.Fatalf("FromJSON(%s): %v", raw, err)
		}
		switch want := v.(type) {
		case Number:
			if g, ok := got.(Number); !ok || g.V != want.V {
				t.Fatalf("got %#v, want %#v", got, want)
			}
		case Text:
			if g, ok := got.(Text); !ok || g.V != want.V {
				t.Fatalf("got %#v, want %#v", got, want)
			}
		case Tag:
			if g, ok := got.(Tag); !ok || g.Symbol != want.Symbol {
				t.Fatalf("got %#v, want %#v", got, want)
			}
		}
	}
}

func TestToJSONFlushedRoundTrip(t *testing.T) {
	resolve := func(any) (Value, error) { return nil, nil }
	makeField := func(name string, v Value) (any, error) { return v, nil }

	f := NewFlushed(NewNumber(7))
	raw, err := ToJSON(f, resolve)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := FromJSON(raw, makeField)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	gf, ok := got.(Flushed)
	if !ok {
		t.Fatalf("got %#v, want Flushed", got)
	}
	if n, ok := gf.Inner.(Number); !ok || n.V != 7 {
		t.Fatalf("inner = %#v, want Number{7}", gf.Inner)
	}
}
