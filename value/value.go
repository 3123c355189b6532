// Package value implements the Boon runtime's tagged-sum Value type and
// its immutable variants (Number, Text, Tag, Object, TaggedObject, List
// handle, Flushed), plus per-value metadata.
//
// Grounded on the teacher's Tag[T] (pumped-go/tag.go) for the type-safe
// symbol pattern, generalized into a closed interface with an unexported
// marker method rather than a virtual class hierarchy, per spec.md §9
// ("Dynamic dispatch over Value variants: use a tagged sum with
// per-variant operations").
package value

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Metadata travels with every Value. IdemKey is a fresh unique id assigned
// per production. No combinator in this module compares it, so a
// re-delivered value is not suppressed on the strength of its key.
// Supplemented from original_source/interpreter.rs per SPEC_FULL.md §4.
type Metadata struct {
	IdemKey uuid.UUID
}

// NewMetadata returns metadata carrying a fresh idempotency key.
func NewMetadata() Metadata {
	return Metadata{IdemKey: uuid.New()}
}

// Value is a closed tagged sum. Only types in this package implement it.
type Value interface {
	isValue()
	// Meta returns this value's metadata.
	Meta() Metadata
}

// Number is a reactive numeric scalar.
type Number struct {
	V    float64
	meta Metadata
}

// NewNumber wraps f with fresh metadata.
func NewNumber(f float64) Number { return Number{V: f, meta: NewMetadata()} }

func (Number) isValue()          {}
func (n Number) Meta() Metadata  { return n.meta }
func (n Number) String() string  { return fmt.Sprintf("%v", n.V) }

// Text is a reactive string scalar.
type Text struct {
	V    string
	meta Metadata
}

// NewText wraps s with fresh metadata.
func NewText(s string) Text { return Text{V: s, meta: NewMetadata()} }

func (Text) isValue()         {}
func (t Text) Meta() Metadata { return t.meta }
func (t Text) String() string { return t.V }

// Tag is an interned symbol value, e.g. Tag{"True"}, Tag{"False"}.
type Tag struct {
	Symbol string
	meta   Metadata
}

// NewTag wraps symbol with fresh metadata.
func NewTag(symbol string) Tag { return Tag{Symbol: symbol, meta: NewMetadata()} }

func (Tag) isValue()         {}
func (t Tag) Meta() Metadata { return t.meta }
func (t Tag) String() string { return t.Symbol }

// BoolTag returns Tag("True") or Tag("False"), the canonical boolean
// encoding used by every/any combinators per spec.md §4.6.
func BoolTag(b bool) Tag {
	if b {
		return NewTag("True")
	}
	return NewTag("False")
}

// Field is one ordered (name, variable-handle) pair of an Object or
// TaggedObject. Handle is intentionally `any` here: value cannot
// import package variable (which itself depends on value) without a
// cycle, so the concrete *variable.Variable is stored type-erased and
// recovered by callers that know the binding.
type Field struct {
	Name    string
	Handle  any
}

// Object is an ordered map name -> Variable. Ordering is preserved via a
// parallel slice of fields rather than Go's unordered map, since the spec
// requires stable iteration order (no teacher precedent for this; grounded
// on the ordered-JSON-field idiom used elsewhere in the pack, see
// DESIGN.md).
type Object struct {
	Fields []Field
	meta   Metadata
}

// NewObject builds an Object preserving the given field order.
func NewObject(fields []Field) Object {
	return Object{Fields: append([]Field(nil), fields...), meta: NewMetadata()}
}

func (Object) isValue()         {}
func (o Object) Meta() Metadata { return o.meta }

// Get returns the handle bound to name, if present, in field order.
func (o Object) Get(name string) (any, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Handle, true
		}
	}
	return nil, false
}

// Equal reports identity-only equality: true only if both objects carry
// exactly the same field names bound to the same handles, in the same
// order. A structural/deep comparison would require asynchronous field
// reads and is intentionally out of scope per spec.md §9's documented
// limitation.
func (o Object) Equal(other Object) bool {
	if len(o.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range o.Fields {
		g := other.Fields[i]
		if f.Name != g.Name || f.Handle != g.Handle {
			return false
		}
	}
	return true
}

// TaggedObject is an Object discriminated by a symbol, e.g. the document
// tree's ElementButton{...}.
type TaggedObject struct {
	Tag    string
	Fields []Field
	meta   Metadata
}

// NewTaggedObject builds a TaggedObject under the given tag, preserving
// field order.
func NewTaggedObject(tag string, fields []Field) TaggedObject {
	return TaggedObject{Tag: tag, Fields: append([]Field(nil), fields...), meta: NewMetadata()}
}

func (TaggedObject) isValue()         {}
func (t TaggedObject) Meta() Metadata { return t.meta }

// Get returns the handle bound to name, if present.
func (t TaggedObject) Get(name string) (any, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Handle, true
		}
	}
	return nil, false
}

// Equal is identity-only, matching Object.Equal's documented limitation.
func (t TaggedObject) Equal(other TaggedObject) bool {
	if t.Tag != other.Tag || len(t.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range t.Fields {
		g := other.Fields[i]
		if f.Name != g.Name || f.Handle != g.Handle {
			return false
		}
	}
	return true
}

// ListHandle is the opaque handle a Value carries for a reactive
// collection. The concrete implementation lives in package list; it is
// stored here as `any` to avoid an import cycle (list depends on value).
type ListHandle struct {
	Handle any
	meta   Metadata
}

// NewListHandle wraps a *list.List (passed as `any`) with fresh metadata.
func NewListHandle(handle any) ListHandle {
	return ListHandle{Handle: handle, meta: NewMetadata()}
}

func (ListHandle) isValue()          {}
func (l ListHandle) Meta() Metadata  { return l.meta }

// Flushed is the fail-fast wrapper that propagates transparently through
// combinators until unwrapped at a variable-binding, function-return,
// block-return, or (supplemented, see SPEC_FULL.md §4) list-item
// construction boundary.
type Flushed struct {
	Inner Value
	meta  Metadata
}

// NewFlushed wraps inner with fresh metadata.
func NewFlushed(inner Value) Flushed {
	return Flushed{Inner: inner, meta: NewMetadata()}
}

func (Flushed) isValue()         {}
func (f Flushed) Meta() Metadata { return f.meta }

// Unwrap recursively strips nested Flushed wrappers, returning the
// innermost non-Flushed value and whether any unwrapping occurred.
func Unwrap(v Value) (Value, bool) {
	unwrapped := false
	for {
		f, ok := v.(Flushed)
		if !ok {
			return v, unwrapped
		}
		v = f.Inner
		unwrapped = true
	}
}

// IsFlushed reports whether v is (or wraps) a Flushed value.
func IsFlushed(v Value) bool {
	_, ok := v.(Flushed)
	return ok
}

// SortPriority orders Value variants for the mixed-type comparator used by
// sort_by, per spec.md §4.6: Number < Text < Tag < Unsupported.
func SortPriority(v Value) int {
	switch v.(type) {
	case Number:
		return 0
	case Text:
		return 1
	case Tag:
		return 2
	default:
		return 3
	}
}

// Compare orders two Values for sort_by's key extraction. NaN Numbers sort
// last and compare Equal to each other, per spec.md §8.
func Compare(a, b Value) int {
	pa, pb := SortPriority(a), SortPriority(b)
	if pa != pb {
		return pa - pb
	}
	switch av := a.(type) {
	case Number:
		bv := b.(Number)
		aNaN, bNaN := math.IsNaN(av.V), math.IsNaN(bv.V)
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return 1
		case bNaN:
			return -1
		case av.V < bv.V:
			return -1
		case av.V > bv.V:
			return 1
		default:
			return 0
		}
	case Text:
		bv := b.(Text)
		switch {
		case av.V < bv.V:
			return -1
		case av.V > bv.V:
			return 1
		default:
			return 0
		}
	case Tag:
		bv := b.(Tag)
		switch {
		case av.Symbol < bv.Symbol:
			return -1
		case av.Symbol > bv.Symbol:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}
