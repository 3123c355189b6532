package dataflow

import "sort"

// KeyedExecutor evaluates the keyed operator chain
// LiteralList/AppendNewKeyed/MapToKeyed/ListRetain/ListMap/
// ListAppend/ListRemove/KeyedHoldState/KeyedConcat/AssembleList/ListCount
// against an in-memory map[ListKey]any, the "HOLD-with-LIST in dataflow
// form" state machine from spec.md §4.11.
//
// Grounded on other_examples' sorter-pipeline per-key bucketing idiom
// (referenced in DESIGN.md) for the key->state map shape, generalized
// from a changefeed sorter's per-table buckets to per-list-item state.
type KeyedExecutor struct {
	states  map[VarId]map[ListKey]any
	order   map[VarId][]ListKey
	counter map[VarId]int
}

// NewKeyedExecutor constructs an empty keyed executor.
func NewKeyedExecutor() *KeyedExecutor {
	return &KeyedExecutor{
		states:  make(map[VarId]map[ListKey]any),
		order:   make(map[VarId][]ListKey),
		counter: make(map[VarId]int),
	}
}

func (e *KeyedExecutor) ensure(id VarId) map[ListKey]any {
	if e.states[id] == nil {
		e.states[id] = make(map[ListKey]any)
	}
	return e.states[id]
}

// AppendKeyed assigns op's next monotonically-increasing 4-digit key to
// value and stores it.
func (e *KeyedExecutor) AppendKeyed(op AppendNewKeyed, value any) ListKey {
	if e.counter[op.Output()] == 0 {
		e.counter[op.Output()] = op.InitialCounter
	}
	e.counter[op.Output()]++
	key := formatKey(e.counter[op.Output()])
	state := e.ensure(op.Output())
	state[key] = value
	e.order[op.Output()] = append(e.order[op.Output()], key)
	return key
}

func formatKey(n int) ListKey {
	return ListKey(padKey(n))
}

func padKey(n int) string {
	s := itoa(n)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Snapshot returns op's current (key, value) pairs in insertion order.
func (e *KeyedExecutor) Snapshot(op KeyedOperator) []KeyedAssignment {
	id := op.Output()
	state := e.states[id]
	keys := e.order[id]
	out := make([]KeyedAssignment, 0, len(keys))
	for _, k := range keys {
		if v, ok := state[k]; ok {
			out = append(out, KeyedAssignment{Key: k, Value: v})
		}
	}
	return out
}

// Retain filters op.Source's current snapshot through op.Predicate and
// stores the result under op's own output id.
func (e *KeyedExecutor) Retain(op ListRetain, source []KeyedAssignment) []KeyedAssignment {
	state := e.ensure(op.Output())
	var order []ListKey
	var out []KeyedAssignment
	for _, kv := range source {
		if op.Predicate(kv.Value) {
			state[kv.Key] = kv.Value
			order = append(order, kv.Key)
			out = append(out, kv)
		} else {
			delete(state, kv.Key)
		}
	}
	e.order[op.Output()] = order
	return out
}

// ListMap transforms op.Source's snapshot through op.F, preserving keys.
func (e *KeyedExecutor) ListMap(op ListMap, source []KeyedAssignment) []KeyedAssignment {
	state := e.ensure(op.Output())
	var order []ListKey
	out := make([]KeyedAssignment, 0, len(source))
	for _, kv := range source {
		v := op.F(kv.Value)
		state[kv.Key] = v
		order = append(order, kv.Key)
		out = append(out, KeyedAssignment{Key: kv.Key, Value: v})
	}
	e.order[op.Output()] = order
	return out
}

// KeyedHoldFold applies op.Transform to every (key, event) pair in
// events, removing keys whose transform result is Unit, and returns the
// resulting full snapshot.
func (e *KeyedExecutor) KeyedHoldFold(op KeyedHoldState, events []KeyedAssignment) []KeyedAssignment {
	state := e.ensure(op.Output())
	order := e.order[op.Output()]
	seen := make(map[ListKey]bool, len(order))
	for _, k := range order {
		seen[k] = true
	}
	for _, ev := range events {
		cur, ok := state[ev.Key]
		if !ok {
			cur = op.Initial
		}
		next := op.Transform(cur, ev.Value)
		if next == Unit {
			delete(state, ev.Key)
			continue
		}
		state[ev.Key] = next
		if !seen[ev.Key] {
			order = append(order, ev.Key)
			seen[ev.Key] = true
		}
	}
	filtered := order[:0]
	for _, k := range order {
		if _, ok := state[k]; ok {
			filtered = append(filtered, k)
		}
	}
	e.order[op.Output()] = filtered

	out := make([]KeyedAssignment, 0, len(filtered))
	for _, k := range filtered {
		out = append(out, KeyedAssignment{Key: k, Value: state[k]})
	}
	return out
}

// ApplyBroadcast applies op's BroadcastHandler against the current key
// set and folds the resulting assignments the same way KeyedHoldFold
// does (nil Value removes the key), used for mass mutations like
// "toggle all" / "remove completed".
func (e *KeyedExecutor) ApplyBroadcast(op KeyedHoldState, broadcast any) []KeyedAssignment {
	if op.BroadcastHandler == nil {
		return e.Snapshot(op)
	}
	order := append([]ListKey(nil), e.order[op.Output()]...)
	assignments := op.BroadcastHandler(broadcast, order)
	state := e.ensure(op.Output())
	seen := make(map[ListKey]bool, len(order))
	for _, k := range order {
		seen[k] = true
	}
	for _, a := range assignments {
		if a.Value == nil {
			delete(state, a.Key)
			continue
		}
		state[a.Key] = a.Value
		seen[a.Key] = true
	}
	var kept []ListKey
	for _, k := range order {
		if _, ok := state[k]; ok {
			kept = append(kept, k)
		}
	}
	e.order[op.Output()] = kept
	return e.Snapshot(op)
}

// Count returns the number of keys currently in op's snapshot.
func (e *KeyedExecutor) Count(op ListCount, source []KeyedAssignment) int {
	return len(source)
}

// Assemble materializes source's keyed snapshot into an ordered list of
// plain values, sorted by key (the order AppendNewKeyed assigned them),
// for handoff to a non-keyed consumer like the document tree.
func Assemble(source []KeyedAssignment) []any {
	sorted := append([]KeyedAssignment(nil), source...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	out := make([]any, 0, len(sorted))
	for _, kv := range sorted {
		out = append(out, kv.Value)
	}
	return out
}
