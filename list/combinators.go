package list

import (
	"context"
	"log/slog"
	"sync"

	"github.com/boonlang/boon-runtime/value"
)

// ItemEvaluator produces, for a source item, the transformed value.
// Concrete callers (the interpreter) supply these; this
// package only owns the identity-preserving bookkeeping spec.md §4.6
// requires, so it stays independent of the expression-evaluation layer.
type ItemEvaluator func(ctx context.Context, item Item) (value.Value, error)

// PredicateEvaluator evaluates a boolean-producing expression bound to an
// item, returning its current reading as a bool.
type PredicateEvaluator func(ctx context.Context, item Item) (bool, error)

// KeyEvaluator extracts a sortable key Value from an item.
type KeyEvaluator func(ctx context.Context, item Item) (value.Value, error)

// Map produces a new List whose items are source's items transformed by
// eval, one-to-one. Identity survives the map through an explicit
// pid->mapped-pid translation table (per spec.md §4.6), kept up to date
// as changes arrive, rather than by assuming source and result ItemIds
// always coincide: an InsertAt/Push that source mints after construction
// gets its own id minted independently by result.Apply unless the table
// is consulted (for inserts, table[sourceID] is simply sourceID, since
// Map never introduces a second identity of its own — but a later
// ChangeRemove must still be translated through it to find the right
// entry, and a structural Replace must rebuild it from scratch).
func Map(ctx context.Context, name string, source *List, eval ItemEvaluator, logger *slog.Logger) (*List, error) {
	initial, err := source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	table := map[ItemId]ItemId{}
	mapped := make([]Item, len(initial))
	for i, it := range initial {
		v, err := eval(ctx, it)
		if err != nil {
			return nil, err
		}
		mapped[i] = Item{ID: it.ID, Value: v}
		table[it.ID] = it.ID
	}

	result := New(ctx, name, mapped, WithLogger(logger))

	sub, err := source.SubscribeChanges(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-sub.Chan():
				if !ok {
					return
				}
				mc, ok := mapChange(ctx, change, eval, table, &mu)
				if !ok {
					continue // evaluation error, or a Remove for an id no longer in the table: skip
				}
				_ = result.Apply(ctx, mc)
			}
		}
	}()

	return result, nil
}

// mapChange translates one source ListChange into the corresponding
// change to apply against the mapped result, maintaining table under mu.
// The second return value is false when the change should be dropped
// (evaluation error, or a Remove whose id has no entry in table).
func mapChange(ctx context.Context, change ListChange, eval ItemEvaluator, table map[ItemId]ItemId, mu *sync.Mutex) (ListChange, bool) {
	out := change
	switch change.Kind {
	case ChangeReplace, ChangeClear:
		items := make([]Item, len(change.Items))
		next := make(map[ItemId]ItemId, len(change.Items))
		for i, it := range change.Items {
			v, err := eval(ctx, it)
			if err != nil {
				return ListChange{}, false
			}
			items[i] = Item{ID: it.ID, Value: v}
			next[it.ID] = it.ID
		}
		mu.Lock()
		for k := range table {
			delete(table, k)
		}
		for k, v := range next {
			table[k] = v
		}
		mu.Unlock()
		out.Items = items
	case ChangeInsertAt, ChangePush:
		v, err := eval(ctx, Item{Value: change.Value})
		if err != nil {
			return ListChange{}, false
		}
		out.Value = v
		mu.Lock()
		table[change.ID] = change.ID
		mu.Unlock()
	case ChangeUpdateAt:
		v, err := eval(ctx, Item{Value: change.Value})
		if err != nil {
			return ListChange{}, false
		}
		out.Value = v
	case ChangeRemove:
		mu.Lock()
		mappedID, ok := table[change.ID]
		if ok {
			delete(table, change.ID)
		}
		mu.Unlock()
		if !ok {
			return ListChange{}, false
		}
		out.ID = mappedID
	}
	return out, true
}

// retainState tracks, per source item, the last observed boolean reading
// so structural rebuilds only re-evaluate what changed, per spec.md §4.6.
type retainState struct {
	item Item
	last bool
}

// Retain produces a new List containing only the items for which pred
// currently holds. Initial values are fetched once; subsequent updates are
// driven via the source's change stream. Structural changes rebuild
// cached predicates only for the affected items.
func Retain(ctx context.Context, name string, source *List, pred PredicateEvaluator, logger *slog.Logger) (*List, error) {
	initial, err := source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]*retainState, len(initial))
	for i, it := range initial {
		ok, err := pred(ctx, it)
		if err != nil {
			return nil, err
		}
		states[i] = &retainState{item: it, last: ok}
	}

	filtered := func() []Item {
		out := make([]Item, 0, len(states))
		for _, s := range states {
			if s.last {
				out = append(out, s.item)
			}
		}
		return out
	}

	result := New(ctx, name, filtered(), WithLogger(logger))

	sub, err := source.SubscribeChanges(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-sub.Chan():
				if !ok {
					return
				}
				if change.Kind != ChangeReplace && change.Kind != ChangeClear {
					// rebuild from the source's current items, re-evaluating
					// the predicate of an updated item.
					items, err := source.Snapshot(ctx)
					if err != nil {
						continue
					}
					if change.Kind == ChangeUpdateAt && change.Index >= 0 && change.Index < len(items) {
						if s := findRetainState(states, items[change.Index].ID); s != nil {
							if v, err := pred(ctx, items[change.Index]); err == nil {
								s.last = v
							}
						}
					}
					change = ListChange{Kind: ChangeReplace, Items: items}
				}
				if change.Kind == ChangeReplace || change.Kind == ChangeClear {
					next := make([]*retainState, len(change.Items))
					for i, it := range change.Items {
						if existing := findRetainState(states, it.ID); existing != nil {
							next[i] = existing
							next[i].item = it
						} else {
							v, err := pred(ctx, it)
							if err != nil {
								continue
							}
							next[i] = &retainState{item: it, last: v}
						}
					}
					states = next
					_ = result.Apply(ctx, ListChange{Kind: ChangeReplace, Items: filtered()})
				}
			}
		}
	}()

	return result, nil
}

func findRetainState(states []*retainState, id ItemId) *retainState {
	for _, s := range states {
		if s.item.ID == id {
			return s
		}
	}
	return nil
}

// Remove produces a new List where, per item, once its `on` predicate
// fires the item is removed and never re-introduced by a later upstream
// Replace, per spec.md §4.6.
func Remove(ctx context.Context, name string, source *List, on PredicateEvaluator, logger *slog.Logger) (*List, error) {
	initial, err := source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	result := New(ctx, name, initial, WithLogger(logger))

	removed := map[ItemId]bool{}

	watch := func(it Item) {
		go func(it Item) {
			fired, err := on(ctx, it)
			if err != nil || !fired {
				return
			}
			removed[it.ID] = true
			_ = result.Apply(ctx, ListChange{Kind: ChangeRemove, ID: it.ID})
		}(it)
	}
	for _, it := range initial {
		watch(it)
	}

	sub, err := source.SubscribeChanges(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-sub.Chan():
				if !ok {
					return
				}
				if change.Kind == ChangeReplace || change.Kind == ChangeClear {
					items := make([]Item, 0, len(change.Items))
					for _, it := range change.Items {
						if removed[it.ID] {
							continue
						}
						items = append(items, it)
						watch(it)
					}
					_ = result.Apply(ctx, ListChange{Kind: ChangeReplace, Items: items})
				}
			}
		}
	}()

	return result, nil
}

// Every evaluates an array of predicate readings, combining them with
// logical AND. Empty source yields True, per spec.md §4.6/§8.
func Every(readings []bool) value.Tag {
	for _, r := range readings {
		if !r {
			return value.BoolTag(false)
		}
	}
	return value.BoolTag(true)
}

// Any evaluates an array of predicate readings, combining them with
// logical OR. Empty source yields False, per spec.md §4.6/§8.
func Any(readings []bool) value.Tag {
	for _, r := range readings {
		if r {
			return value.BoolTag(true)
		}
	}
	return value.BoolTag(false)
}

// SortBy produces a new List ordered by the key readings evaluated for
// each item, with a stable sort on equal keys, per spec.md §4.6.
func SortBy(ctx context.Context, name string, source *List, key KeyEvaluator, logger *slog.Logger) (*List, error) {
	rebuild := func() (*List, error) {
		items, err := source.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		sorted, err := sortItems(ctx, items, key)
		if err != nil {
			return nil, err
		}
		return New(ctx, name, sorted, WithLogger(logger)), nil
	}

	result, err := rebuild()
	if err != nil {
		return nil, err
	}

	sub, err := source.SubscribeChanges(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Chan():
				if !ok {
					return
				}
				items, err := source.Snapshot(ctx)
				if err != nil {
					continue
				}
				sorted, err := sortItems(ctx, items, key)
				if err != nil {
					continue
				}
				_ = result.Apply(ctx, ListChange{Kind: ChangeReplace, Items: sorted})
			}
		}
	}()

	return result, nil
}

func sortItems(ctx context.Context, items []Item, key KeyEvaluator) ([]Item, error) {
	type keyed struct {
		item Item
		key  value.Value
	}
	ks := make([]keyed, len(items))
	for i, it := range items {
		k, err := key(ctx, it)
		if err != nil {
			return nil, err
		}
		ks[i] = keyed{item: it, key: k}
	}
	// stable insertion sort: total item count here is expected to be
	// small (UI-scale lists), and stability matters more than asymptotic
	// cost per spec.md §4.6.
	for i := 1; i < len(ks); i++ {
		j := i
		for j > 0 && value.Compare(ks[j-1].key, ks[j].key) > 0 {
			ks[j-1], ks[j] = ks[j], ks[j-1]
			j--
		}
	}
	out := make([]Item, len(ks))
	for i, k := range ks {
		out[i] = k.item
	}
	return out, nil
}
