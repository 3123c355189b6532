package list

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/boonlang/boon-runtime/value"
)

func newItems(nums ...float64) []Item {
	items := make([]Item, len(nums))
	for i, n := range nums {
		items[i] = Item{ID: NewItemId(), Value: value.NewNumber(n)}
	}
	return items
}

func TestListInsertAtBeyondLengthIsNoOp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, "test", newItems(1, 2))
	defer l.Stop()

	err := l.Apply(ctx, ListChange{Kind: ChangeInsertAt, Index: 10, Value: value.NewNumber(99)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	snap, err := l.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("len(snap) = %d, want 2 (no-op)", len(snap))
	}
}

func TestListInsertAtEqualLengthAppends(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, "test", newItems(1, 2))
	defer l.Stop()

	if err := l.Apply(ctx, ListChange{Kind: ChangeInsertAt, Index: 2, Value: value.NewNumber(3)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	snap, _ := l.Snapshot(ctx)
	if len(snap) != 3 {
		t.Fatalf("len(snap) = %d, want 3", len(snap))
	}
	if n := snap[2].Value.(value.Number); n.V != 3 {
		t.Fatalf("snap[2] = %v, want 3", n.V)
	}
}

func TestListRemoveUnknownIdIsNoOp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, "test", newItems(1, 2))
	defer l.Stop()

	if err := l.Apply(ctx, ListChange{Kind: ChangeRemove, ID: NewItemId()}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	snap, _ := l.Snapshot(ctx)
	if len(snap) != 2 {
		t.Fatalf("len(snap) = %d, want 2 (no-op)", len(snap))
	}
}

func TestListMoveAdjustsIndexAcrossRemovalPoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items := newItems(0, 1, 2, 3)
	l := New(ctx, "test", items)
	defer l.Stop()

	// move item 0 to index 2: since new(2) > old(0), new becomes 1.
	if err := l.Apply(ctx, ListChange{Kind: ChangeMove, Index: 0, NewIndex: 2}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	snap, _ := l.Snapshot(ctx)
	want := []float64{1, 0, 2, 3}
	for i, w := range want {
		if n := snap[i].Value.(value.Number); n.V != w {
			t.Fatalf("snap[%d] = %v, want %v (full: %v)", i, n.V, w, snapValues(snap))
		}
	}
}

func snapValues(items []Item) []float64 {
	out := make([]float64, len(items))
	for i, it := range items {
		out[i] = it.Value.(value.Number).V
	}
	return out
}

func TestListSubscribeChangesFirstIsReplace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, "test", newItems(1, 2))
	defer l.Stop()

	sub, err := l.SubscribeChanges(ctx)
	if err != nil {
		t.Fatalf("SubscribeChanges: %v", err)
	}
	first := <-sub.Chan()
	if first.Kind != ChangeReplace {
		t.Fatalf("first change kind = %v, want ChangeReplace", first.Kind)
	}
	if len(first.Items) != 2 {
		t.Fatalf("len(first.Items) = %d, want 2", len(first.Items))
	}
}

func TestListGetUpdateSinceCurrent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, "test", newItems(1))
	defer l.Stop()

	u, err := l.GetUpdateSince(ctx, 0)
	if err != nil {
		t.Fatalf("GetUpdateSince: %v", err)
	}
	if u.Kind != UpdateCurrent {
		t.Fatalf("kind = %v, want UpdateCurrent", u.Kind)
	}
}

func TestListGetUpdateSinceDiffs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, "test", newItems(1))
	defer l.Stop()

	if err := l.Apply(ctx, ListChange{Kind: ChangePush, Value: value.NewNumber(2)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	u, err := l.GetUpdateSince(ctx, 0)
	if err != nil {
		t.Fatalf("GetUpdateSince: %v", err)
	}
	if u.Kind != UpdateDiffs || len(u.Diffs) != 1 {
		t.Fatalf("u = %+v, want one diff", u)
	}
}

func TestPushDiffIDMatchesSnapshotItemID(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, "test", newItems(1))
	defer l.Stop()

	if err := l.Apply(ctx, ListChange{Kind: ChangePush, Value: value.NewNumber(2)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	u, err := l.GetUpdateSince(ctx, 0)
	if err != nil {
		t.Fatalf("GetUpdateSince: %v", err)
	}
	if u.Kind != UpdateDiffs || len(u.Diffs) != 1 {
		t.Fatalf("u = %+v, want one diff", u)
	}

	snap, err := l.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("len(snap) = %d, want 2", len(snap))
	}
	if snap[1].ID != u.Diffs[0].ID {
		t.Fatalf("snapshot item ID %v != diff ID %v: apply_diffs(replay, diffs) would not reach current_snapshot", snap[1].ID, u.Diffs[0].ID)
	}
}

func TestInsertAtDiffIDMatchesSnapshotItemID(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, "test", newItems(1, 2))
	defer l.Stop()

	if err := l.Apply(ctx, ListChange{Kind: ChangeInsertAt, Index: 1, Value: value.NewNumber(99)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	u, err := l.GetUpdateSince(ctx, 0)
	if err != nil {
		t.Fatalf("GetUpdateSince: %v", err)
	}
	if u.Kind != UpdateDiffs || len(u.Diffs) != 1 {
		t.Fatalf("u = %+v, want one diff", u)
	}

	snap, err := l.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap[1].ID != u.Diffs[0].ID {
		t.Fatalf("snapshot item ID %v != diff ID %v", snap[1].ID, u.Diffs[0].ID)
	}
}

func TestMapSurvivesPushThenRemoveByTranslatedID(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := New(ctx, "source", newItems(1, 2))
	defer source.Stop()

	double := func(ctx context.Context, it Item) (value.Value, error) {
		return value.NewNumber(it.Value.(value.Number).V * 2), nil
	}
	mapped, err := Map(ctx, "mapped", source, double, nil)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	defer mapped.Stop()

	if err := source.Apply(ctx, ListChange{Kind: ChangePush, Value: value.NewNumber(3)}); err != nil {
		t.Fatalf("Apply Push: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	snap, err := source.Snapshot(ctx)
	if err != nil {
		t.Fatalf("source.Snapshot: %v", err)
	}
	if len(snap) != 3 {
		t.Fatalf("len(source snap) = %d, want 3", len(snap))
	}
	pushedID := snap[2].ID

	mappedSnap, err := mapped.Snapshot(ctx)
	if err != nil {
		t.Fatalf("mapped.Snapshot: %v", err)
	}
	if len(mappedSnap) != 3 || mappedSnap[2].ID != pushedID {
		t.Fatalf("mapped snap = %+v, want item 2 to carry the source's pushed id %v", mappedSnap, pushedID)
	}
	if n := mappedSnap[2].Value.(value.Number); n.V != 6 {
		t.Fatalf("mapped pushed value = %v, want 6", n.V)
	}

	if err := source.Apply(ctx, ListChange{Kind: ChangeRemove, ID: pushedID}); err != nil {
		t.Fatalf("Apply Remove: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	mappedSnap, err = mapped.Snapshot(ctx)
	if err != nil {
		t.Fatalf("mapped.Snapshot after remove: %v", err)
	}
	if len(mappedSnap) != 2 {
		t.Fatalf("len(mapped snap after remove) = %d, want 2 (translated Remove should have found the mapped item)", len(mappedSnap))
	}
}

func TestEveryAnyEmptyDefaults(t *testing.T) {
	if got := Every(nil); got.Symbol != "True" {
		t.Fatalf("Every(nil) = %v, want True", got.Symbol)
	}
	if got := Any(nil); got.Symbol != "False" {
		t.Fatalf("Any(nil) = %v, want False", got.Symbol)
	}
}

func TestSortByNaNSortsLast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items := newItems(3, math.NaN(), 1, 2)
	source := New(ctx, "source", items)
	defer source.Stop()

	keyFn := func(ctx context.Context, it Item) (value.Value, error) {
		return it.Value, nil
	}
	sorted, err := SortBy(ctx, "sorted", source, keyFn, nil)
	if err != nil {
		t.Fatalf("SortBy: %v", err)
	}
	defer sorted.Stop()

	snap, err := sorted.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	want := []float64{1, 2, 3}
	for i, w := range want {
		if n := snap[i].Value.(value.Number); n.V != w {
			t.Fatalf("snap[%d] = %v, want %v", i, n.V, w)
		}
	}
	if n := snap[3].Value.(value.Number); !math.IsNaN(n.V) {
		t.Fatalf("snap[3] = %v, want NaN", n.V)
	}
}
