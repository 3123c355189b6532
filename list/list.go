// Package list implements the reactive ordered collection: a change
// stream (index-based, for external consumers) plus a stable-identity
// diff history (ItemId-based, for incremental consumers and persistence).
//
// Grounded on valueactor's subscription model, plus pumped-go/flow.go's
// ExecutionTree ring-with-limit eviction pattern for the diff history
// ring.
package list

import (
	"context"
	"log/slog"
	"sync"

	"github.com/boonlang/boon-runtime/actor"
	"github.com/boonlang/boon-runtime/value"
	"github.com/google/uuid"
)

// ItemId is a 128-bit stable identity attached to a list item independent
// of its index; survives filtering/mapping via a pid-mapping table.
type ItemId uuid.UUID

// NewItemId mints a fresh ItemId.
func NewItemId() ItemId { return ItemId(uuid.New()) }

func (id ItemId) String() string { return uuid.UUID(id).String() }

// Item pairs a stable identity with its current value handle.
type Item struct {
	ID    ItemId
	Value value.Value
}

// ChangeKind enumerates ListChange variants.
type ChangeKind int

const (
	ChangeReplace ChangeKind = iota
	ChangeInsertAt
	ChangeUpdateAt
	ChangeRemove
	ChangeMove
	ChangePush
	ChangePop
	ChangeClear
)

// ListChange is the index-based external change operation, per spec.md
// §3.
type ListChange struct {
	Kind  ChangeKind
	Index int         // InsertAt, UpdateAt, Move (old index)
	NewIndex int      // Move
	Value value.Value // InsertAt, UpdateAt, Push
	ID    ItemId      // Remove (by stable id); InsertAt/Push echo the minted
	                  // item id here once applied, so change-stream
	                  // subscribers (e.g. a downstream Map) see the same
	                  // identity the diff history recorded for it.
	Items []Item      // Replace
}

// DiffKind enumerates ListDiff variants.
type DiffKind int

const (
	DiffInsert DiffKind = iota
	DiffRemove
	DiffUpdate
	DiffReplace
)

// ListDiff is the stable-identity diff produced from a ListChange against
// the pre-change snapshot, per spec.md §3.
type ListDiff struct {
	Kind  DiffKind
	ID    ItemId
	After *ItemId // Insert: predecessor item, nil if head
	Value value.Value
	Items []Item // Replace
}

// UpdateKind enumerates get_update_since's three possible replies.
type UpdateKind int

const (
	UpdateCurrent UpdateKind = iota // no diffs since subscriberVersion
	UpdateSnapshot
	UpdateDiffs
)

// Update is the reply to get_update_since.
type Update struct {
	Kind     UpdateKind
	Snapshot []Item
	Diffs    []ListDiff
	Version  int
}

const defaultDiffCapacity = 1500

// Option configures a List at construction.
type Option func(*config)

type config struct {
	diffCapacity int
	logger       *slog.Logger
}

// WithDiffCapacity overrides the default 1500-entry diff ring.
func WithDiffCapacity(n int) Option {
	return func(c *config) { c.diffCapacity = n }
}

// WithLogger sets the list's diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

type changeSub struct {
	ch chan ListChange
}

type diffRingEntry struct {
	version int
	diff    ListDiff
}

type applyRequest struct {
	change ListChange
	reply  chan struct{}
}

type getUpdateRequest struct {
	sinceVersion int
	reply        chan Update
}

type snapshotRequest struct {
	reply chan []Item
}

type subscribeChangesRequest struct {
	reply chan *changeSub
}

// List is the reactive ordered collection actor.
type List struct {
	name   string
	logger *slog.Logger
	loop   *actor.ActorLoop

	applyCh           chan applyRequest
	getUpdateCh       chan getUpdateRequest
	snapshotCh        chan snapshotRequest
	subscribeChangesCh chan subscribeChangesRequest

	diffCapacity int

	closeOnce sync.Once
}

// New constructs and starts a List seeded with initial items.
func New(ctx context.Context, name string, initial []Item, opts ...Option) *List {
	cfg := config{diffCapacity: defaultDiffCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	l := &List{
		name:               name,
		logger:             logger,
		applyCh:            make(chan applyRequest),
		getUpdateCh:        make(chan getUpdateRequest),
		snapshotCh:         make(chan snapshotRequest),
		subscribeChangesCh: make(chan subscribeChangesRequest),
		diffCapacity:       cfg.diffCapacity,
	}
	l.loop = actor.NewActorLoop(ctx, name, logger, func(ctx context.Context) {
		l.run(ctx, initial)
	})
	return l
}

func (l *List) run(ctx context.Context, initial []Item) {
	items := append([]Item(nil), initial...)
	var ring []diffRingEntry
	version := 0
	oldestVersion := 0
	subs := map[int]*changeSub{}
	nextSubID := 0

	appendDiff := func(d ListDiff) {
		version++
		ring = append(ring, diffRingEntry{version: version, diff: d})
		if len(ring) > l.diffCapacity {
			ring = ring[len(ring)-l.diffCapacity:]
			oldestVersion = ring[0].version - 1
		}
	}

	broadcast := func(c ListChange) {
		for id, s := range subs {
			select {
			case s.ch <- c:
			default:
				delete(subs, id)
				close(s.ch)
			}
		}
	}

	snapshotItems := func() []Item {
		return append([]Item(nil), items...)
	}

	for {
		select {
		case <-ctx.Done():
			for _, s := range subs {
				close(s.ch)
			}
			return

		case req := <-l.applyCh:
			id := req.change.ID
			mintsID := req.change.Kind == ChangeInsertAt || req.change.Kind == ChangePush
			if mintsID && id == (ItemId{}) {
				id = NewItemId()
			}
			diff := toDiff(items, req.change, id)
			items = applyChange(l.logger, l.name, items, req.change, id)
			if mintsID {
				// echo the id actually used back onto the broadcast
				// change, so change-stream subscribers (not just the
				// diff history) see the same identity.
				req.change.ID = id
			}
			if diff != nil {
				appendDiff(*diff)
			}
			broadcast(req.change)
			close(req.reply)

		case req := <-l.subscribeChangesCh:
			ch := make(chan ListChange, 16)
			sub := &changeSub{ch: ch}
			id := nextSubID
			nextSubID++
			subs[id] = sub
			// first delivery is a full Replace with current items.
			select {
			case ch <- ListChange{Kind: ChangeReplace, Items: snapshotItems()}:
			default:
			}
			req.reply <- sub

		case req := <-l.snapshotCh:
			req.reply <- snapshotItems()

		case req := <-l.getUpdateCh:
			if req.sinceVersion >= version {
				req.reply <- Update{Kind: UpdateCurrent, Version: version}
				continue
			}
			if req.sinceVersion < oldestVersion {
				req.reply <- Update{Kind: UpdateSnapshot, Snapshot: snapshotItems(), Version: version}
				continue
			}
			pending := version - req.sinceVersion
			// heuristic: if catching up would take more than 50% of
			// current length, send a snapshot instead, per spec.md §4.5.
			if len(items) > 0 && pending > len(items)/2 {
				req.reply <- Update{Kind: UpdateSnapshot, Snapshot: snapshotItems(), Version: version}
				continue
			}
			diffs := make([]ListDiff, 0, pending)
			for _, e := range ring {
				if e.version > req.sinceVersion {
					diffs = append(diffs, e.diff)
				}
			}
			req.reply <- Update{Kind: UpdateDiffs, Diffs: diffs, Version: version}
		}
	}
}

// Apply translates change to a ListDiff against the pre-change snapshot,
// then mutates the list and broadcasts change to change subscribers.
func (l *List) Apply(ctx context.Context, change ListChange) error {
	reply := make(chan struct{})
	select {
	case l.applyCh <- applyRequest{change: change, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.loop.Done():
		return nil
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current items with their ItemIds.
func (l *List) Snapshot(ctx context.Context) ([]Item, error) {
	reply := make(chan []Item, 1)
	select {
	case l.snapshotCh <- snapshotRequest{reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.loop.Done():
		return nil, nil
	}
	select {
	case items := <-reply:
		return items, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ChangeSubscription is the handle returned by SubscribeChanges.
type ChangeSubscription struct{ sub *changeSub }

// Chan exposes the receive channel for range/select composition.
func (s *ChangeSubscription) Chan() <-chan ListChange { return s.sub.ch }

// SubscribeChanges returns a Stream<ListChange>; first delivery is a full
// Replace with current items.
func (l *List) SubscribeChanges(ctx context.Context) (*ChangeSubscription, error) {
	reply := make(chan *changeSub, 1)
	select {
	case l.subscribeChangesCh <- subscribeChangesRequest{reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.loop.Done():
		return nil, nil
	}
	select {
	case s := <-reply:
		return &ChangeSubscription{sub: s}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetUpdateSince implements the pull side of subscribe_diffs. List has no
// notification channel announcing that an update exists; callers poll here
// with the last version they saw.
func (l *List) GetUpdateSince(ctx context.Context, subscriberVersion int) (Update, error) {
	reply := make(chan Update, 1)
	select {
	case l.getUpdateCh <- getUpdateRequest{sinceVersion: subscriberVersion, reply: reply}:
	case <-ctx.Done():
		return Update{}, ctx.Err()
	case <-l.loop.Done():
		return Update{}, nil
	}
	select {
	case u := <-reply:
		return u, nil
	case <-ctx.Done():
		return Update{}, ctx.Err()
	}
}

// Stop cancels the list's loop.
func (l *List) Stop() { l.loop.Stop() }

// moveItems relocates the item at old to new, resolving spec.md's open
// question by subtracting one from new when it straddles the removal
// point, consistently between diff production and mutation.
func moveItems(items []Item, old, new int) []Item {
	if new > old {
		new--
	}
	if new < 0 {
		new = 0
	}
	if new > len(items)-1 {
		new = len(items) - 1
	}
	out := append([]Item(nil), items[:old]...)
	out = append(out, items[old+1:]...)
	moved := items[old]
	final := make([]Item, 0, len(items))
	final = append(final, out[:new]...)
	final = append(final, moved)
	final = append(final, out[new:]...)
	return final
}

func indexOfID(items []Item, id ItemId) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// toDiff computes the ListDiff for change against the pre-change items.
// Must run before applyChange mutates items, per spec.md §4.5. id is the
// ItemId minted by the caller for this change, shared with applyChange so
// an insert's diff and its stored Item always carry the same identity.
func toDiff(items []Item, change ListChange, id ItemId) *ListDiff {
	switch change.Kind {
	case ChangeReplace, ChangeClear:
		return &ListDiff{Kind: DiffReplace, Items: change.Items}
	case ChangeInsertAt:
		if change.Index > len(items) {
			return nil // no-op, logged by caller
		}
		var after *ItemId
		if change.Index > 0 {
			a := items[change.Index-1].ID
			after = &a
		}
		return &ListDiff{Kind: DiffInsert, ID: id, After: after, Value: change.Value}
	case ChangeUpdateAt:
		if change.Index < 0 || change.Index >= len(items) {
			return nil
		}
		return &ListDiff{Kind: DiffUpdate, ID: items[change.Index].ID, Value: change.Value}
	case ChangeRemove:
		if indexOfID(items, change.ID) < 0 {
			return nil // unknown id: no-op
		}
		return &ListDiff{Kind: DiffRemove, ID: change.ID}
	case ChangeMove:
		if change.Index < 0 || change.Index >= len(items) {
			return &ListDiff{Kind: DiffReplace, Items: append([]Item(nil), items...)}
		}
		moved := moveItems(items, change.Index, change.NewIndex)
		return &ListDiff{Kind: DiffReplace, Items: moved}
	case ChangePush:
		var after *ItemId
		if len(items) > 0 {
			a := items[len(items)-1].ID
			after = &a
		}
		return &ListDiff{Kind: DiffInsert, ID: id, After: after, Value: change.Value}
	case ChangePop:
		if len(items) == 0 {
			return nil
		}
		return &ListDiff{Kind: DiffRemove, ID: items[len(items)-1].ID}
	default:
		return nil
	}
}

// applyChange mutates items per change, matching spec.md §4.5's tie-break
// rules for InsertAt/Remove/Move edge cases. id is the same ItemId passed
// to toDiff for this change, so an inserted item's identity matches the
// diff broadcast for it.
func applyChange(logger *slog.Logger, name string, items []Item, change ListChange, id ItemId) []Item {
	switch change.Kind {
	case ChangeReplace, ChangeClear:
		return append([]Item(nil), change.Items...)
	case ChangeInsertAt:
		if change.Index > len(items) {
			logger.Debug("list: InsertAt index beyond length, no-op", slog.String("list", name), slog.Int("index", change.Index), slog.Int("len", len(items)))
			return items
		}
		out := make([]Item, 0, len(items)+1)
		out = append(out, items[:change.Index]...)
		out = append(out, Item{ID: id, Value: change.Value})
		out = append(out, items[change.Index:]...)
		return out
	case ChangeUpdateAt:
		if change.Index < 0 || change.Index >= len(items) {
			return items
		}
		out := append([]Item(nil), items...)
		out[change.Index].Value = change.Value
		return out
	case ChangeRemove:
		idx := indexOfID(items, change.ID)
		if idx < 0 {
			logger.Debug("list: Remove of unknown id, no-op", slog.String("list", name), slog.String("id", change.ID.String()))
			return items
		}
		out := append([]Item(nil), items[:idx]...)
		out = append(out, items[idx+1:]...)
		return out
	case ChangeMove:
		if change.Index < 0 || change.Index >= len(items) {
			logger.Debug("list: Move with out-of-range old index, emitting trivial Replace", slog.String("list", name), slog.Int("old", change.Index))
			return items
		}
		return moveItems(items, change.Index, change.NewIndex)
	case ChangePush:
		return append(append([]Item(nil), items...), Item{ID: id, Value: change.Value})
	case ChangePop:
		if len(items) == 0 {
			return items
		}
		return items[:len(items)-1]
	default:
		return items
	}
}
