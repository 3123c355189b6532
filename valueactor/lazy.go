package valueactor

import (
	"context"
	"log/slog"

	"github.com/boonlang/boon-runtime/actor"
	"github.com/boonlang/boon-runtime/value"
)

// shiftThreshold is the default minimum-cursor-advance before the shared
// replay buffer is compacted, per spec.md §4.4 ("e.g., 100").
const shiftThreshold = 100

// LazyValueActor is the demand-driven ValueActor variant: it spawns no
// eager consuming task. Each subscription is a pull request; the loop
// keeps a per-subscriber cursor into a shared replay buffer and polls the
// source exactly once when a cursor reaches the buffer's end. The HOLD/THEN
// accumulators in package interp do not use it; they run on eager
// ValueActors.
type LazyValueActor struct {
	name   string
	logger *slog.Logger
	loop   *actor.ActorLoop

	source func(ctx context.Context) (value.Value, bool, error)

	pullCh    chan pullRequest
	nextCh    chan nextRequest
	closeSubCh chan int
}

type pullRequest struct {
	reply chan int // assigned subscriber (cursor) id
}

type nextRequest struct {
	subID int
	reply chan pullResult
}

type pullResult struct {
	v      value.Value
	ok     bool
	err    error
}

// NewLazy constructs a LazyValueActor pulling from source on demand.
func NewLazy(ctx context.Context, name string, source func(ctx context.Context) (value.Value, bool, error), logger *slog.Logger) *LazyValueActor {
	if logger == nil {
		logger = slog.Default()
	}
	l := &LazyValueActor{
		name:       name,
		logger:     logger,
		source:     source,
		pullCh:     make(chan pullRequest),
		nextCh:     make(chan nextRequest),
		closeSubCh: make(chan int),
	}
	l.loop = actor.NewActorLoop(ctx, name, logger, l.run)
	return l
}

func (l *LazyValueActor) keepAliveMarker() {}

func (l *LazyValueActor) run(ctx context.Context) {
	buffer := []value.Value{}
	baseOffset := 0 // buffer[0] corresponds to logical index baseOffset
	cursors := map[int]int{}
	nextSubID := 0
	sourceDone := false

	shiftIfPossible := func() {
		if len(cursors) == 0 {
			return
		}
		min := -1
		for _, c := range cursors {
			if min == -1 || c < min {
				min = c
			}
		}
		advance := min - baseOffset
		if advance >= shiftThreshold {
			buffer = buffer[advance:]
			baseOffset = min
			l.logger.Debug("valueactor: lazy buffer shifted", slog.String("actor", l.name), slog.Int("advance", advance))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case req := <-l.pullCh:
			id := nextSubID
			nextSubID++
			cursors[id] = baseOffset + len(buffer)
			req.reply <- id

		case id := <-l.closeSubCh:
			delete(cursors, id)
			shiftIfPossible()

		case req := <-l.nextCh:
			cur, ok := cursors[req.subID]
			if !ok {
				req.reply <- pullResult{err: ErrActorDropped}
				continue
			}
			idx := cur - baseOffset
			if idx < len(buffer) {
				cursors[req.subID] = cur + 1
				req.reply <- pullResult{v: buffer[idx], ok: true}
				shiftIfPossible()
				continue
			}
			if sourceDone {
				req.reply <- pullResult{ok: false}
				continue
			}
			v, ok, err := l.source(ctx)
			if err != nil {
				req.reply <- pullResult{err: err}
				continue
			}
			if !ok {
				sourceDone = true
				req.reply <- pullResult{ok: false}
				continue
			}
			buffer = append(buffer, v)
			cursors[req.subID] = cur + 1
			req.reply <- pullResult{v: v, ok: true}
		}
	}
}

// LazySubscription is a per-subscriber pull handle into a LazyValueActor.
type LazySubscription struct {
	actor *LazyValueActor
	id    int
}

// Subscribe registers a new cursor positioned at the buffer's current end.
func (l *LazyValueActor) Subscribe(ctx context.Context) (*LazySubscription, error) {
	reply := make(chan int, 1)
	select {
	case l.pullCh <- pullRequest{reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.loop.Done():
		return nil, ErrActorDropped
	}
	select {
	case id := <-reply:
		return &LazySubscription{actor: l, id: id}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Next pulls the next value for this subscription, polling the source at
// most once if the shared buffer has been exhausted. ok is false once the
// source is exhausted.
func (s *LazySubscription) Next(ctx context.Context) (value.Value, bool, error) {
	reply := make(chan pullResult, 1)
	select {
	case s.actor.nextCh <- nextRequest{subID: s.id, reply: reply}:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-s.actor.loop.Done():
		return nil, false, ErrActorDropped
	}
	select {
	case r := <-reply:
		return r.v, r.ok, r.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close releases this subscription's cursor, allowing the shared buffer to
// compact once the slowest remaining subscriber allows it.
func (s *LazySubscription) Close() {
	select {
	case s.actor.closeSubCh <- s.id:
	case <-s.actor.loop.Done():
	}
}

// Stop cancels the lazy actor's loop.
func (l *LazyValueActor) Stop() { l.loop.Stop() }
