// Package eventbus implements external event ingestion: a stream of
// {path, value} events fed by Router/Timer/UI producers, routed to the
// actors whose event paths match, per spec.md §6.
//
// Event paths are constructed as
// <scope>.<variable>.event.<kind>[.<field>], with list-item segments
// rendered as a 4-digit, 1-based index (e.g. "0002"), per spec.md §6's
// worked Todo-toggle example.
//
// Grounded on pumped-go/examples/health-monitor's alert-dispatch loop
// (a single actor fanning a stream of structured events out to
// interested subscribers by key) for the dispatch shape, generalized
// from a fixed alert-kind switch to a path-keyed subscriber map.
package eventbus

import (
	"context"
	"fmt"
	"strings"

	"github.com/boonlang/boon-runtime/actor"
	"github.com/boonlang/boon-runtime/value"
)

// InputKind enumerates the external-event kinds the dataflow compiler
// recognizes, per spec.md §6.
type InputKind int

const (
	LinkPress InputKind = iota
	LinkClick
	KeyDown
	TextChange
	Blur
	Focus
	DoubleClick
	Timer
	Router
)

func (k InputKind) String() string {
	switch k {
	case LinkPress:
		return "LinkPress"
	case LinkClick:
		return "LinkClick"
	case KeyDown:
		return "KeyDown"
	case TextChange:
		return "TextChange"
	case Blur:
		return "Blur"
	case Focus:
		return "Focus"
	case DoubleClick:
		return "DoubleClick"
	case Timer:
		return "Timer"
	case Router:
		return "Router"
	default:
		return "Unknown"
	}
}

// Event is an external occurrence: a dotted path and the value attached
// to it.
type Event struct {
	Path  string
	Value value.Value
}

// ListItemSegment renders a 1-based list-item index as the 4-digit
// segment spec.md §6 requires (e.g. 2 -> "0002").
func ListItemSegment(index int) string {
	return fmt.Sprintf("%04d", index)
}

// BuildPath constructs an event path from its scope/variable prefix, the
// event kind, and an optional trailing field, per spec.md §6.
func BuildPath(scopePrefix, variable string, kind InputKind, field string) string {
	parts := []string{scopePrefix, variable, "event", kind.String()}
	if field != "" {
		parts = append(parts, field)
	}
	return strings.Join(parts, ".")
}

type subscribeReq struct {
	pattern string
	ch      chan Event
}

type unsubscribeReq struct {
	pattern string
	ch      chan Event
}

// Bus is the actor that accepts a stream of external events and fans
// them out to subscribers registered against exact paths or wildcard
// patterns (a "*" segment in any position matches any single path
// component, used for per-list-item event paths; pattern and path must
// have the same number of segments).
type Bus struct {
	publishCh     chan Event
	subscribeCh   chan subscribeReq
	unsubscribeCh chan unsubscribeReq
	loop          *actor.ActorLoop
}

// New starts an event bus actor.
func New(ctx context.Context) *Bus {
	b := &Bus{
		publishCh:     make(chan Event, 256),
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan unsubscribeReq),
	}
	b.loop = actor.NewActorLoop(ctx, "eventbus", nil, b.run)
	return b
}

func (b *Bus) run(ctx context.Context) {
	subs := make(map[string][]chan Event)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-b.subscribeCh:
			subs[req.pattern] = append(subs[req.pattern], req.ch)
		case req := <-b.unsubscribeCh:
			list := subs[req.pattern]
			for i, ch := range list {
				if ch == req.ch {
					subs[req.pattern] = append(list[:i], list[i+1:]...)
					close(ch)
					break
				}
			}
		case ev := <-b.publishCh:
			for pattern, chans := range subs {
				if !matches(pattern, ev.Path) {
					continue
				}
				for _, ch := range chans {
					select {
					case ch <- ev:
					default:
					}
				}
			}
		}
	}
}

// matches reports whether path satisfies pattern, where a "*" path
// segment in pattern matches any single segment in path.
func matches(pattern, path string) bool {
	pp := strings.Split(pattern, ".")
	sp := strings.Split(path, ".")
	if len(pp) != len(sp) {
		return false
	}
	for i := range pp {
		if pp[i] == "*" {
			continue
		}
		if pp[i] != sp[i] {
			return false
		}
	}
	return true
}

// Publish enqueues an external event for dispatch.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	select {
	case b.publishCh <- ev:
	case <-ctx.Done():
	}
}

// Subscription receives events matching the pattern it was created with.
type Subscription struct {
	bus     *Bus
	pattern string
	ch      chan Event
}

// Chan returns the channel of matching events.
func (s *Subscription) Chan() <-chan Event { return s.ch }

// Close unregisters the subscription.
func (s *Subscription) Close() {
	select {
	case s.bus.unsubscribeCh <- unsubscribeReq{pattern: s.pattern, ch: s.ch}:
	default:
	}
}

// Subscribe registers interest in events whose path matches pattern
// (exact, or with "*" wildcard segments).
func (b *Bus) Subscribe(ctx context.Context, pattern string) (*Subscription, error) {
	ch := make(chan Event, 16)
	select {
	case b.subscribeCh <- subscribeReq{pattern: pattern, ch: ch}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Subscription{bus: b, pattern: pattern, ch: ch}, nil
}

// Stop cancels the bus actor's loop.
func (b *Bus) Stop() { b.loop.Stop() }
