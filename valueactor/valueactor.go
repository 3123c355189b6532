// Package valueactor implements the reactive cell primitive: a single
// goroutine owning a ring-buffered value history and a set of push
// subscribers, driven by an input stream, direct stores, and a control
// message channel.
//
// Grounded on pumped-go/scope.go's Resolve/Update cache-plus-invalidation
// model, generalized into an owning goroutine, and on the Roasbeef/
// substrate Actor[M,R] process loop (other_examples) for the
// message-channel select shape.
package valueactor

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/boonlang/boon-runtime/actor"
	"github.com/boonlang/boon-runtime/value"
)

// Version is a ValueActor's strictly-monotonic emission counter.
type Version uint64

// historyEntry is one ring-buffer slot.
type historyEntry struct {
	version Version
	value   value.Value
}

// Option configures a ValueActor at construction.
type Option func(*config)

type config struct {
	historyCapacity int
	logger          *slog.Logger
	inputs          []Keepalive
}

// Keepalive is any handle that must be held alive for this actor's
// lifetime, per spec.md §9 ("a consumer must hold its producers").
type Keepalive interface {
	keepAliveMarker()
}

// WithHistoryCapacity overrides the default 64-entry ring, per spec.md §9
// ("implementations should expose them as configuration").
func WithHistoryCapacity(n int) Option {
	return func(c *config) { c.historyCapacity = n }
}

// WithLogger sets the actor's diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithInputs registers upstream handles that must stay alive for as long
// as this actor does.
func WithInputs(inputs ...Keepalive) Option {
	return func(c *config) { c.inputs = append(c.inputs, inputs...) }
}

type subscriber struct {
	ch       chan value.Value
	sendOnly bool // best-effort try-send fanout per spec.md §4.4
}

type subscribeRequest struct {
	fromVersion Version // 0 means "replay all history"
	liveOnly    bool
	reply       chan *subscription
}

type storeMsg struct {
	v value.Value
}

// ControlMessage is the migration/shutdown control-plane payload accepted
// by send_message.
type ControlMessage struct {
	Kind    ControlKind
	Target  *ValueActor // MigrateTo
	BatchID string      // BatchAck

	debugReply chan migrationDebug // debugQueryMigration, test-only
}

// ControlKind enumerates the ValueActor migration state machine's inputs.
type ControlKind int

const (
	MigrateTo ControlKind = iota
	BatchAck
	MigrationComplete
	RedirectSubscribers
	Shutdown

	// debugQueryMigration is not part of the public send_message surface;
	// it lets tests observe migState/pendingBatches without exposing
	// actor-internal state through the regular API.
	debugQueryMigration
)

// migrationDebug reports the actor's migration-state-machine position,
// for test use only.
type migrationDebug struct {
	state          migrationState
	pendingBatches int
}

// migrationState tracks the actor's position in the state machine
// documented in spec.md §4.4.
type migrationState int

const (
	stateNormal migrationState = iota
	stateMigrating
	stateShuttingDown
)

// ValueActor is the reactive cell primitive. All mutable state is owned
// exclusively by the goroutine started in New; every other method
// communicates with it over channels.
type ValueActor struct {
	name   string
	logger *slog.Logger
	loop   *actor.ActorLoop

	input       <-chan value.Value
	storeCh     chan storeMsg
	controlCh   chan ControlMessage
	subscribeCh chan subscribeRequest
	currentCh   chan chan currentReply
	valueCh     chan chan currentReply

	historyCap int
	inputs     []Keepalive

	readyOnce sync.Once
	readyCh   chan struct{}
}

type currentReply struct {
	v       value.Value
	hasVal  bool
	dropped bool
}

// New constructs and starts a ValueActor whose input is driven by in (an
// Infinite TypedStream's channel). ctx governs the actor's lifetime.
func New(ctx context.Context, name string, in <-chan value.Value, opts ...Option) *ValueActor {
	cfg := config{historyCapacity: 64}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &ValueActor{
		name:        name,
		logger:      logger,
		input:       in,
		storeCh:     make(chan storeMsg),
		controlCh:   make(chan ControlMessage),
		subscribeCh: make(chan subscribeRequest),
		currentCh:   make(chan chan currentReply),
		valueCh:     make(chan chan currentReply),
		historyCap:  cfg.historyCapacity,
		inputs:      cfg.inputs,
		readyCh:     make(chan struct{}),
	}
	a.loop = actor.NewActorLoop(ctx, name, logger, a.run)
	return a
}

// Name returns the actor's diagnostic name.
func (a *ValueActor) Name() string { return a.name }

func (a *ValueActor) keepAliveMarker() {}

func (a *ValueActor) run(ctx context.Context) {
	var history []historyEntry
	var nextVersion Version = 1
	subs := map[int]*subscriber{}
	nextSubID := 0
	ended := false
	migState := stateNormal
	var migrationTarget *ValueActor
	pendingBatches := map[string]bool{}

	pendingValueWaiters := make([]chan currentReply, 0)

	appendHistory := func(v value.Value) Version {
		ver := nextVersion
		nextVersion++
		history = append(history, historyEntry{version: ver, value: v})
		if len(history) > a.historyCap {
			history = history[len(history)-a.historyCap:]
		}
		return ver
	}

	fanout := func(v value.Value) {
		for id, s := range subs {
			select {
			case s.ch <- v:
			default:
				if s.sendOnly {
					continue // slow consumer: drop this emission, keep subscriber
				}
				a.logger.Debug("valueactor: dropped slow subscriber", slog.String("actor", a.name))
				delete(subs, id)
				close(s.ch)
			}
		}
		for _, w := range pendingValueWaiters {
			select {
			case w <- currentReply{v: v, hasVal: true}:
			default:
			}
			close(w)
		}
		pendingValueWaiters = pendingValueWaiters[:0]
		a.readyOnce.Do(func() { close(a.readyCh) })
	}

	var in <-chan value.Value = a.input

	for {
		select {
		case <-ctx.Done():
			for _, s := range subs {
				close(s.ch)
			}
			for _, w := range pendingValueWaiters {
				close(w)
			}
			return

		case v, ok := <-in:
			if !ok {
				ended = true
				in = nil
				continue
			}
			if migState == stateMigrating && migrationTarget != nil {
				// forward to target, buffer locally: per spec.md §4.4's
				// migration state machine, an in-flight write during
				// Migrating is relocated to the target and tracked as a
				// pending batch until the migration coordinator acks it.
				ver := appendHistory(v)
				batchID := strconv.FormatUint(uint64(ver), 10)
				pendingBatches[batchID] = true
				migrationTarget.directStore(v)
				fanout(v)
				continue
			}
			appendHistory(v)
			fanout(v)

		case msg := <-a.storeCh:
			appendHistory(msg.v)
			fanout(msg.v)

		case ctl := <-a.controlCh:
			switch ctl.Kind {
			case MigrateTo:
				migState = stateMigrating
				migrationTarget = ctl.Target
			case BatchAck:
				delete(pendingBatches, ctl.BatchID)
			case MigrationComplete:
				migState = stateNormal
				migrationTarget = nil
			case debugQueryMigration:
				ctl.debugReply <- migrationDebug{state: migState, pendingBatches: len(pendingBatches)}
			case RedirectSubscribers:
				migState = stateShuttingDown
				if migrationTarget != nil {
					for id, s := range subs {
						go migrationTarget.forwardTo(s.ch)
						delete(subs, id)
					}
				}
			case Shutdown:
				for _, s := range subs {
					close(s.ch)
				}
				for _, w := range pendingValueWaiters {
					close(w)
				}
				return
			}

		case req := <-a.subscribeCh:
			ch := make(chan value.Value, 16)
			if req.liveOnly {
				// subscribe_from_now: no historical replay.
			} else if !ended || len(history) > 0 {
				for _, h := range history {
					if h.version > req.fromVersion {
						select {
						case ch <- h.value:
						default:
						}
					}
				}
			} else {
				// stream ended and nothing was ever produced: SKIP
				// semantics, subscriber receives an immediately-closed
				// channel.
				close(ch)
				req.reply <- &subscription{ch: ch, closed: true}
				continue
			}
			id := nextSubID
			nextSubID++
			subs[id] = &subscriber{ch: ch}
			req.reply <- &subscription{ch: ch}

		case reply := <-a.currentCh:
			if len(history) == 0 {
				reply <- currentReply{hasVal: false}
				continue
			}
			last := history[len(history)-1]
			reply <- currentReply{v: last.value, hasVal: true}

		case reply := <-a.valueCh:
			if len(history) > 0 {
				last := history[len(history)-1]
				reply <- currentReply{v: last.value, hasVal: true}
				continue
			}
			pendingValueWaiters = append(pendingValueWaiters, reply)
		}
	}
}

func (a *ValueActor) directStore(v value.Value) {
	select {
	case a.storeCh <- storeMsg{v: v}:
	case <-a.loop.Done():
	}
}

// forwardTo relays every value a holds or later produces into ch, the
// channel of a subscriber redirected from another actor, and closes ch
// once a's own subscription ends.
func (a *ValueActor) forwardTo(ch chan value.Value) {
	defer close(ch)
	sub, err := a.Subscribe(context.Background())
	if err != nil {
		return
	}
	for v := range sub.Chan() {
		ch <- v
	}
}

// subscription is the handle returned by Subscribe/SubscribeFromNow.
type subscription struct {
	ch     chan value.Value
	closed bool
}

// Chan exposes the receive channel for range/select composition.
func (s *subscription) Chan() <-chan value.Value { return s.ch }

// Subscribe returns a push-receiver channel; historical values from
// version 0 are delivered first (best-effort), then live values.
func (a *ValueActor) Subscribe(ctx context.Context) (*subscription, error) {
	reply := make(chan *subscription, 1)
	select {
	case a.subscribeCh <- subscribeRequest{reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.loop.Done():
		return nil, ErrActorDropped
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SubscribeFromNow returns a push-receiver channel starting from the
// current version; no historical replay.
func (a *ValueActor) SubscribeFromNow(ctx context.Context) (*subscription, error) {
	reply := make(chan *subscription, 1)
	select {
	case a.subscribeCh <- subscribeRequest{liveOnly: true, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.loop.Done():
		return nil, ErrActorDropped
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CurrentValue queries the stored value without waiting, returning
// ErrNoValueYet if nothing has been produced yet.
func (a *ValueActor) CurrentValue(ctx context.Context) (value.Value, error) {
	reply := make(chan currentReply, 1)
	select {
	case a.currentCh <- reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.loop.Done():
		return nil, ErrActorDropped
	}
	select {
	case r := <-reply:
		if !r.hasVal {
			return nil, ErrNoValueYet
		}
		return r.v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Value resolves on the next (or current) value.
func (a *ValueActor) Value(ctx context.Context) (value.Value, error) {
	reply := make(chan currentReply, 1)
	select {
	case a.valueCh <- reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.loop.Done():
		return nil, ErrActorDropped
	}
	select {
	case r, ok := <-reply:
		if !ok {
			return nil, ErrActorDropped
		}
		return r.v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// StoreValueDirectly pushes v as if it came from the input stream,
// bypassing the async input.
func (a *ValueActor) StoreValueDirectly(ctx context.Context, v value.Value) error {
	select {
	case a.storeCh <- storeMsg{v: v}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.loop.Done():
		return ErrActorDropped
	}
}

// SendMessage delivers a control-plane message (migration start, batch
// ack, complete, redirect, shutdown).
func (a *ValueActor) SendMessage(ctx context.Context, msg ControlMessage) error {
	select {
	case a.controlCh <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.loop.Done():
		return ErrActorDropped
	}
}

// debugMigration queries the actor's current migration state and pending
// batch count. Test-only: used to assert the state machine in spec.md
// §4.4 actually transitions as documented.
func (a *ValueActor) debugMigration(ctx context.Context) (migrationDebug, error) {
	reply := make(chan migrationDebug, 1)
	select {
	case a.controlCh <- ControlMessage{Kind: debugQueryMigration, debugReply: reply}:
	case <-ctx.Done():
		return migrationDebug{}, ctx.Err()
	case <-a.loop.Done():
		return migrationDebug{}, ErrActorDropped
	}
	select {
	case d := <-reply:
		return d, nil
	case <-ctx.Done():
		return migrationDebug{}, ctx.Err()
	}
}

// Ready returns a channel closed once the first value has been processed,
// so Subscribe callers can await initial availability.
func (a *ValueActor) Ready() <-chan struct{} { return a.readyCh }

// Stop cancels the actor's loop.
func (a *ValueActor) Stop() { a.loop.Stop() }
