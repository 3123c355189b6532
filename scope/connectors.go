package scope

import "sync"

// ReferenceConnector owns {Span -> Actor} plus a pending-lookup queue
// {Span -> []chan}. register(span, actor) inserts and fulfills all
// waiting queries; query(span) returns immediately if present, else
// queues. Grounded on the Roasbeef/substrate actor's request/response
// promise pattern (other_examples) for the "register fulfills pending
// waiters" shape; spec.md §4.7 has no direct teacher precedent since the
// teacher resolves by direct pointer reference rather than a
// message-passing registry.
type ReferenceConnector struct {
	mu      sync.Mutex
	entries map[Span]any
	pending map[Span][]chan any
	closed  bool
}

// NewReferenceConnector constructs an empty connector.
func NewReferenceConnector() *ReferenceConnector {
	return &ReferenceConnector{
		entries: make(map[Span]any),
		pending: make(map[Span][]chan any),
	}
}

// Register inserts actor under span and fulfills all queries already
// waiting on it. Registering the same span twice updates the entry but
// does not create a second cell, per spec.md §3's LINK invariant.
func (c *ReferenceConnector) Register(span Span, actorHandle any) {
	c.mu.Lock()
	c.entries[span] = actorHandle
	waiters := c.pending[span]
	delete(c.pending, span)
	c.mu.Unlock()

	for _, w := range waiters {
		w <- actorHandle
		close(w)
	}
}

// Query returns a channel that delivers the actor registered at span: at
// once if it is present, otherwise when Register is called for span. If
// the connector is closed first, the channel is closed without a value.
func (c *ReferenceConnector) Query(span Span) <-chan any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[span]; ok {
		ch := make(chan any, 1)
		ch <- v
		close(ch)
		return ch
	}
	ch := make(chan any, 1)
	if c.closed {
		close(ch)
		return ch
	}
	c.pending[span] = append(c.pending[span], ch)
	return ch
}

// Close marks the connector closed: queries still pending, and later
// queries for a span not yet registered, resolve to a closed channel
// rather than hanging forever. Register keeps recording entries after
// Close.
func (c *ReferenceConnector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, waiters := range c.pending {
		for _, w := range waiters {
			close(w)
		}
	}
	c.pending = make(map[Span][]chan any)
}

// LinkConnector is structurally identical to ReferenceConnector but
// stores the event-value sender belonging to a LINK variable. Used by
// code binding an element's event to a LINK declared elsewhere.
type LinkConnector struct {
	inner *ReferenceConnector
}

// NewLinkConnector constructs an empty connector.
func NewLinkConnector() *LinkConnector {
	return &LinkConnector{inner: NewReferenceConnector()}
}

// Register inserts sender under span.
func (c *LinkConnector) Register(span Span, sender any) { c.inner.Register(span, sender) }

// Query returns the sender registered at span, per ReferenceConnector.Query.
func (c *LinkConnector) Query(span Span) <-chan any { return c.inner.Query(span) }

// Close closes the underlying connector.
func (c *LinkConnector) Close() { c.inner.Close() }

// passThroughKey identifies a PassThroughConnector entry.
type passThroughKey struct {
	pid PersistenceId
	sc  string // scope identity string
}

// passThroughEntry is the value a PassThroughConnector stores:
// `(sender, actor, forwarders)` per spec.md §4.7.
type passThroughEntry struct {
	Sender     any
	Actor      any
	Forwarders []any
}

// PassThroughConnector maps (persistence_id, scope) -> (sender, actor,
// forwarders). Lets `element |> LINK { alias }` preserve the same
// downstream actor across re-evaluations: the second evaluation finds the
// existing entry and pushes into its sender instead of creating a new
// cell.
type PassThroughConnector struct {
	mu      sync.Mutex
	entries map[passThroughKey]*passThroughEntry
}

// NewPassThroughConnector constructs an empty connector.
func NewPassThroughConnector() *PassThroughConnector {
	return &PassThroughConnector{entries: make(map[passThroughKey]*passThroughEntry)}
}

// GetOrCreate returns the existing entry for (pid, identity) if one
// exists, otherwise installs and returns a fresh one built from make.
func (c *PassThroughConnector) GetOrCreate(pid PersistenceId, identity Identity, make_ func() (sender any, actorHandle any)) (*passThroughEntry, bool) {
	key := passThroughKey{pid: pid, sc: identity.String()}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e, true
	}
	sender, actorHandle := make_()
	e := &passThroughEntry{Sender: sender, Actor: actorHandle}
	c.entries[key] = e
	return e, false
}

// AddForwarder attaches an extra forwarder handle (an ActorLoop kept
// alive to preserve a forwarding subscription, per spec.md §5) to an
// existing entry.
func (c *PassThroughConnector) AddForwarder(pid PersistenceId, identity Identity, forwarder any) {
	key := passThroughKey{pid: pid, sc: identity.String()}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.Forwarders = append(e.Forwarders, forwarder)
	}
}
