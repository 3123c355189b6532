// Package scope implements the persistence-id / scope / span identity
// system (spec.md §4.7) that gives each dynamic instance of a
// source-position its own reactive identity across re-renders, plus the
// ReferenceConnector/LinkConnector/PassThroughConnector registries.
//
// Directly grounded on pumped-go/scope.go's Scope struct (mutex-guarded
// downstream map, extensions, presets, cleanup registry); Resolve/Update's
// cache-and-reactive-invalidation shape is reworked here to track
// valueactor.ValueActor handles under a real reactive/lazy/static
// dependency mode instead of the teacher's own.
package scope

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Span is a source-position token; spans key the connector registries.
type Span struct {
	File   string
	Line   int
	Column int
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Kind discriminates Root from Nested scopes.
type Kind int

const (
	Root Kind = iota
	Nested
)

// Identity is the Root/Nested(prefix) scope discriminator, per spec.md
// §3. Nested prefixes are built by WithChild combining the parent's
// prefix, an item index, and the item's PersistenceId.
type Identity struct {
	kind   Kind
	prefix string
}

// RootIdentity returns the program's single Root scope identity.
func RootIdentity() Identity { return Identity{kind: Root} }

// WithChild produces Nested(parent.prefix + ":" + id), where id combines
// both the item index and the item's PersistenceId, per spec.md §4.7:
// id = list_item_{index}_{pid}.
func (id Identity) WithChild(index int, pid PersistenceId) Identity {
	childID := fmt.Sprintf("list_item_%d_%s", index, pid.String())
	if id.kind == Root {
		return Identity{kind: Nested, prefix: childID}
	}
	return Identity{kind: Nested, prefix: id.prefix + ":" + childID}
}

func (id Identity) String() string {
	if id.kind == Root {
		return "root"
	}
	return id.prefix
}

// PersistenceId is a unique 128-bit id derived from source position and
// scope; stable across code edits that preserve structure, per spec.md
// §3.
type PersistenceId uuid.UUID

// NewPersistenceId derives a deterministic id from a span and scope
// identity: the first 16 bytes of the SHA-1 of "span|identity", with the
// version-5 and variant bits set, so identical
// (span, identity) pairs always produce the same id across separate
// construction passes over the same program. Grounded on the teacher's
// dep on github.com/google/uuid (pumped-go/examples/health-monitor).
func NewPersistenceId(span Span, identity Identity) PersistenceId {
	seed := span.String() + "|" + identity.String()
	sum := sha1.Sum([]byte(seed))
	var u uuid.UUID
	copy(u[:], sum[:16])
	// mark as version 5 (name-based, SHA-1) to stay a well-formed UUID.
	u[6] = (u[6] & 0x0f) | 0x50
	u[8] = (u[8] & 0x3f) | 0x80
	return PersistenceId(u)
}

func (p PersistenceId) String() string { return uuid.UUID(p).String() }

// asUint64 gives a stable, order-preserving-enough sort key for debug
// rendering without needing full uuid string comparisons each time.
func (p PersistenceId) asUint64() uint64 {
	return binary.BigEndian.Uint64(p[:8])
}

// ConstructInfo is constructed for every reactive node; used for logging,
// identity, and persistence, per spec.md §3.
type ConstructInfo struct {
	Type        string
	ID          PersistenceId
	Persisted   bool
	Description string
}

// Mode is the dependency resolution mode: static (resolve once and cache
// forever), reactive (invalidate on upstream change), or lazy (defer
// until explicitly requested). Generalizes the teacher's DependencyMode
// (pumped-go/executor.go) to this runtime's own semantics.
type Mode int

const (
	ModeStatic Mode = iota
	ModeReactive
	ModeLazy
)

// Node is anything a Scope can track as a dependency-graph vertex: a
// ValueActor, List, Variable, or connector entry. Concrete runtime types
// implement this with a stable identity and diagnostic label.
type Node interface {
	ConstructInfo() ConstructInfo
}

type dependency struct {
	node Node
	mode Mode
}

// Scope owns the reactive dependency graph (for invalidation fan-out),
// registered extensions, and a tag store, following
// pumped-go/scope.go's Scope 1:1, generalized to this runtime's Node
// interface instead of AnyExecutor.
type Scope struct {
	identity Identity

	mu         sync.RWMutex
	downstream map[Node][]Node
	deps       map[Node][]dependency
	tags       sync.Map
	extensions []Extension

	refConnector   *ReferenceConnector
	linkConnector  *LinkConnector
	passThrough    *PassThroughConnector
}

// Option configures a Scope at construction.
type Option func(*Scope)

// WithTag sets a tag on the scope at construction.
func WithTag(key, val any) Option {
	return func(s *Scope) { s.tags.Store(key, val) }
}

// WithExtension registers an extension on the scope at construction.
func WithExtension(ext Extension) Option {
	return func(s *Scope) { s.UseExtension(ext) }
}

// NewScope creates a Root scope.
func NewScope(opts ...Option) *Scope {
	return newScope(RootIdentity(), opts...)
}

// NewChild creates a scope nested under parent for the given child index
// and persistence id, sharing the parent's connectors (connectors are
// process-wide, per spec.md §3 "Connectors: process-wide").
func (s *Scope) NewChild(index int, pid PersistenceId, opts ...Option) *Scope {
	child := newScope(s.identity.WithChild(index, pid), opts...)
	child.refConnector = s.refConnector
	child.linkConnector = s.linkConnector
	child.passThrough = s.passThrough
	return child
}

func newScope(identity Identity, opts ...Option) *Scope {
	s := &Scope{
		identity:      identity,
		downstream:    make(map[Node][]Node),
		deps:          make(map[Node][]dependency),
		refConnector:  NewReferenceConnector(),
		linkConnector: NewLinkConnector(),
		passThrough:   NewPassThroughConnector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identity returns this scope's Root/Nested identity.
func (s *Scope) Identity() Identity { return s.identity }

// References returns the process-wide ReferenceConnector.
func (s *Scope) References() *ReferenceConnector { return s.refConnector }

// Links returns the process-wide LinkConnector.
func (s *Scope) Links() *LinkConnector { return s.linkConnector }

// PassThrough returns the process-wide PassThroughConnector.
func (s *Scope) PassThrough() *PassThroughConnector { return s.passThrough }

// RegisterDependency records that consumer depends on producer under
// mode, building the reactive-invalidation edge when mode is ModeReactive.
// Mirrors pumped-go/scope.go's Resolve's dependency-graph build step.
func (s *Scope) RegisterDependency(consumer, producer Node, mode Mode) {
	s.mu.Lock()
	s.deps[consumer] = append(s.deps[consumer], dependency{node: producer, mode: mode})
	if mode == ModeReactive {
		s.downstream[producer] = append(s.downstream[producer], consumer)
	}
	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	s.mu.Unlock()

	for _, ext := range exts {
		ext.OnDependencyRegistered(consumer, producer, mode)
	}
}

// Invalidate walks the dependency graph from node (iteratively, to avoid
// recursion blowing the stack on deep graphs, per pumped-go/graph.go) and
// returns every reactive dependent that must be recomputed.
func (s *Scope) Invalidate(node Node) []Node {
	s.mu.RLock()
	var result []Node
	visited := map[Node]bool{}
	stack := []Node{node}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range s.downstream[current] {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			result = append(result, dep)
			stack = append(stack, dep)
		}
	}
	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	s.mu.RUnlock()

	for _, ext := range exts {
		ext.OnInvalidate(node, result)
	}
	return result
}

// GetTag retrieves a tag value from the scope.
func (s *Scope) GetTag(key any) (any, bool) { return s.tags.Load(key) }

// SetTag stores a tag value on the scope.
func (s *Scope) SetTag(key, val any) { s.tags.Store(key, val) }

// UseExtension registers an extension, keeping the list ordered by
// Extension.Order, matching pumped-go/scope.go's UseExtension.
func (s *Scope) UseExtension(ext Extension) {
	s.mu.Lock()
	s.extensions = append(s.extensions, ext)
	sort.Slice(s.extensions, func(i, j int) bool {
		return s.extensions[i].Order() < s.extensions[j].Order()
	})
	s.mu.Unlock()
	ext.Init(s)
}

// Extensions returns a snapshot copy of the registered extensions in
// order.
func (s *Scope) Extensions() []Extension {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Extension, len(s.extensions))
	copy(out, s.extensions)
	return out
}

// Dispose tears down the scope's extensions. Its connectors, which child
// scopes share, are left open.
func (s *Scope) Dispose() error {
	for _, ext := range s.Extensions() {
		if err := ext.Dispose(s); err != nil {
			return fmt.Errorf("scope: disposing extension %s: %w", ext.Name(), err)
		}
	}
	return nil
}

// DependencyEdges returns, for debug rendering, a deterministic
// (producer -> []dependent) view of the downstream graph.
func (s *Scope) DependencyEdges() map[Node][]Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Node][]Node, len(s.downstream))
	for k, v := range s.downstream {
		cp := make([]Node, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
