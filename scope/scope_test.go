package scope

import "testing"

type fakeNode struct {
	name string
}

func (f *fakeNode) ConstructInfo() ConstructInfo {
	return ConstructInfo{Type: "fake", Description: f.name}
}

func TestPersistenceIdDeterministic(t *testing.T) {
	span := Span{File: "main.boon", Line: 10, Column: 2}
	id1 := NewPersistenceId(span, RootIdentity())
	id2 := NewPersistenceId(span, RootIdentity())
	if id1 != id2 {
		t.Fatalf("expected deterministic ids, got %s and %s", id1, id2)
	}
}

func TestPersistenceIdDiffersByScope(t *testing.T) {
	span := Span{File: "main.boon", Line: 10, Column: 2}
	root := NewPersistenceId(span, RootIdentity())
	child := NewPersistenceId(span, RootIdentity().WithChild(0, root))
	if root == child {
		t.Fatal("expected distinct ids for distinct scopes")
	}
}

func TestScopeInvalidateIterativeWalk(t *testing.T) {
	s := NewScope()
	a := &fakeNode{name: "a"}
	b := &fakeNode{name: "b"}
	c := &fakeNode{name: "c"}

	s.RegisterDependency(b, a, ModeReactive)
	s.RegisterDependency(c, b, ModeReactive)

	dependents := s.Invalidate(a)
	if len(dependents) != 2 {
		t.Fatalf("len(dependents) = %d, want 2", len(dependents))
	}
}

func TestScopeStaticDependencyNotInvalidated(t *testing.T) {
	s := NewScope()
	a := &fakeNode{name: "a"}
	b := &fakeNode{name: "b"}

	s.RegisterDependency(b, a, ModeStatic)

	dependents := s.Invalidate(a)
	if len(dependents) != 0 {
		t.Fatalf("len(dependents) = %d, want 0 for a static dependency", len(dependents))
	}
}

func TestReferenceConnectorRegisterThenQuery(t *testing.T) {
	c := NewReferenceConnector()
	span := Span{File: "a.boon", Line: 1, Column: 1}

	c.Register(span, "actor-handle")

	got := <-c.Query(span)
	if got != "actor-handle" {
		t.Fatalf("got %v, want actor-handle", got)
	}
}

func TestReferenceConnectorQueryThenRegister(t *testing.T) {
	c := NewReferenceConnector()
	span := Span{File: "a.boon", Line: 1, Column: 1}

	ch := c.Query(span)
	c.Register(span, "actor-handle")

	got := <-ch
	if got != "actor-handle" {
		t.Fatalf("got %v, want actor-handle", got)
	}
}

func TestPassThroughConnectorReusesEntry(t *testing.T) {
	c := NewPassThroughConnector()
	id := NewPersistenceId(Span{File: "a.boon", Line: 1}, RootIdentity())

	calls := 0
	makeFn := func() (any, any) {
		calls++
		return "sender", "actor"
	}

	e1, existed1 := c.GetOrCreate(id, RootIdentity(), makeFn)
	e2, existed2 := c.GetOrCreate(id, RootIdentity(), makeFn)

	if existed1 {
		t.Fatal("expected first call to report not-existing")
	}
	if !existed2 {
		t.Fatal("expected second call to report existing")
	}
	if e1 != e2 {
		t.Fatal("expected same entry returned across calls")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
