package dataflow

// KeyedListOutput names a keyed operator whose output a renderer can
// consume directly as per-item diffs, per spec.md §4.11's "optional
// keyed list output binding."
type KeyedListOutput struct {
	Source      VarId
	Description string
}

// Graph is the output of dataflow lowering: a DataflowGraph with a
// distinguished document variable and an optional keyed list output.
//
// Grounded on pumped-go/graph.go's adjacency-list ReactiveGraph shape,
// generalized from executor-node edges to operator-node edges.
type Graph struct {
	Operators       map[VarId]Operator
	SideEffects     []SideEffect
	DocumentVar     VarId
	KeyedListOutput *KeyedListOutput
	nextID          VarId
	nextInputID     InputId
}

// NewGraph constructs an empty graph.
func NewGraph() *Graph {
	return &Graph{Operators: make(map[VarId]Operator)}
}

// Add registers op in the graph under its own Output id and returns that
// id. It does not allocate ids: callers call g.Next() to obtain the id,
// build the operator with that id as its base.out, then Add it.
func (g *Graph) Add(op Operator) VarId {
	g.Operators[op.Output()] = op
	return op.Output()
}

// Next allocates a fresh VarId for a new operator node.
func (g *Graph) Next() VarId {
	g.nextID++
	return g.nextID
}

// NewInputID allocates a fresh InputId; inputs and operators share no id
// space, so this counts independently of Next.
func (g *Graph) NewInputID() InputId {
	id := g.nextInputID
	g.nextInputID++
	return id
}

// Literal is a helper constructing a Literal with a freshly allocated id.
func (g *Graph) Literal(v any) VarId {
	id := g.Next()
	return g.Add(Literal{base{id}, v})
}

// Map is a helper constructing a Map operator with a freshly allocated id.
func (g *Graph) Map(source VarId, f func(any) any) VarId {
	id := g.Next()
	return g.Add(Map{base{id}, source, f})
}

// HoldState is a helper constructing a HoldState operator with a freshly
// allocated id.
func (g *Graph) HoldState(initial any, events VarId, transform func(state, event any) any) VarId {
	id := g.Next()
	return g.Add(HoldState{base{id}, initial, events, transform})
}

// Input is a helper constructing an Input operator with a freshly
// allocated VarId and a caller-supplied InputId.
func (g *Graph) Input(inputID InputId, kind InputKind, path string) VarId {
	id := g.Next()
	return g.Add(Input{base{id}, inputID, kind, path})
}
