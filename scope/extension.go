package scope

// Extension provides hooks into the scope's resolution/update lifecycle.
// Directly adapted from pumped-go/extension.go's Extension interface,
// trimmed of the teacher's Flow-specific hooks (this runtime's
// instrumentation point is graph construction, not short-lived flows).
type Extension interface {
	Name() string
	Order() int
	Init(s *Scope) error
	// OnDependencyRegistered is called whenever RegisterDependency links a
	// consumer to a producer; used by instrumentation (e.g. the graph
	// debug extension) to keep an independent view of the graph.
	OnDependencyRegistered(consumer, producer Node, mode Mode)
	// OnInvalidate is called with the full fan-out set whenever
	// Invalidate is run for a node.
	OnInvalidate(node Node, dependents []Node)
	Dispose(s *Scope) error
}

// BaseExtension provides default no-op implementations, matching
// pumped-go/extension.go's BaseExtension convenience base.
type BaseExtension struct {
	NameValue string
}

func (e *BaseExtension) Name() string { return e.NameValue }
func (e *BaseExtension) Order() int   { return 100 }
func (e *BaseExtension) Init(s *Scope) error { return nil }
func (e *BaseExtension) OnDependencyRegistered(consumer, producer Node, mode Mode) {}
func (e *BaseExtension) OnInvalidate(node Node, dependents []Node)                {}
func (e *BaseExtension) Dispose(s *Scope) error { return nil }
