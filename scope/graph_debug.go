package scope

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/m1gwings/treedrawer/tree"
)

// GraphDebugExtension renders the ValueActor/List dependency graph as a
// horizontal tree on resolution error, for diagnostics. Directly adapted
// from extensions/graph_debug.go's GraphDebugExtension, generalized from
// AnyExecutor to this package's Node interface.
type GraphDebugExtension struct {
	BaseExtension

	resolved map[Node]bool
	failed   map[Node]error
	logger   *slog.Logger
}

// NewGraphDebugExtension creates a new graph debug extension logging
// through logHandler (use HumanHandler for formatted output, or
// NewSilentHandler() for tests).
func NewGraphDebugExtension(logHandler slog.Handler) *GraphDebugExtension {
	return &GraphDebugExtension{
		BaseExtension: BaseExtension{NameValue: "graph-debug"},
		resolved:      make(map[Node]bool),
		failed:        make(map[Node]error),
		logger:        slog.New(logHandler),
	}
}

// OnDependencyRegistered records producer as seen without marking it
// resolved. Rendering walks the scope's own dependency edges, so this
// entry does not change what is drawn.
func (e *GraphDebugExtension) OnDependencyRegistered(consumer, producer Node, mode Mode) {
	if _, ok := e.resolved[producer]; !ok {
		e.resolved[producer] = false
	}
}

// MarkResolved records that node resolved successfully; call this from
// the runtime's construction path alongside RegisterDependency.
func (e *GraphDebugExtension) MarkResolved(node Node) {
	e.resolved[node] = true
	delete(e.failed, node)
}

// MarkFailed records that node failed to resolve with err, and logs the
// rendered dependency graph at Error level.
func (e *GraphDebugExtension) MarkFailed(s *Scope, node Node, err error) {
	e.failed[node] = err
	graphOutput := e.formatDependencyGraph(s, node, err)
	e.logger.Error("dependency resolution error",
		slog.String("node", nodeName(node)),
		slog.String("error", err.Error()),
		slog.String("dependency_graph", graphOutput),
	)
}

func (e *GraphDebugExtension) tryFormatHorizontalTree(graph map[Node][]Node, failedNode Node) string {
	parents := make(map[Node][]Node)
	allNodes := make(map[Node]bool)

	for parent, children := range graph {
		allNodes[parent] = true
		for _, child := range children {
			allNodes[child] = true
			parents[child] = append(parents[child], parent)
		}
	}

	var roots []Node
	for node := range allNodes {
		if len(parents[node]) == 0 {
			roots = append(roots, node)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return nodeName(roots[i]) < nodeName(roots[j]) })

	if len(roots) == 0 {
		return ""
	}

	var rootNode *tree.Tree
	if len(roots) == 1 {
		rootNode = e.buildTree(roots[0], graph, failedNode, make(map[Node]bool))
	} else {
		rootNode = tree.NewTree(tree.NodeString("Dependencies"))
		for _, root := range roots {
			if childTree := e.buildTree(root, graph, failedNode, make(map[Node]bool)); childTree != nil {
				addTreeAsChild(rootNode, childTree)
			}
		}
	}
	if rootNode == nil {
		return ""
	}
	return rootNode.String()
}

func (e *GraphDebugExtension) buildTree(node Node, graph map[Node][]Node, failedNode Node, visited map[Node]bool) *tree.Tree {
	if visited[node] {
		return nil
	}
	visited[node] = true

	label := nodeName(node)
	if node == failedNode {
		label += " FAILED"
	} else if e.resolved[node] {
		label += " ok"
	}

	t := tree.NewTree(tree.NodeString(label))
	children := append([]Node(nil), graph[node]...)
	sort.Slice(children, func(i, j int) bool { return nodeName(children[i]) < nodeName(children[j]) })
	for _, child := range children {
		if childTree := e.buildTree(child, graph, failedNode, visited); childTree != nil {
			addTreeAsChild(t, childTree)
		}
	}
	return t
}

func addTreeAsChild(parent *tree.Tree, child *tree.Tree) {
	newChild := parent.AddChild(child.Val())
	for _, grandchild := range child.Children() {
		addTreeAsChild(newChild, grandchild)
	}
}

func (e *GraphDebugExtension) formatDependencyGraph(s *Scope, failedNode Node, failedErr error) string {
	var sb strings.Builder
	graph := s.DependencyEdges()

	if len(graph) == 0 {
		sb.WriteString("\n(empty - no reactive dependencies tracked)")
		return sb.String()
	}

	if tree := e.tryFormatHorizontalTree(graph, failedNode); tree != "" {
		sb.WriteString("\n")
		sb.WriteString(tree)
		sb.WriteString("\n")
	}

	if failedErr != nil {
		sb.WriteString("\nError Details:\n")
		sb.WriteString(fmt.Sprintf("  Node: %s\n", nodeName(failedNode)))
		sb.WriteString(fmt.Sprintf("  Error: %v\n", failedErr))
	}

	return sb.String()
}

func nodeName(n Node) string {
	if n == nil {
		return "<nil>"
	}
	info := n.ConstructInfo()
	if info.Description != "" {
		return info.Description
	}
	if info.Type != "" {
		return fmt.Sprintf("%s(%s)", info.Type, info.ID.String())
	}
	return fmt.Sprintf("Node_%p", n)
}

// DumpDependencyGraph renders the scope's current dependency graph as a
// horizontal tree, with no failed-node highlighting, for general
// diagnostics (not just on error).
func DumpDependencyGraph(s *Scope) string {
	ext := NewGraphDebugExtension(NewSilentHandler())
	for node := range s.DependencyEdges() {
		ext.resolved[node] = true
	}
	out := ext.tryFormatHorizontalTree(s.DependencyEdges(), nil)
	if out == "" {
		return "(empty - no reactive dependencies tracked)"
	}
	return out
}

// SilentHandler discards all log output; useful for tests, directly
// adapted from extensions/graph_debug.go's SilentHandler.
type SilentHandler struct{}

func NewSilentHandler() *SilentHandler { return &SilentHandler{} }

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool { return false }
func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error { return nil }
func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler              { return h }
func (h *SilentHandler) WithGroup(name string) slog.Handler                   { return h }

// HumanHandler formats logs for human readability, with dedicated
// rendering for dependency-graph error records. Directly adapted from
// extensions/graph_debug.go's HumanHandler.
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{writer: writer, level: level}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool { return level >= h.level }

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Message == "dependency resolution error" {
		return h.handleDependencyError(record)
	}
	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) handleDependencyError(record slog.Record) error {
	var node, errorMsg, graph string
	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "node":
			node = a.Value.String()
		case "error":
			errorMsg = a.Value.String()
		case "dependency_graph":
			graph = a.Value.String()
		}
		return true
	})
	_, err := fmt.Fprintf(h.writer, "\n%s\n[GraphDebug] Dependency Resolution Error\n%s\nNode: %s\nError: %s\nDependency Graph:%s\n%s\n\n",
		strings.Repeat("=", 70), strings.Repeat("=", 70), node, errorMsg, graph, strings.Repeat("=", 70))
	return err
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *HumanHandler) WithGroup(name string) slog.Handler       { return h }
