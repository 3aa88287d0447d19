// Package pdg builds the Program Dependence Graph: typed nodes (one per
// instruction plus formal/actual parameter-passing and global nodes) and
// typed edges (data, control, parameter-passing), grounded on
// original_source/include/IR/PDG/{PDGNode,PDGEdge,ThinSlicing}.h.
package pdg

import (
	"fmt"

	"github.com/viant/npaflow/ir"
)

// NodeKind classifies a pdg.Node.
type NodeKind int

const (
	NodeInstruction NodeKind = iota
	NodeFormalIn
	NodeFormalOut
	NodeActualIn
	NodeActualOut
	NodeGlobal
	NodeFunctionEntry
)

func (k NodeKind) String() string {
	switch k {
	case NodeInstruction:
		return "instruction"
	case NodeFormalIn:
		return "formal-in"
	case NodeFormalOut:
		return "formal-out"
	case NodeActualIn:
		return "actual-in"
	case NodeActualOut:
		return "actual-out"
	case NodeGlobal:
		return "global"
	case NodeFunctionEntry:
		return "function-entry"
	default:
		return "unknown"
	}
}

// EdgeKind classifies a pdg.Edge into the three dependency partitions
// ThinSlicing.h's isControlDependencyEdge/isDataDependencyEdge distinguish.
type EdgeKind int

const (
	EdgeData EdgeKind = iota
	EdgeControl
	EdgeParameterIn
	EdgeParameterOut
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeData:
		return "data"
	case EdgeControl:
		return "control"
	case EdgeParameterIn:
		return "parameter-in"
	case EdgeParameterOut:
		return "parameter-out"
	default:
		return "unknown"
	}
}

// IsControl reports whether k is the control-dependency partition,
// excluded entirely by thin slicing.
func (k EdgeKind) IsControl() bool { return k == EdgeControl }

// IsData reports whether k carries value flow (data or parameter edges).
func (k EdgeKind) IsData() bool { return k == EdgeData || k == EdgeParameterIn || k == EdgeParameterOut }

// NodeID indexes a Node within one Graph.
type NodeID int

// Node is one PDG vertex.
type Node struct {
	Kind        NodeKind
	Function    ir.Function
	Instruction ir.Instruction // set for NodeInstruction/Actual*/Formal*
	Name        string         // set for NodeGlobal, or a formal/actual parameter label
}

// Edge is one directed, typed PDG edge.
type Edge struct {
	From, To NodeID
	Kind     EdgeKind
	// BasePointer marks an EdgeData edge from a load/store/GEP node to the
	// pointer operand it dereferences, as opposed to the value operand —
	// the distinction thin slicing (package slice) excludes.
	BasePointer bool
}

// Graph is a built PDG, owned by its caller: Build returns a new *Graph
// every call rather than mutating process-global state, so rebuilding for a
// different module is just calling Build again and discarding the old
// *Graph.
type Graph struct {
	nodes []Node
	out   [][]Edge
	in    [][]Edge

	instNode map[ir.Handle]NodeID
}

func (g *Graph) Nodes() []Node         { return g.nodes }
func (g *Graph) Node(id NodeID) Node   { return g.nodes[id] }
func (g *Graph) Out(id NodeID) []Edge  { return g.out[id] }
func (g *Graph) In(id NodeID) []Edge   { return g.in[id] }
func (g *Graph) NodeCount() int        { return len(g.nodes) }

// InstructionNode returns the NodeInstruction node for an instruction
// handle, if one was built.
func (g *Graph) InstructionNode(h ir.Handle) (NodeID, bool) {
	id, ok := g.instNode[h]
	return id, ok
}

func (g *Graph) addNode(n Node) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return id
}

func (g *Graph) addEdge(e Edge) {
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
}

// ErrMalformed reports a structurally invalid module that could not be
// turned into a PDG. Build itself never returns it: an operand with no
// producing instruction gets a NodeGlobal node instead.
type ErrMalformed struct{ Reason string }

func (e *ErrMalformed) Error() string { return fmt.Sprintf("pdg: malformed: %s", e.Reason) }
