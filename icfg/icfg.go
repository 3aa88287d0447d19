// Package icfg builds the interprocedural control-flow graph substrate the
// C4 engine equations are indexed over: one IntraBlock node per basic
// block, plus FunEntry/FunReturn nodes marking call boundaries
// (SPEC_FULL.md §4.4 "ICFG").
package icfg

import (
	"errors"
	"fmt"

	"github.com/viant/npaflow/ir"
)

// NodeKind classifies an ICFG node.
type NodeKind int

const (
	IntraBlock NodeKind = iota
	FunEntry
	FunReturn
)

func (k NodeKind) String() string {
	switch k {
	case IntraBlock:
		return "intra-block"
	case FunEntry:
		return "fun-entry"
	case FunReturn:
		return "fun-return"
	default:
		return "unknown"
	}
}

// EdgeKind classifies an ICFG edge.
type EdgeKind int

const (
	IntraCF EdgeKind = iota
	CallCF
	RetCF
)

func (k EdgeKind) String() string {
	switch k {
	case IntraCF:
		return "intra-cf"
	case CallCF:
		return "call-cf"
	case RetCF:
		return "ret-cf"
	default:
		return "unknown"
	}
}

// NodeID indexes a Node within one Graph.
type NodeID int

// Node is one ICFG vertex: an IntraBlock wraps a basic block, FunEntry/
// FunReturn mark a call's push/pop boundary and carry the call site handle.
type Node struct {
	Kind     NodeKind
	Function ir.Function
	Block    ir.BasicBlock // set for IntraBlock
	CallSite ir.Instruction // set for FunEntry/FunReturn
}

// Edge is one directed ICFG edge. For CallCF/RetCF, CallSite identifies the
// instruction that induced the edge.
type Edge struct {
	From, To NodeID
	Kind     EdgeKind
	CallSite ir.Instruction
}

// ErrCrossFunctionEdge is returned when an IntraCF edge would connect nodes
// belonging to different functions — the builder's same-function invariant
// (SPEC_FULL.md §4.4), checked at insertion rather than asserted.
var ErrCrossFunctionEdge = errors.New("icfg: intra-function edge crosses function boundary")

// ErrMalformed reports a structurally invalid ICFG (missing entry block for
// a reachable function, etc).
type ErrMalformed struct {
	Reason string
}

func (e *ErrMalformed) Error() string { return fmt.Sprintf("icfg: malformed: %s", e.Reason) }

// Graph is a built ICFG: nodes plus outgoing/incoming adjacency.
type Graph struct {
	nodes []Node
	out   [][]Edge
	in    [][]Edge

	blockNode map[ir.Handle]NodeID
}

// Nodes returns every node, indexed by NodeID.
func (g *Graph) Nodes() []Node { return g.nodes }

// Node looks up a node by id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// Out returns id's outgoing edges.
func (g *Graph) Out(id NodeID) []Edge { return g.out[id] }

// In returns id's incoming edges.
func (g *Graph) In(id NodeID) []Edge { return g.in[id] }

// BlockNode returns the IntraBlock node for a basic block handle.
func (g *Graph) BlockNode(h ir.Handle) (NodeID, bool) {
	id, ok := g.blockNode[h]
	return id, ok
}

// Builder assembles a Graph incrementally, enforcing the same-function
// intra-edge invariant on every AddIntraEdge call.
type Builder struct {
	g *Graph
}

// NewBuilder returns a Builder for an empty Graph.
func NewBuilder() *Builder {
	return &Builder{g: &Graph{blockNode: map[ir.Handle]NodeID{}}}
}

// AddBlockNode inserts exactly one IntraBlock node for block in fn, or
// returns the existing one if already inserted.
func (b *Builder) AddBlockNode(fn ir.Function, block ir.BasicBlock) NodeID {
	if id, ok := b.g.blockNode[block.Handle()]; ok {
		return id
	}
	id := b.addNode(Node{Kind: IntraBlock, Function: fn, Block: block})
	b.g.blockNode[block.Handle()] = id
	return id
}

// AddCallBoundary inserts a FunEntry or FunReturn node for a call site.
func (b *Builder) AddCallBoundary(kind NodeKind, fn ir.Function, callSite ir.Instruction) NodeID {
	return b.addNode(Node{Kind: kind, Function: fn, CallSite: callSite})
}

func (b *Builder) addNode(n Node) NodeID {
	id := NodeID(len(b.g.nodes))
	b.g.nodes = append(b.g.nodes, n)
	b.g.out = append(b.g.out, nil)
	b.g.in = append(b.g.in, nil)
	return id
}

// AddIntraEdge adds an IntraCF edge, rejecting it with ErrCrossFunctionEdge
// if from and to belong to different functions.
func (b *Builder) AddIntraEdge(from, to NodeID) error {
	if b.g.nodes[from].Function != nil && b.g.nodes[to].Function != nil &&
		b.g.nodes[from].Function.Name() != b.g.nodes[to].Function.Name() {
		return ErrCrossFunctionEdge
	}
	b.addEdge(Edge{From: from, To: to, Kind: IntraCF})
	return nil
}

// AddCallEdge adds a CallCF edge from a call site to a callee's FunEntry.
func (b *Builder) AddCallEdge(from, to NodeID, callSite ir.Instruction) {
	b.addEdge(Edge{From: from, To: to, Kind: CallCF, CallSite: callSite})
}

// AddReturnEdge adds a RetCF edge from a callee's FunReturn back to the
// caller's post-call block.
func (b *Builder) AddReturnEdge(from, to NodeID, callSite ir.Instruction) {
	b.addEdge(Edge{From: from, To: to, Kind: RetCF, CallSite: callSite})
}

func (b *Builder) addEdge(e Edge) {
	b.g.out[e.From] = append(b.g.out[e.From], e)
	b.g.in[e.To] = append(b.g.in[e.To], e)
}

// Build finalizes and returns the assembled Graph.
func (b *Builder) Build() *Graph { return b.g }

// BuildFunction builds the intra-function portion of the ICFG for fn: one
// IntraBlock node per block plus IntraCF edges mirroring the block CFG. Call
// boundaries are added separately by the interprocedural engine, which owns
// call-graph discovery.
func BuildFunction(b *Builder, fn ir.Function) error {
	if fn.Entry() == nil {
		return &ErrMalformed{Reason: fmt.Sprintf("function %q has no entry block", fn.Name())}
	}
	for block := range fn.Blocks() {
		b.AddBlockNode(fn, block)
	}
	for block := range fn.Blocks() {
		from := b.AddBlockNode(fn, block)
		for succ := range block.Successors() {
			to := b.AddBlockNode(fn, succ)
			if err := b.AddIntraEdge(from, to); err != nil {
				return err
			}
		}
	}
	return nil
}
