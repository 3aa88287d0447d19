package report

import (
	"fmt"
	"sort"

	"github.com/viant/npaflow/pdg"
	"github.com/viant/npaflow/slice"
)

// SliceNode is one node of a rendered slice/chop report: enough to locate
// the node in source without requiring the reader to hold a *pdg.Graph.
type SliceNode struct {
	ID       int    `yaml:"id"`
	Kind     string `yaml:"kind"`
	Function string `yaml:"function,omitempty"`
	Name     string `yaml:"name,omitempty"`
}

// Slice is a slice/chop/thin-slice report: a node set plus the
// slice.Diagnostics recorded while computing it (spec.md §6
// "slice/chop reports are a node set plus slice.Diagnostics").
type Slice struct {
	Header      Header            `yaml:"header"`
	Nodes       []SliceNode       `yaml:"nodes"`
	Diagnostics slice.Diagnostics `yaml:"diagnostics"`
}

// ToSlice renders a slice.NodeSet computed over g into a Slice report,
// sorted by node ID for deterministic output.
func ToSlice(header Header, g *pdg.Graph, nodes slice.NodeSet, diag slice.Diagnostics) Slice {
	ids := make([]int, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	out := make([]SliceNode, 0, len(ids))
	for _, id := range ids {
		n := g.Node(pdg.NodeID(id))
		name := n.Name
		if name == "" && n.Function != nil && n.Instruction != nil {
			name = fmt.Sprintf("%s#%d", n.Function.Name(), n.Instruction.Handle())
		}
		out = append(out, SliceNode{
			ID:       id,
			Kind:     n.Kind.String(),
			Function: functionName(n),
			Name:     name,
		})
	}
	return Slice{Header: header, Nodes: out, Diagnostics: diag}
}

func functionName(n pdg.Node) string {
	if n.Function == nil {
		return ""
	}
	return n.Function.Name()
}
