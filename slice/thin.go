package slice

import (
	"github.com/viant/npaflow/config"
	"github.com/viant/npaflow/ir"
	"github.com/viant/npaflow/pdg"
)

// isFieldAccess reports whether n's instruction dereferences a base pointer
// (load/store/getelementptr), matching ThinSlicingUtils::isLoadNode /
// isStoreNode / isGEPNode collapsed into one predicate since base-pointer
// exclusion applies identically to all three.
func isFieldAccess(g *pdg.Graph, n pdg.NodeID) bool {
	node := g.Node(n)
	if node.Kind != pdg.NodeInstruction || node.Instruction == nil {
		return false
	}
	switch node.Instruction.Kind() {
	case ir.KindLoad, ir.KindStore, ir.KindGetElementPtr:
		return true
	default:
		return false
	}
}

// isValueFlowEdge reports whether e carries the value a field access reads
// or writes, as opposed to the base pointer used to reach it — the
// distinction ThinSlicing.h's isValueFlowEdge draws. An EdgeData edge into a
// field-access node is value flow unless marked BasePointer at construction
// (package pdg tags the pointer operand of load/store/GEP this way).
func isValueFlowEdge(e pdg.Edge) bool {
	if e.Kind == pdg.EdgeControl {
		return false
	}
	if e.Kind == pdg.EdgeData && e.BasePointer {
		return false
	}
	return true
}

// basePointerEdges returns the excluded base-pointer incoming edges of a
// field-access node, used by ExpandForAliasing to find what a thin slice
// hides.
func basePointerEdges(g *pdg.Graph, n pdg.NodeID) []pdg.Edge {
	var out []pdg.Edge
	for _, e := range g.In(n) {
		if e.Kind == pdg.EdgeData && e.BasePointer {
			out = append(out, e)
		}
	}
	return out
}

// thinState is one step of context-sensitive thin-slice traversal: the
// current node plus the stack of call-site handles entered via an
// EdgeParameterOut hop, mirroring the Dyck-balance CFL-reachability variant
// traverseBackwardContextSensitive approximates with an explicit call stack.
type thinState struct {
	node  pdg.NodeID
	stack []ir.Handle
}

func cloneStack(s []ir.Handle) []ir.Handle {
	out := make([]ir.Handle, len(s))
	copy(out, s)
	return out
}

// ThinBackward computes the thin backward slice of seeds: value flow only,
// excluding control dependencies entirely and base-pointer dependencies for
// field accesses (EECS-2006-184). When opts.ContextSensitive is set,
// traversal additionally requires call/return sites to balance, using the
// call-site handle recorded on each actual-in/actual-out pdg.Node.
func ThinBackward(g *pdg.Graph, opts config.Slicing, seeds ...pdg.NodeID) (NodeSet, Diagnostics) {
	var diag Diagnostics
	result := newSet(seeds...)

	if !opts.ContextSensitive {
		queue := append([]pdg.NodeID(nil), seeds...)
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			for _, e := range g.In(n) {
				if !isValueFlowEdge(e) {
					if e.Kind == pdg.EdgeControl {
						diag.ControlDepsExcluded++
					} else {
						diag.BasePtrDepsExcluded++
					}
					continue
				}
				if result.add(e.From) {
					queue = append(queue, e.From)
				}
			}
		}
		diag.SliceSize = len(result)
		if trad, _ := Backward(g, config.Slicing{}, seeds...); true {
			diag.TraditionalSliceSize = len(trad)
		}
		return result, diag
	}

	visited := map[pdg.NodeID]map[string]bool{}
	markVisited := func(n pdg.NodeID, stack []ir.Handle) bool {
		key := stackKey(stack)
		set := visited[n]
		if set == nil {
			set = map[string]bool{}
			visited[n] = set
		}
		if set[key] {
			return false
		}
		set[key] = true
		return true
	}

	var queue []thinState
	for _, s := range seeds {
		queue = append(queue, thinState{node: s})
		markVisited(s, nil)
	}

	states := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		states++
		if opts.MaxStates > 0 && states > opts.MaxStates {
			diag.StateLimitHit = true
			diag.CapsHit = append(diag.CapsHit, "max-states")
			break
		}

		for _, e := range g.In(cur.node) {
			if !isValueFlowEdge(e) {
				if e.Kind == pdg.EdgeControl {
					diag.ControlDepsExcluded++
				} else {
					diag.BasePtrDepsExcluded++
				}
				continue
			}

			nextStack := cur.stack
			switch e.Kind {
			case pdg.EdgeParameterOut:
				callSite := g.Node(e.To).Instruction // actual-out node
				if opts.MaxStackDepth > 0 && len(cur.stack) >= opts.MaxStackDepth {
					if !diag.StackDepthLimitHit {
						diag.CapsHit = append(diag.CapsHit, "max-stack-depth")
					}
					diag.StackDepthLimitHit = true
					continue
				}
				if callSite != nil {
					nextStack = append(cloneStack(cur.stack), callSite.Handle())
				}
			case pdg.EdgeParameterIn:
				callSite := g.Node(e.From).Instruction // actual-in node
				if len(cur.stack) > 0 {
					top := cur.stack[len(cur.stack)-1]
					if callSite == nil || top != callSite.Handle() {
						continue // unbalanced call/return, skip this path
					}
					nextStack = cloneStack(cur.stack[:len(cur.stack)-1])
				}
			}

			if len(nextStack) > diag.MaxStackDepthReached {
				diag.MaxStackDepthReached = len(nextStack)
			}
			result.add(e.From)
			if markVisited(e.From, nextStack) {
				queue = append(queue, thinState{node: e.From, stack: nextStack})
			}
		}
	}

	diag.SliceSize = len(result)
	if trad, _ := Backward(g, config.Slicing{}, seeds...); true {
		diag.TraditionalSliceSize = len(trad)
	}
	return result, diag
}

func stackKey(stack []ir.Handle) string {
	// Cheap, allocation-light key: handles are uint64s, so a fixed-width
	// decimal join is unambiguous and fast enough for slice-sized stacks.
	if len(stack) == 0 {
		return ""
	}
	b := make([]byte, 0, len(stack)*12)
	for i, h := range stack {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendUint(b, uint64(h))
	}
	return string(b)
}

func appendUint(b []byte, v uint64) []byte {
	if v == 0 {
		return append(b, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(b, tmp[i:]...)
}

// ExpandForAliasing finds, for every field-access node in slice, the
// base-pointer nodes its thin slice hid, and returns each base pointer's
// own thin backward slice — the hierarchical expansion ThinSlicing.h's
// expandForAliasing uses to let a caller explain why two field accesses
// may alias, without paying the cost of tracking base pointers by default.
func ExpandForAliasing(g *pdg.Graph, slice NodeSet, opts config.Slicing) map[pdg.NodeID]NodeSet {
	out := map[pdg.NodeID]NodeSet{}
	for n := range slice {
		if !isFieldAccess(g, n) {
			continue
		}
		for _, e := range basePointerEdges(g, n) {
			if _, done := out[e.From]; done {
				continue
			}
			baseSlice, _ := ThinBackward(g, opts, e.From)
			out[e.From] = baseSlice
		}
	}
	return out
}
