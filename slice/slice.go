// Package slice implements PDG-based program slicing: classical
// forward/backward slices, chopping, and Sridharan/Fink/Bodik thin slicing,
// grounded on original_source/include/IR/PDG/ThinSlicing.h.
package slice

import (
	"github.com/viant/npaflow/config"
	"github.com/viant/npaflow/pdg"
)

// Diagnostics reports what a slice computation actually did, mirroring
// ThinSliceDiagnostics plus the generic cap-reporting fields every
// operation in this package fills in (max depth reached, which caps were
// hit).
type Diagnostics struct {
	SliceSize            int
	TraditionalSliceSize int
	BasePtrDepsExcluded  int
	ControlDepsExcluded  int
	MaxDepthReached      int
	MaxStackDepthReached int
	CapsHit              []string
	StateLimitHit        bool
	StackDepthLimitHit   bool
}

// NodeSet is an unordered set of pdg.NodeID, as returned by every function
// in this package.
type NodeSet map[pdg.NodeID]bool

func newSet(seeds ...pdg.NodeID) NodeSet {
	s := make(NodeSet, len(seeds))
	for _, n := range seeds {
		s[n] = true
	}
	return s
}

func (s NodeSet) add(n pdg.NodeID) bool {
	if s[n] {
		return false
	}
	s[n] = true
	return true
}

// edgeAllowed reports whether e belongs to opts.EdgeTypes, the allowed
// edge-kind set a traversal restricts itself to. An empty EdgeTypes allows
// every edge kind.
func edgeAllowed(e pdg.Edge, opts config.Slicing) bool {
	if len(opts.EdgeTypes) == 0 {
		return true
	}
	for _, t := range opts.EdgeTypes {
		if t == e.Kind.String() {
			return true
		}
	}
	return false
}

// traverse is the shared BFS behind Forward and Backward: it walks edges
// via neighbors/next over the allowed edge-kind set, stopping a branch at
// opts.MaxDepth when set and reporting the deepest distance actually
// reached.
func traverse(opts config.Slicing, seeds []pdg.NodeID, neighbors func(pdg.NodeID) []pdg.Edge, next func(pdg.Edge) pdg.NodeID) (NodeSet, Diagnostics) {
	type item struct {
		id    pdg.NodeID
		depth int
	}
	result := newSet(seeds...)
	queue := make([]item, 0, len(seeds))
	for _, s := range seeds {
		queue = append(queue, item{id: s})
	}

	var maxDepth int
	var depthCapped bool
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth > maxDepth {
			maxDepth = cur.depth
		}
		if opts.MaxDepth > 0 && cur.depth >= opts.MaxDepth {
			depthCapped = true
			continue
		}
		for _, e := range neighbors(cur.id) {
			if !edgeAllowed(e, opts) {
				continue
			}
			nxt := next(e)
			if result.add(nxt) {
				queue = append(queue, item{id: nxt, depth: cur.depth + 1})
			}
		}
	}

	diag := Diagnostics{SliceSize: len(result), TraditionalSliceSize: len(result), MaxDepthReached: maxDepth}
	if depthCapped {
		diag.CapsHit = append(diag.CapsHit, "max-depth")
	}
	return result, diag
}

// Backward computes the backward slice of seeds: every node that reaches a
// seed over opts.EdgeTypes (every edge kind when unset), to opts.MaxDepth.
func Backward(g *pdg.Graph, opts config.Slicing, seeds ...pdg.NodeID) (NodeSet, Diagnostics) {
	return traverse(opts, seeds, g.In, func(e pdg.Edge) pdg.NodeID { return e.From })
}

// Forward computes the forward slice of seeds: every node reachable from a
// seed over opts.EdgeTypes (every edge kind when unset), to opts.MaxDepth.
func Forward(g *pdg.Graph, opts config.Slicing, seeds ...pdg.NodeID) (NodeSet, Diagnostics) {
	return traverse(opts, seeds, g.Out, func(e pdg.Edge) pdg.NodeID { return e.To })
}

// Chop computes the chop between sources and sinks: every node on some path
// from a source to a sink. Uncapped (opts.MaxDepth, opts.MaxPaths and
// opts.MaxPathLength all zero) this is forward(sources) ∩ backward(sinks);
// once any of those caps is set, Chop instead enumerates paths by bounded
// DFS, stopping a branch at the first sink it reaches and reporting which
// caps were actually hit.
func Chop(g *pdg.Graph, opts config.Slicing, sources, sinks []pdg.NodeID) (NodeSet, Diagnostics) {
	if opts.MaxDepth == 0 && opts.MaxPaths == 0 && opts.MaxPathLength == 0 {
		fwd, _ := Forward(g, opts, sources...)
		bwd, _ := Backward(g, opts, sinks...)
		out := NodeSet{}
		for n := range fwd {
			if bwd[n] {
				out[n] = true
			}
		}
		return out, Diagnostics{SliceSize: len(out), TraditionalSliceSize: len(out)}
	}
	return chopBoundedDFS(g, opts, sources, sinks)
}

// chopBoundedDFS enumerates simple source-to-sink paths by DFS, bounded by
// opts.MaxPaths (total paths enumerated), opts.MaxPathLength and
// opts.MaxDepth (edges per path — both checked, whichever is smaller and
// set wins), recording the union of nodes visited on every kept path.
func chopBoundedDFS(g *pdg.Graph, opts config.Slicing, sources, sinks []pdg.NodeID) (NodeSet, Diagnostics) {
	sinkSet := newSet(sinks...)
	result := NodeSet{}
	capsHit := map[string]bool{}
	var pathCount, maxDepthSeen int

	pathLimit := opts.MaxPathLength
	if opts.MaxDepth > 0 && (pathLimit == 0 || opts.MaxDepth < pathLimit) {
		pathLimit = opts.MaxDepth
	}

	onPath := map[pdg.NodeID]bool{}
	var visit func(n pdg.NodeID, path []pdg.NodeID) bool
	visit = func(n pdg.NodeID, path []pdg.NodeID) bool {
		if sinkSet[n] {
			pathCount++
			for _, pn := range path {
				result.add(pn)
			}
			result.add(n)
			if len(path) > maxDepthSeen {
				maxDepthSeen = len(path)
			}
			if opts.MaxPaths > 0 && pathCount >= opts.MaxPaths {
				capsHit["max-paths"] = true
				return false
			}
			return true
		}
		if pathLimit > 0 && len(path) >= pathLimit {
			if opts.MaxPathLength > 0 && len(path) >= opts.MaxPathLength {
				capsHit["max-path-length"] = true
			}
			if opts.MaxDepth > 0 && len(path) >= opts.MaxDepth {
				capsHit["max-depth"] = true
			}
			return true
		}

		onPath[n] = true
		nextPath := make([]pdg.NodeID, len(path)+1)
		copy(nextPath, path)
		nextPath[len(path)] = n

		keepGoing := true
		for _, e := range g.Out(n) {
			if !edgeAllowed(e, opts) || onPath[e.To] {
				continue
			}
			if !visit(e.To, nextPath) {
				keepGoing = false
				break
			}
		}
		delete(onPath, n)
		return keepGoing
	}

	for _, s := range sources {
		if !visit(s, nil) {
			break
		}
	}

	fwd, _ := Forward(g, config.Slicing{}, sources...)
	bwd, _ := Backward(g, config.Slicing{}, sinks...)
	var traditional int
	for n := range fwd {
		if bwd[n] {
			traditional++
		}
	}

	diag := Diagnostics{
		SliceSize:            len(result),
		TraditionalSliceSize: traditional,
		MaxDepthReached:      maxDepthSeen,
	}
	for name := range capsHit {
		diag.CapsHit = append(diag.CapsHit, name)
	}
	return result, diag
}
