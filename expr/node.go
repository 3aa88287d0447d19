// Package expr implements the typed, memoized expression trees (C2) used by
// the NPA solver: non-linear expressions E0 and their linear differentials
// E1. Nodes live in an index-addressed arena rather than a shared-pointer
// DAG, per the "cyclic expression caches... should be replaced by an arena
// of nodes addressed by indices" design note in SPEC_FULL.md §9.
package expr

// Symbol names an equation variable, a function+context key, a
// basic-block+context key, or a differential hole — the namespaces are
// shared, exactly as described in SPEC_FULL.md §3.
type Symbol string

// NodeID addresses a node within an Arena or Linear arena. IDs are assigned
// from 0 in insertion order, so the zero value addresses the first node
// pushed.
type NodeID int

// kind enumerates the E0/E1 node variants. E0 uses Term..InfClos; E1 adds
// Add and Sub on top of the same vocabulary (Call carries a constant value
// instead of an argument sub-expression in E1 — see Linear.Call).
type kind int

const (
	Term kind = iota
	Seq
	Call
	Cond
	Ndet
	Hole
	Concat
	InfClos
	Add
	Sub
)

func (k kind) String() string {
	switch k {
	case Term:
		return "Term"
	case Seq:
		return "Seq"
	case Call:
		return "Call"
	case Cond:
		return "Cond"
	case Ndet:
		return "Ndet"
	case Hole:
		return "Hole"
	case Concat:
		return "Concat"
	case InfClos:
		return "InfClos"
	case Add:
		return "Add"
	case Sub:
		return "Sub"
	default:
		return "?"
	}
}
