package taint

import "github.com/viant/npaflow/ir"

// Oracle resolves the set of pointer identities that may alias ptr, used by
// the taint client's load/store flow functions to decide which memory facts
// a store creates and which a load observes. Spec.md §4.5.4: "uses an
// external alias oracle to compute the set of may-aliased memory facts for
// load/store propagation" — the core never implements points-to analysis
// itself, matching §1's "alias analysis... remain external collaborators."
type Oracle interface {
	Aliases(ptr ir.Handle) []ir.Handle
}

// IdentityOracle is the trivial Oracle where every pointer only aliases
// itself — usable when no real alias analysis is wired, or in tests.
type IdentityOracle struct{}

func (IdentityOracle) Aliases(ptr ir.Handle) []ir.Handle { return []ir.Handle{ptr} }
