package taint

import "github.com/viant/npaflow/ir"

// FactKind discriminates a Fact's shape, matching spec.md §4.5.4's three
// fact shapes: the tautological zero-fact, a tainted SSA value, and tainted
// memory (pointer + alias class).
type FactKind int

const (
	FactZero FactKind = iota
	FactValue
	FactMemory
)

// Fact is one IFDS fact for the taint problem: comparable, so it can
// instantiate ifds.Problem[Fact] directly.
type Fact struct {
	Kind  FactKind
	Value ir.Handle // tainted SSA value, when Kind == FactValue
	Ptr   ir.Handle // tainted memory's pointer identity, when Kind == FactMemory
}

func (f Fact) String() string {
	switch f.Kind {
	case FactValue:
		return "tainted-value"
	case FactMemory:
		return "tainted-memory"
	default:
		return "zero"
	}
}
