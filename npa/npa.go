// Package npa implements the Newtonian Program Analysis solver (C3): Kleene
// and Newton iterators over equation systems in any domain.Domain-compliant
// semiring, grounded on original_source/include/Dataflow/NPA/NPA.h.
package npa

import (
	"fmt"

	"github.com/viant/npaflow/domain"
	"github.com/viant/npaflow/expr"
)

// LinearStrategy selects how a Newton step's linear subsystem is solved.
type LinearStrategy int

const (
	// Worklist solves the linear system via a dependency-driven queue
	// (default; see solveLinearWorklist).
	Worklist LinearStrategy = iota
	// Naive repeatedly substitutes Δ <- L(Δ) + b until convergence.
	Naive
)

// Equation is one (Symbol, E0<D>) pair of the equation system; Sym must be
// unique within a system.
type Equation struct {
	Sym  expr.Symbol
	Expr expr.NodeID
}

// Options configures a solve.
type Options struct {
	// MaxIterations caps the outer Kleene/Newton loop; <=0 means unbounded.
	MaxIterations int
	// LinearStrategy selects the Newton inner-loop solver.
	LinearStrategy LinearStrategy
	// Verbose requests per-iteration diagnostics via Logf.
	Verbose bool
	// Logf receives verbose diagnostics when Verbose is true; defaults to
	// a no-op when nil.
	Logf func(format string, args ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.Verbose && o.Logf != nil {
		o.Logf(format, args...)
	}
}

// Result is the solved binding for each equation symbol, plus the iteration
// count and the iteration-budget flag described in SPEC_FULL.md §7.
type Result[V any] struct {
	Values     map[expr.Symbol]V
	Iterations int
	// Incomplete is set when MaxIterations was reached before convergence.
	Incomplete bool
}

// EquationError reports a domain failure while evaluating a specific
// equation during a solve step (SPEC_FULL.md §7 "Malformed-equation" /
// "Domain-error").
type EquationError struct {
	Sym expr.Symbol
	Err error
}

func (e *EquationError) Error() string {
	return fmt.Sprintf("npa: equation %q failed: %v", e.Sym, e.Err)
}

func (e *EquationError) Unwrap() error { return e.Err }

func checkDuplicateSymbols(eqns []Equation) error {
	seen := make(map[expr.Symbol]bool, len(eqns))
	for _, e := range eqns {
		if seen[e.Sym] {
			return fmt.Errorf("npa: malformed equation system: duplicate symbol %q", e.Sym)
		}
		seen[e.Sym] = true
	}
	return nil
}

func initialBinding[V any, T any](dom domain.Domain[V, T], eqns []Equation) map[expr.Symbol]V {
	nu := make(map[expr.Symbol]V, len(eqns))
	for _, e := range eqns {
		nu[e.Sym] = dom.Zero()
	}
	return nu
}

func equalBindings[V any, T any](dom domain.Domain[V, T], a, b map[expr.Symbol]V) bool {
	for sym, av := range a {
		if !dom.Equal(av, b[sym]) {
			return false
		}
	}
	return true
}
