package npa

import (
	"github.com/viant/npaflow/domain"
	"github.com/viant/npaflow/expr"
)

// SolveNewton finds a fixed point by repeated linearization: each step
// differentiates every equation around the current binding, solves the
// resulting linear system for Δ, and combines Δ back into ν, per
// SPEC_FULL.md §4.3.2. For idempotent domains Newton converges in at most
// len(eqns)+1 outer iterations (property 4, §8).
func SolveNewton[V any, T any](dom domain.Domain[V, T], arena *expr.Arena[V, T], eqns []Equation, opts Options) (Result[V], error) {
	if err := checkDuplicateSymbols(eqns); err != nil {
		return Result[V]{}, err
	}
	nu := initialBinding(dom, eqns)

	it := 0
	for {
		if opts.MaxIterations > 0 && it >= opts.MaxIterations {
			return Result[V]{Values: nu, Iterations: it, Incomplete: true}, nil
		}

		rhsEqs := make([]rhs[V, T], 0, len(eqns))
		for _, e := range eqns {
			v, err := expr.Eval(arena, nu, e.Expr)
			if err != nil {
				return Result[V]{}, &EquationError{Sym: e.Sym, Err: err}
			}
			lin, dRoot, err := expr.Differentiate(arena, nu, e.Expr)
			if err != nil {
				return Result[V]{}, &EquationError{Sym: e.Sym, Err: err}
			}
			base := v
			if !dom.Idempotent() {
				base = dom.Subtract(v, nu[e.Sym])
			}
			root := lin.Add(lin.Term(base), dRoot)
			rhsEqs = append(rhsEqs, rhs[V, T]{sym: e.Sym, lin: lin, root: root})
		}

		var delta map[expr.Symbol]V
		var err error
		if opts.LinearStrategy == Naive {
			delta, err = solveLinearNaive(dom, rhsEqs)
		} else {
			delta, err = solveLinearWorklist(dom, rhsEqs)
		}
		if err != nil {
			return Result[V]{}, err
		}

		next := make(map[expr.Symbol]V, len(eqns))
		for _, e := range eqns {
			if dom.Idempotent() {
				next[e.Sym] = delta[e.Sym]
			} else {
				next[e.Sym] = dom.Combine(nu[e.Sym], delta[e.Sym])
			}
		}

		it++
		opts.logf("npa: newton iteration %d", it)
		if equalBindings(dom, nu, next) {
			return Result[V]{Values: next, Iterations: it}, nil
		}
		nu = next
	}
}
