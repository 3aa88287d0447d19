package npa

import (
	"github.com/viant/npaflow/domain"
	"github.com/viant/npaflow/expr"
)

// SolveKleene computes a least fixed point by repeated substitution:
// ν[X_i] starts at zero and ν'[X_i] <- eval(e_i; ν) until every symbol is
// stable under domain.Equal (SPEC_FULL.md §4.3.1).
func SolveKleene[V any, T any](dom domain.Domain[V, T], arena *expr.Arena[V, T], eqns []Equation, opts Options) (Result[V], error) {
	if err := checkDuplicateSymbols(eqns); err != nil {
		return Result[V]{}, err
	}
	nu := initialBinding(dom, eqns)

	it := 0
	for {
		if opts.MaxIterations > 0 && it >= opts.MaxIterations {
			return Result[V]{Values: nu, Iterations: it, Incomplete: true}, nil
		}
		next := make(map[expr.Symbol]V, len(eqns))
		for _, e := range eqns {
			v, err := expr.Eval(arena, nu, e.Expr)
			if err != nil {
				return Result[V]{}, &EquationError{Sym: e.Sym, Err: err}
			}
			next[e.Sym] = v
		}
		it++
		opts.logf("npa: kleene iteration %d", it)
		if equalBindings(dom, nu, next) {
			return Result[V]{Values: next, Iterations: it}, nil
		}
		nu = next
	}
}
