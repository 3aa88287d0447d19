package npa

import (
	"github.com/viant/npaflow/domain"
	"github.com/viant/npaflow/expr"
)

// rhs bundles one Newton-step equation's linear system right-hand side:
// the (already-added) base term plus differential, in its own Linear
// arena, against the shared symbol Δ environment.
type rhs[V any, T any] struct {
	sym  expr.Symbol
	lin  *expr.Linear[V, T]
	root expr.NodeID
}

// solveLinearNaive finds Δ such that Δ = L(Δ) + b by repeated substitution
// over the whole Δ vector, per SPEC_FULL.md §4.3.2 "Naïve" strategy.
func solveLinearNaive[V any, T any](dom domain.Domain[V, T], eqs []rhs[V, T]) (map[expr.Symbol]V, error) {
	delta := make(map[expr.Symbol]V, len(eqs))
	for _, e := range eqs {
		delta[e.sym] = dom.Zero()
	}
	for {
		next := make(map[expr.Symbol]V, len(eqs))
		for _, e := range eqs {
			v, err := expr.EvalLinear(e.lin, delta, e.root)
			if err != nil {
				return nil, &EquationError{Sym: e.sym, Err: err}
			}
			next[e.sym] = v
		}
		stable := true
		for sym, v := range next {
			if !dom.Equal(delta[sym], v) {
				stable = false
				break
			}
		}
		delta = next
		if stable {
			return delta, nil
		}
	}
}

// solveLinearWorklist finds Δ dependency-drivenly: each equation tracks the
// symbols its differential reads (expr.Dependencies), and an update to one
// equation's Δ re-enqueues every equation that depends on it. Grounded on
// original_source's solve_linear_worklist_impl / DepFinder.
func solveLinearWorklist[V any, T any](dom domain.Domain[V, T], eqs []rhs[V, T]) (map[expr.Symbol]V, error) {
	n := len(eqs)
	symToIdx := make(map[expr.Symbol]int, n)
	for i, e := range eqs {
		symToIdx[e.sym] = i
	}

	users := make([][]int, n)
	for i, e := range eqs {
		deps := expr.Dependencies(e.lin, e.root)
		for dep := range deps {
			if idx, ok := symToIdx[dep]; ok {
				users[idx] = append(users[idx], i)
			}
		}
	}

	delta := make(map[expr.Symbol]V, n)
	for _, e := range eqs {
		delta[e.sym] = dom.Zero()
	}

	queue := make([]int, n)
	inQueue := make([]bool, n)
	for i := range eqs {
		queue[i] = i
		inQueue[i] = true
	}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		inQueue[idx] = false

		e := eqs[idx]
		v, err := expr.EvalLinear(e.lin, delta, e.root)
		if err != nil {
			return nil, &EquationError{Sym: e.sym, Err: err}
		}
		if !dom.Equal(delta[e.sym], v) {
			delta[e.sym] = v
			for _, u := range users[idx] {
				if !inQueue[u] {
					queue = append(queue, u)
					inQueue[u] = true
				}
			}
		}
	}
	return delta, nil
}
