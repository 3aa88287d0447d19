package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/npaflow/domain"
	"github.com/viant/npaflow/expr"
)

func TestEvalTropical(t *testing.T) {
	tests := []struct {
		description string
		build       func(a *expr.Arena[int, domain.Test]) expr.NodeID
		nu          map[expr.Symbol]int
		expect      int
	}{
		{
			description: "term",
			build: func(a *expr.Arena[int, domain.Test]) expr.NodeID {
				return a.Term(5)
			},
			expect: 5,
		},
		{
			description: "seq extends with const",
			build: func(a *expr.Arena[int, domain.Test]) expr.NodeID {
				return a.Seq(2, a.Term(5))
			},
			expect: 7,
		},
		{
			description: "ndet takes min",
			build: func(a *expr.Arena[int, domain.Test]) expr.NodeID {
				return a.Ndet(a.Term(3), a.Term(9))
			},
			expect: 3,
		},
		{
			description: "call extends with nu binding",
			build: func(a *expr.Arena[int, domain.Test]) expr.NodeID {
				return a.Call("g", a.Term(4))
			},
			nu:     map[expr.Symbol]int{"g": 10},
			expect: 14,
		},
		{
			description: "concat binds hole from inner",
			build: func(a *expr.Arena[int, domain.Test]) expr.NodeID {
				return a.Concat(a.Seq(1, a.Hole("x")), "x", a.Term(6))
			},
			expect: 7,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			dom := domain.Tropical{}
			a := expr.NewArena[int, domain.Test](dom)
			root := tc.build(a)
			got, err := expr.Eval(a, tc.nu, root)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestEvalUnboundIsFatal(t *testing.T) {
	dom := domain.Tropical{}
	a := expr.NewArena[int, domain.Test](dom)
	root := a.Hole("missing")
	_, err := expr.Eval(a, nil, root)
	require.Error(t, err)
	var unbound *expr.ErrUnbound
	require.ErrorAs(t, err, &unbound)
	assert.Equal(t, expr.Symbol("missing"), unbound.Symbol)
}

func TestInfClosFixedPoint(t *testing.T) {
	// InfClos computes mu c. min(5, c) starting at zero (Inf), which
	// converges immediately to 5 since min(5, Inf) = 5 and min(5, 5) = 5.
	dom := domain.Tropical{}
	a := expr.NewArena[int, domain.Test](dom)
	body := a.Ndet(a.Term(5), a.Hole("c"))
	root := a.InfClos(body, "c")
	got, err := expr.Eval(a, nil, root)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestDifferentiateCallProductRule(t *testing.T) {
	// e = Call(g, Term(3)); nu[g] = 10.
	// d(e) = Add(Seq(nu[g], d(Term(3))), CallTerm(g, eval(Term(3))))
	//      = Add(Seq(10, Term(zero)), Call(g, 3))
	// d(Term(3)) = Term(zero) = Inf, and zero annihilates Extend, so the
	// left summand saturates to Inf (the constant argument contributes no
	// sensitivity) and only the call-target derivative survives:
	// under delta[g] = 2, eval = combine(Inf, extend(2,3)) = min(Inf,5) = 5.
	dom := domain.Tropical{}
	a := expr.NewArena[int, domain.Test](dom)
	root := a.Call("g", a.Term(3))
	nu := map[expr.Symbol]int{"g": 10}

	lin, dRoot, err := expr.Differentiate(a, nu, root)
	require.NoError(t, err)

	delta := map[expr.Symbol]int{"g": 2}
	got, err := expr.EvalLinear(lin, delta, dRoot)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestDependenciesCollectsHolesAndCalls(t *testing.T) {
	dom := domain.Tropical{}
	a := expr.NewArena[int, domain.Test](dom)
	root := a.Concat(a.Seq(1, a.Call("g", a.Hole("x"))), "x", a.Term(7))
	nu := map[expr.Symbol]int{"g": 4}
	lin, dRoot, err := expr.Differentiate(a, nu, root)
	require.NoError(t, err)

	deps := expr.Dependencies(lin, dRoot)
	assert.True(t, deps["g"])
	assert.True(t, deps["x"])
}
