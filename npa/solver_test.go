package npa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/npaflow/domain"
	"github.com/viant/npaflow/expr"
	"github.com/viant/npaflow/npa"
)

// Scenario A (SPEC_FULL.md §8): X = Seq(⊤, Hole(X)) ⊕ Term(⊤) over the
// boolean semiring. The scenario's "Hole(X)" denotes a self-reference
// through the variable's own binding, which this core expresses as
// Call(X, Term(one)) — Call is the node that reads through ν; a bare Hole
// would be unbound outside a Concat/InfClos environment.
func TestScenarioA_SingleRecursiveEquation(t *testing.T) {
	dom := domain.Boolean{}
	a := expr.NewArena[bool, domain.Test](dom)

	self := a.Call("X", a.Term(true)) // extend(ν[X], one) == ν[X]
	xExpr := a.Ndet(a.Seq(true, self), a.Term(true))
	eqns := []npa.Equation{{Sym: "X", Expr: xExpr}}

	res, err := npa.SolveKleene[bool, domain.Test](dom, a, eqns, npa.Options{MaxIterations: 100})
	require.NoError(t, err)
	assert.True(t, res.Values["X"])
}

// Scenario B (SPEC_FULL.md §8): two-variable cyclic tropical system.
func buildScenarioB(dom domain.Tropical) (*expr.Arena[int, domain.Test], []npa.Equation) {
	a := expr.NewArena[int, domain.Test](dom)
	xExpr := a.Ndet(a.Seq(2, a.Call("Y", a.Term(dom.One()))), a.Term(5))
	yExpr := a.Ndet(a.Seq(1, a.Call("X", a.Term(dom.One()))), a.Term(10))
	return a, []npa.Equation{{Sym: "X", Expr: xExpr}, {Sym: "Y", Expr: yExpr}}
}

func TestScenarioB_KleeneAndNewtonAgree(t *testing.T) {
	dom := domain.Tropical{}

	a1, eqns1 := buildScenarioB(dom)
	kleene, err := npa.SolveKleene[int, domain.Test](dom, a1, eqns1, npa.Options{MaxIterations: 100})
	require.NoError(t, err)
	assert.Equal(t, 5, kleene.Values["X"])
	assert.Equal(t, 6, kleene.Values["Y"])

	for _, strategy := range []npa.LinearStrategy{npa.Worklist, npa.Naive} {
		a2, eqns2 := buildScenarioB(dom)
		newton, err := npa.SolveNewton[int, domain.Test](dom, a2, eqns2, npa.Options{MaxIterations: 10, LinearStrategy: strategy})
		require.NoError(t, err)
		assert.Equal(t, 5, newton.Values["X"], "strategy %v", strategy)
		assert.Equal(t, 6, newton.Values["Y"], "strategy %v", strategy)
	}
}

// Property 4 (§8): on a finite idempotent domain, Newton converges within
// len(eqns)+1 outer iterations, to X = true here.
func TestNewtonSufficiencyIdempotent(t *testing.T) {
	dom := domain.Boolean{}
	a := expr.NewArena[bool, domain.Test](dom)
	self := a.Call("X", a.Term(true))
	xExpr := a.Ndet(a.Seq(true, self), a.Term(true))
	eqns := []npa.Equation{{Sym: "X", Expr: xExpr}}

	res, err := npa.SolveNewton[bool, domain.Test](dom, a, eqns, npa.Options{MaxIterations: len(eqns) + 1})
	require.NoError(t, err)
	assert.False(t, res.Incomplete)
	assert.True(t, res.Values["X"])
}

// Property 2 (§8): adding an equation whose RHS is Ndet of the old one with
// any value never decreases the solved value under the domain's order
// (tropical order: smaller is "more reachable" / higher).
func TestMonotonicityUnderNdet(t *testing.T) {
	dom := domain.Tropical{}
	a := expr.NewArena[int, domain.Test](dom)
	base := a.Term(7)
	eqns := []npa.Equation{{Sym: "X", Expr: base}}
	baseline, err := npa.SolveKleene[int, domain.Test](dom, a, eqns, npa.Options{})
	require.NoError(t, err)

	widened := a.Ndet(base, a.Term(3))
	eqns2 := []npa.Equation{{Sym: "X", Expr: widened}}
	grown, err := npa.SolveKleene[int, domain.Test](dom, a, eqns2, npa.Options{})
	require.NoError(t, err)

	// tropical order: x <= y iff min(x,y) == x; widening with NdetCombine
	// (min) must not increase the result above the baseline.
	assert.LessOrEqual(t, grown.Values["X"], baseline.Values["X"])
}

func TestMalformedEquationSystemRejectsDuplicateSymbols(t *testing.T) {
	dom := domain.Boolean{}
	a := expr.NewArena[bool, domain.Test](dom)
	t1 := a.Term(true)
	t2 := a.Term(false)
	eqns := []npa.Equation{{Sym: "X", Expr: t1}, {Sym: "X", Expr: t2}}
	_, err := npa.SolveKleene[bool, domain.Test](dom, a, eqns, npa.Options{})
	require.Error(t, err)
}
