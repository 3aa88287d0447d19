package ifds_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/npaflow/ifds"
	"github.com/viant/npaflow/internal/testutil"
	"github.com/viant/npaflow/ir"
)

// zeroFactProblem is Scenario D's client: normal_flow is the identity,
// call_flow propagates the fact into every callee unchanged, and nothing
// else happens — exercising pure reachability with no domain logic.
type zeroFactProblem struct{}

func (zeroFactProblem) Zero() struct{}                                     { return struct{}{} }
func (zeroFactProblem) InitialFacts(ir.Function) []struct{}                 { return []struct{}{{}} }
func (zeroFactProblem) NormalFlow(ir.Instruction, struct{}) []struct{}      { return []struct{}{{}} }
func (zeroFactProblem) CallFlow(ir.Instruction, ir.Function, struct{}) []struct{} {
	return []struct{}{{}}
}
func (zeroFactProblem) ReturnFlow(ir.Instruction, ir.Function, struct{}, struct{}) []struct{} {
	return nil
}
func (zeroFactProblem) CallToReturnFlow(ir.Instruction, struct{}) []struct{} {
	return []struct{}{{}}
}

func buildScenarioD() (*testutil.Module, []ir.Handle) {
	g := testutil.NewFunction("g")
	gEntry := testutil.NewBlock(1)
	gBody := testutil.NewInst(10, ir.KindOther)
	gRet := testutil.NewInst(11, ir.KindReturn)
	gEntry.AddInstruction(gBody)
	gEntry.AddInstruction(gRet)
	g.AddBlock(gEntry)

	f := testutil.NewFunction("main")
	fEntry := testutil.NewBlock(2)
	call := testutil.NewInst(20, ir.KindCall).WithCallee(g)
	fAfter := testutil.NewInst(21, ir.KindReturn)
	fEntry.AddInstruction(call)
	fEntry.AddInstruction(fAfter)
	f.AddBlock(fEntry)

	m := testutil.NewModule()
	m.AddFunction(f)
	m.AddFunction(g)

	return m, []ir.Handle{gBody.Handle(), gRet.Handle(), call.Handle(), fAfter.Handle()}
}

func TestSolveScenarioDZeroFactReachability(t *testing.T) {
	module, handles := buildScenarioD()

	result, err := ifds.Solve[struct{}](context.Background(), zeroFactProblem{}, module, ifds.DirectCallGraph{}, ifds.Options{})
	require.NoError(t, err)
	require.False(t, result.Incomplete)
	require.False(t, result.Cancelled)

	for _, h := range handles {
		assert.True(t, result.Reached(h, struct{}{}), "handle %d should be reached with the zero fact", h)
	}
}

func TestSolveRespectsStepBudget(t *testing.T) {
	module, _ := buildScenarioD()

	result, err := ifds.Solve[struct{}](context.Background(), zeroFactProblem{}, module, ifds.DirectCallGraph{}, ifds.Options{StepBudget: 1})
	require.NoError(t, err)
	assert.True(t, result.Incomplete)
}

func TestSolveRespectsCancellation(t *testing.T) {
	module, _ := buildScenarioD()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := ifds.Solve[struct{}](ctx, zeroFactProblem{}, module, ifds.DirectCallGraph{}, ifds.Options{})
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
}
