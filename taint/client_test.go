package taint_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/npaflow/ifds"
	"github.com/viant/npaflow/internal/testutil"
	"github.com/viant/npaflow/ir"
	"github.com/viant/npaflow/taint"
)

// buildScenarioF builds read()/strlen()/printf() as three external
// functions (no bodies; each call reports its callee through
// ir.Instruction.Callee() with ok==true, and this Client keys
// source/sink/pipe directives purely off the
// callee *name* a call instruction carries, regardless of whether a body is
// present) plus a "main" that chains them: b = read(); n = strlen(b);
// printf(n). Positions use the V (value) access mode throughout rather than
// Scenario F's literal D, since this Client's memory facts are produced by
// actual store/load instructions (see NormalFlow) and this fixture has
// none — the source -> pipe -> sink value chain is exactly what the D
// variant would also exercise, one layer of indirection removed.
func buildScenarioF(t *testing.T) (*testutil.Module, ir.Handle, ir.Handle) {
	t.Helper()

	fn := testutil.NewFunction("main")
	b := testutil.NewBlock(1)

	// read/strlen/printf are external: stub ir.Function values with no
	// blocks, so Callee() resolves a name for Client's source/sink/pipe
	// lookups while DirectCallGraph's callers find no entry block to
	// explore a body into (fg.entryOf reports not-found), matching
	// spec.md §6's "callee function or a handle indicating indirect" for
	// functions with no known body.
	readFn := testutil.NewFunction("read")
	strlenFn := testutil.NewFunction("strlen")
	printfFn := testutil.NewFunction("printf")

	readCall := testutil.NewInst(1, ir.KindCall).WithCallee(readFn)
	strlenCall := testutil.NewInst(2, ir.KindCall, ir.Value{Handle: 1}).WithCallee(strlenFn)
	printfCall := testutil.NewInst(3, ir.KindCall, ir.Value{Handle: 2}).WithCallee(printfFn)
	ret := testutil.NewInst(4, ir.KindReturn)

	b.AddInstruction(readCall)
	b.AddInstruction(strlenCall)
	b.AddInstruction(printfCall)
	b.AddInstruction(ret)
	fn.AddBlock(b)

	m := testutil.NewModule()
	m.AddFunction(fn)

	return m, strlenCall.Handle(), printfCall.Handle()
}

func TestTaintClientReportsSourceThroughPipeToSink(t *testing.T) {
	spec, err := taint.ParseSpecString(
		"read src retV\n" +
			"strlen pipe arg0V->retV\n" +
			"printf snk arg0V\n")
	require.NoError(t, err)

	module, _, _ := buildScenarioF(t)
	client := taint.NewClient(spec, nil)

	_, err = ifds.Solve[taint.Fact](context.Background(), client, module, ifds.DirectCallGraph{}, ifds.Options{})
	require.NoError(t, err)

	require.Len(t, client.Findings, 1)
	assert.Equal(t, taint.FactValue, client.Findings[0].Fact.Kind)
}

func TestTaintClientSanitizerSuppressesReport(t *testing.T) {
	spec, err := taint.ParseSpecString(
		"read src retV\n" +
			"strlen ignore\n" +
			"printf snk arg0V\n")
	require.NoError(t, err)

	module, _, _ := buildScenarioF(t)
	client := taint.NewClient(spec, nil)

	_, err = ifds.Solve[taint.Fact](context.Background(), client, module, ifds.DirectCallGraph{}, ifds.Options{})
	require.NoError(t, err)

	assert.Empty(t, client.Findings, "strlen's ignore directive should sever the pipe and suppress the sink report")
}
