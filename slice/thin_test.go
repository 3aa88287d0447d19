package slice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/npaflow/config"
	"github.com/viant/npaflow/internal/testutil"
	"github.com/viant/npaflow/ir"
	"github.com/viant/npaflow/pdg"
	"github.com/viant/npaflow/slice"
)

func buildScenarioE(t *testing.T) (*pdg.Graph, ir.Handle) {
	t.Helper()
	fn := testutil.NewFunction("main")
	b := testutil.NewBlock(1)

	allocaInst := testutil.NewInst(1, ir.KindAlloca)
	storeInst := testutil.NewInst(2, ir.KindStore, ir.Value{Handle: 99, Name: "v0"}, ir.Value{Handle: 1})
	loadInst := testutil.NewInst(3, ir.KindLoad, ir.Value{Handle: 1})
	addInst := testutil.NewInst(4, ir.KindBinOp, ir.Value{Handle: 3})
	retInst := testutil.NewInst(5, ir.KindReturn, ir.Value{Handle: 4})

	b.AddInstruction(allocaInst)
	b.AddInstruction(storeInst)
	b.AddInstruction(loadInst)
	b.AddInstruction(addInst)
	b.AddInstruction(retInst)
	fn.AddBlock(b)

	m := testutil.NewModule()
	m.AddFunction(fn)

	g, err := pdg.Build(m)
	require.NoError(t, err)
	return g, retInst.Handle()
}

// TestThinSliceIsSubsetOfClassical is property 9: a thin slice never
// contains more nodes than the classical slice of the same seed, since it
// only ever drops control and base-pointer edges from the classical
// traversal.
func TestThinSliceIsSubsetOfClassical(t *testing.T) {
	g, retHandle := buildScenarioE(t)
	retID, ok := g.InstructionNode(retHandle)
	require.True(t, ok)

	classical, _ := slice.Backward(g, config.Slicing{}, retID)
	thin, _ := slice.ThinBackward(g, config.Slicing{}, retID)

	for n := range thin {
		assert.True(t, classical[n], "thin slice node %d must also be in the classical slice", n)
	}
	assert.Less(t, len(thin), len(classical), "thin slice should be strictly smaller for Scenario E (excludes alloca via base-pointer edges)")
}

func TestThinSliceExcludesAllocaThroughBasePointer(t *testing.T) {
	g, retHandle := buildScenarioE(t)
	retID, _ := g.InstructionNode(retHandle)

	thin, diag := slice.ThinBackward(g, config.Slicing{}, retID)
	require.Greater(t, diag.BasePtrDepsExcluded, 0)

	allocaID, _ := g.InstructionNode(1)
	assert.False(t, thin[allocaID], "alloca should be excluded from the thin slice: reached only via base-pointer edges")
}

// buildCallReturnFixture builds f calling g twice (at two distinct call
// sites), so a context-insensitive backward slice from inside g's
// body can reach back through either call site while a context-sensitive
// one must only follow the matching call/return pair.
func buildCallReturnFixture(t *testing.T) (*pdg.Graph, map[string]ir.Handle) {
	t.Helper()

	g := testutil.NewFunction("g")
	gEntry := testutil.NewBlock(1)
	gParam := testutil.NewInst(10, ir.KindOther)
	gEntry.AddInstruction(gParam)
	gEntry.AddInstruction(testutil.NewInst(11, ir.KindReturn, ir.Value{Handle: 10}))
	g.AddBlock(gEntry)

	f := testutil.NewFunction("f")
	fBlock := testutil.NewBlock(2)
	call1 := testutil.NewInst(20, ir.KindCall).WithCallee(g)
	call2 := testutil.NewInst(21, ir.KindCall).WithCallee(g)
	fBlock.AddInstruction(call1)
	fBlock.AddInstruction(call2)
	fBlock.AddInstruction(testutil.NewInst(22, ir.KindReturn, ir.Value{Handle: 21}))
	f.AddBlock(fBlock)

	m := testutil.NewModule()
	m.AddFunction(f)
	m.AddFunction(g)

	graph, err := pdg.Build(m)
	require.NoError(t, err)

	return graph, map[string]ir.Handle{
		"gReturn": gParam.Handle(),
		"call1":   call1.Handle(),
		"call2":   call2.Handle(),
	}
}

// TestContextSensitiveThinSliceBalancesCallReturn is property 10: with
// ContextSensitive set, matching call/return pairs can only prune the thin
// slice from a call's result, so it is never larger than the
// context-insensitive slice from the same seed.
func TestContextSensitiveThinSliceBalancesCallReturn(t *testing.T) {
	g, h := buildCallReturnFixture(t)
	call2ID, ok := g.InstructionNode(h["call2"])
	require.True(t, ok)

	ctxSensitive, _ := slice.ThinBackward(g, config.Slicing{ContextSensitive: true}, call2ID)
	ctxInsensitive, _ := slice.ThinBackward(g, config.Slicing{}, call2ID)

	assert.LessOrEqual(t, len(ctxSensitive), len(ctxInsensitive))
}

// TestChopIsIntersectionOfForwardAndBackward is property 8.
func TestChopIsIntersectionOfForwardAndBackward(t *testing.T) {
	g, retHandle := buildScenarioE(t)
	retID, _ := g.InstructionNode(retHandle)
	allocaID, _ := g.InstructionNode(1)

	fwd, _ := slice.Forward(g, config.Slicing{}, allocaID)
	bwd, _ := slice.Backward(g, config.Slicing{}, retID)
	chop, _ := slice.Chop(g, config.Slicing{}, []pdg.NodeID{allocaID}, []pdg.NodeID{retID})

	for n := range chop {
		assert.True(t, fwd[n] && bwd[n])
	}
	for n := range fwd {
		if bwd[n] {
			assert.True(t, chop[n])
		}
	}
}

// TestChopBoundedDFSReportsCapsHit is the expansion covering bounded-DFS
// chop: once a cap is set, Chop stops doing the uncapped intersection and
// instead enumerates paths, reporting which cap it hit.
func TestChopBoundedDFSReportsCapsHit(t *testing.T) {
	g, retHandle := buildScenarioE(t)
	retID, _ := g.InstructionNode(retHandle)
	allocaID, _ := g.InstructionNode(1)

	chop, diag := slice.Chop(g, config.Slicing{MaxPaths: 1}, []pdg.NodeID{allocaID}, []pdg.NodeID{retID})
	require.NotEmpty(t, chop)
	assert.Contains(t, diag.CapsHit, "max-paths")

	_, diagShort := slice.Chop(g, config.Slicing{MaxPathLength: 1}, []pdg.NodeID{allocaID}, []pdg.NodeID{retID})
	assert.Contains(t, diagShort.CapsHit, "max-path-length")
}
