package reachingdefs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/npaflow/interproc"
	"github.com/viant/npaflow/interproc/reachingdefs"
	"github.com/viant/npaflow/internal/testutil"
	"github.com/viant/npaflow/ir"
)

// buildModule builds: g defines "x" once and returns; f calls g in fEntry,
// redefines "x" itself in fMid (killing g's definition) and defines "y" (a
// distinct variable, unaffected by x's kill), then reaches fAfter, the
// block whose entry fact this test inspects (Propagate records a block's
// entry fact, not its exit fact, so the effects of fMid's own instructions
// only show up at its successor's entry).
func buildModule() (*testutil.Module, ir.Handle, ir.Handle, ir.Handle, ir.Handle) {
	g := testutil.NewFunction("g")
	gEntry := testutil.NewBlock(1)
	defX1 := testutil.NewInst(10, ir.KindStore, ir.Value{Handle: 9}, ir.Value{Name: "x"})
	gEntry.AddInstruction(defX1)
	gEntry.AddInstruction(testutil.NewInst(11, ir.KindReturn))
	g.AddBlock(gEntry)

	f := testutil.NewFunction("f")
	fEntry := testutil.NewBlock(2)
	fEntry.AddInstruction(testutil.NewInst(20, ir.KindCall).WithCallee(g))

	fMid := testutil.NewBlock(3)
	defX2 := testutil.NewInst(21, ir.KindStore, ir.Value{Handle: 19}, ir.Value{Name: "x"})
	fMid.AddInstruction(defX2)
	defY := testutil.NewInst(22, ir.KindStore, ir.Value{Handle: 29}, ir.Value{Name: "y"})
	fMid.AddInstruction(defY)

	fAfter := testutil.NewBlock(4)
	fAfter.AddInstruction(testutil.NewInst(23, ir.KindReturn))

	testutil.Link(fEntry, fMid)
	testutil.Link(fMid, fAfter)
	f.AddBlock(fEntry)
	f.AddBlock(fMid)
	f.AddBlock(fAfter)

	m := testutil.NewModule()
	m.AddFunction(f)
	m.AddFunction(g)
	return m, defX1.Handle(), defX2.Handle(), defY.Handle(), fAfter.Handle()
}

func TestReachingDefsKillsSameVariableAcrossCall(t *testing.T) {
	module, defX1, defX2, defY, fAfterHandle := buildModule()

	defs, facts, err := reachingdefs.Analyze(module, interproc.Options{})
	require.NoError(t, err)
	assert.False(t, defs.Truncated)

	var found bool
	for bc, fact := range facts {
		if bc.Block != fAfterHandle {
			continue
		}
		found = true
		reachesX1, tracked := defs.Reaches(fact, defX1)
		require.True(t, tracked)
		assert.False(t, reachesX1, "f's own redefinition of x should kill g's definition")

		reachesX2, tracked := defs.Reaches(fact, defX2)
		require.True(t, tracked)
		assert.True(t, reachesX2, "f's own definition of x should reach fAfter")

		reachesY, tracked := defs.Reaches(fact, defY)
		require.True(t, tracked)
		assert.True(t, reachesY, "y's definition is independent of x's kill")
	}
	assert.True(t, found, "expected a fact recorded for fAfter")
}

func TestReachingDefsReachesUntrackedForUnknownHandle(t *testing.T) {
	module, _, _, _, _ := buildModule()
	defs, _, err := reachingdefs.Analyze(module, interproc.Options{})
	require.NoError(t, err)

	_, tracked := defs.Reaches(0, ir.Handle(999))
	assert.False(t, tracked)
}
