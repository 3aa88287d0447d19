package interproc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/npaflow/domain"
	"github.com/viant/npaflow/interproc"
	"github.com/viant/npaflow/internal/testutil"
	"github.com/viant/npaflow/ir"
)

// rdTransfers assigns bit 0 to a definition inside g, and treats every other
// instruction (including calls) as the identity transfer — the minimal
// reaching-definitions client exercising domain.GenKill end-to-end.
type rdTransfers struct {
	defInst ir.Handle
}

func (t rdTransfers) Instruction(inst ir.Instruction) domain.GenKillValue {
	if inst.Handle() == t.defInst {
		return domain.GenKillValue{Kill: 1, Gen: 1}
	}
	return domain.GenKill{}.One()
}

func (rdTransfers) CallEntry(ir.Instruction, ir.Function) domain.GenKillValue {
	return domain.GenKill{}.One()
}
func (rdTransfers) CallReturn(ir.Instruction, ir.Function) domain.GenKillValue {
	return domain.GenKill{}.One()
}
func (rdTransfers) CallToReturn(ir.Instruction) domain.GenKillValue {
	return domain.GenKill{}.One()
}

// rdFacts treats facts as a live bitset of reaching definitions.
type rdFacts struct{}

func (rdFacts) EntryValue() uint64 { return 0 }
func (rdFacts) ApplySummary(summary domain.GenKillValue, input uint64) uint64 {
	return summary.Apply(input)
}
func (rdFacts) JoinFacts(a, b uint64) uint64 { return a | b }
func (rdFacts) FactsEqual(a, b uint64) bool  { return a == b }

// buildScenarioC constructs the Scenario C module (f calls g once) with a
// definition inside g, and f reading the result in its post-call block.
func buildScenarioC() (*testutil.Module, ir.Handle) {
	g := testutil.NewFunction("g")
	gEntry := testutil.NewBlock(1)
	defInst := testutil.NewInst(10, ir.KindOther)
	gEntry.AddInstruction(defInst)
	gEntry.AddInstruction(testutil.NewInst(11, ir.KindReturn))
	g.AddBlock(gEntry)

	f := testutil.NewFunction("f")
	fEntry := testutil.NewBlock(2)
	fEntry.AddInstruction(testutil.NewInst(20, ir.KindCall).WithCallee(g))
	fAfter := testutil.NewBlock(3)
	fAfter.AddInstruction(testutil.NewInst(21, ir.KindReturn))
	testutil.Link(fEntry, fAfter)
	f.AddBlock(fEntry)
	f.AddBlock(fAfter)

	m := testutil.NewModule()
	m.AddFunction(f)
	m.AddFunction(g)
	return m, defInst.Handle()
}

func TestEngineRunAndPropagateReachingDefs(t *testing.T) {
	module, defHandle := buildScenarioC()

	engine := &interproc.Engine[domain.GenKillValue, domain.Test, uint64]{
		Domain:    domain.GenKill{},
		Transfers: rdTransfers{defInst: defHandle},
		Facts:     rdFacts{},
	}

	summaries, err := engine.Run(module)
	require.NoError(t, err)
	require.NotNil(t, summaries)

	facts, err := engine.Propagate(module, summaries, 0)
	require.NoError(t, err)

	fAfterHandle := ir.Handle(3)
	var found bool
	for bc, fact := range facts {
		if bc.Block == fAfterHandle {
			found = true
			assert.Equal(t, uint64(1), fact&1, "bit 0 (g's definition) should reach f's post-call block")
		}
	}
	assert.True(t, found, "expected a fact recorded for f's post-call block")
}
