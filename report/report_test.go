package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/npaflow/config"
	"github.com/viant/npaflow/internal/testutil"
	"github.com/viant/npaflow/ir"
	"github.com/viant/npaflow/pdg"
	"github.com/viant/npaflow/report"
	"github.com/viant/npaflow/slice"
	"github.com/viant/npaflow/taint"
)

func buildTinyModule() *testutil.Module {
	fn := testutil.NewFunction("f")
	b := testutil.NewBlock(1)
	alloca := testutil.NewInst(1, ir.KindAlloca)
	store := testutil.NewInst(2, ir.KindStore, ir.Value{Handle: 99, Name: "v0"}, ir.Value{Handle: 1})
	load := testutil.NewInst(3, ir.KindLoad, ir.Value{Handle: 1})
	ret := testutil.NewInst(4, ir.KindReturn, ir.Value{Handle: 3})
	b.AddInstruction(alloca)
	b.AddInstruction(store)
	b.AddInstruction(load)
	b.AddInstruction(ret)
	fn.AddBlock(b)
	m := testutil.NewModule()
	m.AddFunction(fn)
	return m
}

func TestToSliceRendersNodesSortedByID(t *testing.T) {
	m := buildTinyModule()
	g, err := pdg.Build(m)
	require.NoError(t, err)

	retNode, ok := g.InstructionNode(4)
	require.True(t, ok)

	nodes, diag := slice.Backward(g, config.Slicing{}, retNode)
	header := report.NewHeader("slice", "f", time.Now(), false, false)
	rep := report.ToSlice(header, g, nodes, diag)

	require.NotEmpty(t, rep.Nodes)
	for i := 1; i < len(rep.Nodes); i++ {
		assert.Less(t, rep.Nodes[i-1].ID, rep.Nodes[i].ID)
	}

	data, err := report.RenderYAML(rep)
	require.NoError(t, err)
	assert.Contains(t, string(data), "diagnostics")
}

func TestToTaintRendersFindings(t *testing.T) {
	spec, err := taint.ParseSpecString("printf snk arg0V\n")
	require.NoError(t, err)
	client := taint.NewClient(spec, nil)

	fn := testutil.NewFunction("printf")
	call := testutil.NewInst(1, ir.KindCall, ir.Value{Handle: 7}).WithCallee(fn)
	client.Findings = append(client.Findings, taint.Finding{
		Sink:    call,
		SinkPos: taint.Position{Kind: taint.PosArg, Index: 0},
		Fact:    taint.Fact{Kind: taint.FactValue, Value: 7},
	})

	header := report.NewHeader("taint", "m", time.Now(), false, false)
	rep := report.ToTaint(header, client)

	require.Len(t, rep.Hops, 1)
	assert.Equal(t, "printf", rep.Hops[0].Function)
	assert.Equal(t, "arg0V", rep.Hops[0].Position)
	assert.Equal(t, "value", rep.Hops[0].FactKind)
}
