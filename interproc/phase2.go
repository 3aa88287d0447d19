package interproc

import (
	"github.com/viant/npaflow/context"
	"github.com/viant/npaflow/expr"
	"github.com/viant/npaflow/ir"
)

// Propagate runs phase 2: top-down fact propagation over the call graph
// discovered in phase 1, seeded the same way (main if present, else every
// function at the empty context) with initial.
//
// Unlike phase 1, which must build an NPA equation system because summaries
// are mutually recursive, phase 2 only ever composes concrete domain values
// along one acyclic caller-to-callee path per worklist pop, so it composes
// domain.Domain operations directly rather than building and evaluating
// another Arena expression per block — semantically equivalent to
// I0<D>::eval over the one-shot path expression InterproceduralEngine.h
// builds, just without the intermediate tree.
func (e *Engine[V, T, F]) Propagate(module ir.Module, summaries *Summaries[V], initial F) (map[BlockContext]F, error) {
	table := e.Options.table()
	solved := summaries.Values

	var worklist []funcCtx
	inWorklist := map[string]bool{}
	funcInput := map[string]F{}

	enqueue := func(fc funcCtx, input F, merge bool) {
		if existing, ok := funcInput[fc.key()]; ok {
			if !merge {
				return
			}
			joined := e.Facts.JoinFacts(existing, input)
			if e.Facts.FactsEqual(existing, joined) {
				return
			}
			funcInput[fc.key()] = joined
		} else {
			funcInput[fc.key()] = input
		}
		if !inWorklist[fc.key()] {
			inWorklist[fc.key()] = true
			worklist = append(worklist, fc)
		}
	}

	if main, ok := module.FunctionByName("main"); ok {
		enqueue(funcCtx{fn: main, cs: context.Empty()}, initial, false)
	} else {
		for fn := range module.Functions() {
			enqueue(funcCtx{fn: fn, cs: context.Empty()}, initial, false)
		}
	}

	result := map[BlockContext]F{}

	for len(worklist) > 0 {
		fc := worklist[0]
		worklist = worklist[1:]
		inWorklist[fc.key()] = false

		inputVal := funcInput[fc.key()]

		for block := range fc.fn.Blocks() {
			bSym := blockSymbol(block, fc.cs)
			if _, ok := solved[bSym]; !ok {
				continue
			}

			entryToBlockStart := e.entryValue(fc, block, solved)
			blockEntryFact := e.Facts.ApplySummary(entryToBlockStart, inputVal)
			result[BlockContext{Block: block.Handle(), Ctx: fc.cs}] = blockEntryFact

			currentPathVal := e.Domain.One()
			for inst := range block.Instructions() {
				if inst.Kind() != ir.KindCall {
					currentPathVal = e.Domain.Extend(e.Transfers.Instruction(inst), currentPathVal)
					continue
				}
				callee, ok := inst.Callee()
				if !ok {
					currentPathVal = e.Domain.Extend(e.Transfers.CallToReturn(inst), currentPathVal)
					continue
				}

				calleeCS := table.Push(fc.cs, callSite(fc.fn, inst))
				calleeEntry := e.Domain.Extend(e.Transfers.CallEntry(inst, callee), currentPathVal)
				totalToCall := e.Domain.Extend(calleeEntry, entryToBlockStart)
				factAtCall := e.Facts.ApplySummary(totalToCall, inputVal)

				enqueue(funcCtx{fn: callee, cs: calleeCS}, factAtCall, true)

				calleeSummary := solved[funcSymbol(callee, calleeCS)]
				withCall := e.Domain.Extend(calleeSummary, calleeEntry)
				currentPathVal = e.Domain.Extend(e.Transfers.CallReturn(inst, callee), withCall)
			}
		}
	}

	return result, nil
}

// entryValue computes the value flowing into block's entry: dom.One() at
// the function's entry block, dom.Zero() if unreachable (no solved
// predecessor), else the Combine of every solved predecessor-block value.
func (e *Engine[V, T, F]) entryValue(fc funcCtx, block ir.BasicBlock, solved map[expr.Symbol]V) V {
	if block.Handle() == fc.fn.Entry().Handle() {
		return e.Domain.One()
	}
	result := e.Domain.Zero()
	first := true
	for pred := range block.Predecessors() {
		v, ok := solved[blockSymbol(pred, fc.cs)]
		if !ok {
			continue
		}
		if first {
			result = v
			first = false
		} else {
			result = e.Domain.Combine(result, v)
		}
	}
	return result
}
