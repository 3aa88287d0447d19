package interproc

import (
	"github.com/viant/npaflow/context"
	"github.com/viant/npaflow/expr"
	"github.com/viant/npaflow/ir"
	"github.com/viant/npaflow/npa"
)

// ref builds a reference to another equation's symbol: Call(sym, Term(one))
// evaluates to extend(ν[sym], one) == ν[sym]. InterproceduralEngine.h uses
// Exp::hole(predSym) for this, but NPA.h's own I0::eval resolves Hole
// against the local (Concat/InfClos-bound) environment, not ν — a bare
// Hole at equation top level would be unbound. Call is the node that
// actually reads through ν, so cross-equation references use it instead.
func (e *Engine[V, T, F]) ref(arena *expr.Arena[V, T], sym expr.Symbol) expr.NodeID {
	return arena.Call(sym, arena.Term(e.Domain.One()))
}

// Run builds and solves phase 1's equation system: a worklist of reachable
// (function, context) pairs, seeded from "main" when present else every
// defined function at the empty context. One equation per basic block folds
// instruction transfers over an Ndet of predecessor-block references; one
// equation per function folds the Ndet of its terminator-block references. A
// failure while solving any equation (an npa.EquationError) aborts Run: it
// returns a nil Summaries and the error, and no equation is skipped or
// solved on its own.
func (e *Engine[V, T, F]) Run(module ir.Module) (*Summaries[V], error) {
	table := e.Options.table()
	arena := expr.NewArena[V, T](e.Domain)

	var worklist []funcCtx
	visited := map[string]bool{}
	enqueue := func(fn ir.Function, cs context.Context) {
		fc := funcCtx{fn: fn, cs: cs}
		if !visited[fc.key()] {
			visited[fc.key()] = true
			worklist = append(worklist, fc)
		}
	}

	if main, ok := module.FunctionByName("main"); ok {
		enqueue(main, context.Empty())
	} else {
		for fn := range module.Functions() {
			enqueue(fn, context.Empty())
		}
	}

	var eqns []npa.Equation

	for len(worklist) > 0 {
		fc := worklist[0]
		worklist = worklist[1:]

		var exitRefs []expr.NodeID
		for block := range fc.fn.Blocks() {
			bSym := blockSymbol(block, fc.cs)

			var predRefs []expr.NodeID
			for pred := range block.Predecessors() {
				predRefs = append(predRefs, e.ref(arena, blockSymbol(pred, fc.cs)))
			}

			var inExpr expr.NodeID
			switch {
			case block.Handle() == fc.fn.Entry().Handle():
				inExpr = arena.Term(e.Domain.One())
			case len(predRefs) == 0:
				inExpr = arena.Term(e.Domain.Zero())
			default:
				inExpr = predRefs[0]
				for _, r := range predRefs[1:] {
					inExpr = arena.Ndet(inExpr, r)
				}
			}

			currentPath := inExpr
			for inst := range block.Instructions() {
				currentPath = e.foldInstruction(arena, table, fc, inst, currentPath, enqueue)
			}

			eqns = append(eqns, npa.Equation{Sym: bSym, Expr: currentPath})

			if isExitBlock(block) {
				exitRefs = append(exitRefs, e.ref(arena, bSym))
			}
		}

		var exitExpr expr.NodeID
		if len(exitRefs) == 0 {
			exitExpr = arena.Term(e.Domain.Zero())
		} else {
			exitExpr = exitRefs[0]
			for _, r := range exitRefs[1:] {
				exitExpr = arena.Ndet(exitExpr, r)
			}
		}
		eqns = append(eqns, npa.Equation{Sym: funcSymbol(fc.fn, fc.cs), Expr: exitExpr})
	}

	res, err := npa.SolveNewton[V, T](e.Domain, arena, eqns, e.Options.Newton)
	if err != nil {
		return nil, err
	}
	return &Summaries[V]{Values: res.Values}, nil
}

func isExitBlock(b ir.BasicBlock) bool {
	for range b.Successors() {
		return false
	}
	return true
}

func (e *Engine[V, T, F]) foldInstruction(
	arena *expr.Arena[V, T],
	table *context.Table,
	fc funcCtx,
	inst ir.Instruction,
	currentPath expr.NodeID,
	enqueue func(ir.Function, context.Context),
) expr.NodeID {
	if inst.Kind() != ir.KindCall {
		return arena.Seq(e.Transfers.Instruction(inst), currentPath)
	}

	callee, ok := inst.Callee()
	if !ok {
		return arena.Seq(e.Transfers.CallToReturn(inst), currentPath)
	}

	calleeCS := table.Push(fc.cs, callSite(fc.fn, inst))
	enqueue(callee, calleeCS)

	wrapped := arena.Seq(e.Transfers.CallEntry(inst, callee), currentPath)
	called := arena.Call(funcSymbol(callee, calleeCS), wrapped)
	return arena.Seq(e.Transfers.CallReturn(inst, callee), called)
}
