package ifds

import (
	"context"

	"github.com/viant/npaflow/ir"
)

// Lattice gives an IDE value domain its top, bottom, and join, per spec.md
// §4.5.1's "edge-function families returning EdgeFunction: V -> V over a
// lattice V with top, bottom, and join."
type Lattice[V any] interface {
	Top() V
	Bottom() V
	Join(a, b V) V
}

// EdgeFn is one edge function V -> V attached to a flow-function edge.
// Composed along a path (Then) and joined when paths merge (lattice.Join
// applied to the results, not to the functions themselves — the standard
// IDE micro-function representation simplifies Compose to plain Go
// function composition since this package does not need the
// constant-propagation-style symbolic micro-function representations the
// original's IDEConstantPropagation client builds).
type EdgeFn[V any] func(V) V

// Then composes e then next: (e.Then(next))(v) == next(e(v)).
func (e EdgeFn[V]) Then(next EdgeFn[V]) EdgeFn[V] {
	return func(v V) V { return next(e(v)) }
}

// IDEProblem layers value propagation onto Problem, per spec.md §4.5.1-2 —
// optional per spec §9 Open Questions ("IDE is optional"); Solve never
// requires it.
type IDEProblem[F comparable, V any] interface {
	Problem[F]
	Lattice() Lattice[V]
	NormalEdge(stmt ir.Instruction, srcFact, dstFact F) EdgeFn[V]
	CallEdge(call ir.Instruction, callee ir.Function, srcFact, dstFact F) EdgeFn[V]
	ReturnEdge(call ir.Instruction, callee ir.Function, exitFact, callFact, dstFact F) EdgeFn[V]
	CallToReturnEdge(call ir.Instruction, srcFact, dstFact F) EdgeFn[V]
}

// IDEResult extends Result with the meet-over-all-paths value composed for
// every reached (instruction, fact) pair.
type IDEResult[F comparable, V any] struct {
	*Result[F]
	Values map[ir.Handle]map[F]V
}

// SolveIDE runs Solve's fact propagation and, in lock-step, composes and
// joins the edge functions IDEProblem attaches to each flow-function edge,
// tracking a value per reached (instruction, fact) exactly as spec.md
// §4.5.2 describes: "for each reached (stmt, fact), the composed edge
// function is tracked and joined across merging paths." Facts and values
// are computed in the same worklist pass (solver.go's dedup-on-fact means a
// second path to an already-reached fact still needs its value joined in,
// so this does not simply wrap Solve — it re-runs propagation threading V).
func SolveIDE[F comparable, V any](ctx context.Context, p IDEProblem[F, V], module ir.Module, cg CallGraph, opts Options) (*IDEResult[F, V], error) {
	fg := buildFlowGraph(module)
	lat := p.Lattice()

	result := &Result[F]{Facts: map[ir.Handle]map[F]bool{}}
	values := map[ir.Handle]map[F]V{}

	joinValue := func(h ir.Handle, fact F, v V) {
		byFact := values[h]
		if byFact == nil {
			byFact = map[F]V{}
			values[h] = byFact
		}
		if cur, ok := byFact[fact]; ok {
			byFact[fact] = lat.Join(cur, v)
		} else {
			byFact[fact] = v
		}
	}

	reached := map[explorationKey[F]]map[ir.Handle]map[F]bool{}
	seen := func(key explorationKey[F], inst ir.Instruction, fact F) bool {
		byInst := reached[key]
		if byInst == nil {
			byInst = map[ir.Handle]map[F]bool{}
			reached[key] = byInst
		}
		facts := byInst[inst.Handle()]
		if facts == nil {
			facts = map[F]bool{}
			byInst[inst.Handle()] = facts
		}
		already := facts[fact]
		facts[fact] = true
		return already
	}

	summaries := map[explorationKey[F]]map[F]bool{}
	summaryVals := map[explorationKey[F]]map[F]V{}
	consumers := map[explorationKey[F]][]consumer[F]{}

	type valuedItem struct {
		key  explorationKey[F]
		inst ir.Instruction
		fact F
		val  V
	}
	var worklist []valuedItem

	enqueue := func(key explorationKey[F], inst ir.Instruction, fact F, v V) {
		already := seen(key, inst, fact)
		joinValue(inst.Handle(), fact, v)
		if !already {
			result.record(inst.Handle(), fact)
		}
		worklist = append(worklist, valuedItem{key: key, inst: inst, fact: fact, val: v})
	}

	seedFunc := func(fn ir.Function) {
		entryInst, ok := fg.entryOf(fn)
		if !ok {
			return
		}
		key := explorationKey[F]{fn: fn.Name(), entry: p.Zero()}
		for _, f := range p.InitialFacts(fn) {
			enqueue(key, entryInst, f, lat.Top())
		}
	}

	if main, ok := module.FunctionByName("main"); ok {
		seedFunc(main)
	} else {
		for fn := range module.Functions() {
			seedFunc(fn)
		}
	}

	notifyExit := func(key explorationKey[F], exitFact F, exitVal V) {
		set := summaries[key]
		if set == nil {
			set = map[F]bool{}
			summaries[key] = set
		}
		set[exitFact] = true

		vals := summaryVals[key]
		if vals == nil {
			vals = map[F]V{}
			summaryVals[key] = vals
		}
		if cur, ok := vals[exitFact]; ok {
			vals[exitFact] = lat.Join(cur, exitVal)
		} else {
			vals[exitFact] = exitVal
		}

		for _, c := range consumers[key] {
			for _, ret := range p.ReturnFlow(c.call, c.callee, exitFact, c.callerFact) {
				edge := p.ReturnEdge(c.call, c.callee, exitFact, c.callerFact, ret)
				for _, next := range fg.successors(c.call) {
					enqueue(c.callerKey, next, ret, edge(exitVal))
				}
			}
		}
	}

	steps := 0
	for len(worklist) > 0 {
		select {
		case <-ctx.Done():
			result.Cancelled = true
			result.Steps = steps
			return &IDEResult[F, V]{Result: result, Values: values}, nil
		default:
		}
		if opts.StepBudget > 0 && steps >= opts.StepBudget {
			result.Incomplete = true
			result.Steps = steps
			return &IDEResult[F, V]{Result: result, Values: values}, nil
		}

		it := worklist[0]
		worklist = worklist[1:]
		steps++
		if opts.ShowProgress && opts.Progress != nil {
			opts.Progress(steps)
		}

		inst := it.inst

		if inst.Kind() == ir.KindReturn {
			notifyExit(it.key, it.fact, it.val)
			continue
		}

		if inst.Kind() == ir.KindCall {
			for callee := range cg.Callees(inst) {
				calleeEntry, ok := fg.entryOf(callee)
				if !ok {
					continue
				}
				for _, entryFact := range p.CallFlow(inst, callee, it.fact) {
					edge := p.CallEdge(inst, callee, it.fact, entryFact)
					calleeKey := explorationKey[F]{fn: callee.Name(), entry: entryFact}
					consumers[calleeKey] = append(consumers[calleeKey], consumer[F]{
						callerKey: it.key, call: inst, callee: callee, callerFact: it.fact,
					})
					if exits, ok := summaries[calleeKey]; ok {
						for exitFact := range exits {
							exitVal := summaryVals[calleeKey][exitFact]
							for _, ret := range p.ReturnFlow(inst, callee, exitFact, it.fact) {
								retEdge := p.ReturnEdge(inst, callee, exitFact, it.fact, ret)
								for _, next := range fg.successors(inst) {
									enqueue(it.key, next, ret, retEdge(exitVal))
								}
							}
						}
					}
					enqueue(calleeKey, calleeEntry, entryFact, edge(it.val))
				}
			}
			for _, bypass := range p.CallToReturnFlow(inst, it.fact) {
				edge := p.CallToReturnEdge(inst, it.fact, bypass)
				for _, next := range fg.successors(inst) {
					enqueue(it.key, next, bypass, edge(it.val))
				}
			}
			continue
		}

		for _, out := range p.NormalFlow(inst, it.fact) {
			edge := p.NormalEdge(inst, it.fact, out)
			for _, next := range fg.successors(inst) {
				enqueue(it.key, next, out, edge(it.val))
			}
		}
	}

	result.Steps = steps
	return &IDEResult[F, V]{Result: result, Values: values}, nil
}
