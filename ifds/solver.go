package ifds

import (
	"context"

	"github.com/viant/npaflow/ir"
)

// explorationKey identifies one fact-indexed sub-problem: "propagate entry
// through fn starting from entry". Summaries are cached per explorationKey,
// matching spec.md §4.5.3: "the same callee can be explored under multiple
// entry facts; each pairing is cached independently."
type explorationKey[F comparable] struct {
	fn    string
	entry F
}

type item[F comparable] struct {
	key  explorationKey[F]
	inst ir.Instruction
	fact F
}

// consumer records a call site awaiting exitFacts for key, so ReturnFlow can
// be re-applied the moment a new exit fact for that (callee, entryFact)
// pairing is discovered — installed "immediately applied at every caller
// that previously consumed the same entry fact" per spec.md §4.5.2.
type consumer[F comparable] struct {
	callerKey  explorationKey[F]
	call       ir.Instruction
	callee     ir.Function
	callerFact F
}

// Solve runs the IFDS tabulation algorithm to fixpoint starting from
// InitialFacts(main's entry, or every function in module when "main" is
// absent), per spec.md §4.5.2. Cooperative cancellation is checked at
// every worklist-pop boundary (§5); StepBudget caps total pops.
func Solve[F comparable](ctx context.Context, p Problem[F], module ir.Module, cg CallGraph, opts Options) (*Result[F], error) {
	fg := buildFlowGraph(module)
	result := &Result[F]{Facts: map[ir.Handle]map[F]bool{}}

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
		if facts[fact] {
			return true
		}
		facts[fact] = true
		return false
	}

	summaries := map[explorationKey[F]]map[F]bool{}
	consumers := map[explorationKey[F]][]consumer[F]{}

	var worklist []item[F]
	enqueue := func(key explorationKey[F], inst ir.Instruction, fact F) {
		if seen(key, inst, fact) {
			return
		}
		result.record(inst.Handle(), fact)
		worklist = append(worklist, item[F]{key: key, inst: inst, fact: fact})
	}

	seedFunc := func(fn ir.Function) {
		entryInst, ok := fg.entryOf(fn)
		if !ok {
			return
		}
		key := explorationKey[F]{fn: fn.Name(), entry: p.Zero()}
		for _, f := range p.InitialFacts(fn) {
			enqueue(key, entryInst, f)
		}
	}

	if main, ok := module.FunctionByName("main"); ok {
		seedFunc(main)
	} else {
		for fn := range module.Functions() {
			seedFunc(fn)
		}
	}

	notifyExit := func(key explorationKey[F], exitFact F) {
		set := summaries[key]
		if set == nil {
			set = map[F]bool{}
			summaries[key] = set
		}
		if set[exitFact] {
			return
		}
		set[exitFact] = true

		for _, c := range consumers[key] {
			for _, ret := range p.ReturnFlow(c.call, c.callee, exitFact, c.callerFact) {
				for _, next := range fg.successors(c.call) {
					enqueue(c.callerKey, next, ret)
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
			return result, nil
		default:
		}
		if opts.StepBudget > 0 && steps >= opts.StepBudget {
			result.Incomplete = true
			result.Steps = steps
			return result, nil
		}

		it := worklist[0]
		worklist = worklist[1:]
		steps++
		if opts.ShowProgress && opts.Progress != nil {
			opts.Progress(steps)
		}

		inst := it.inst

		if inst.Kind() == ir.KindReturn {
			notifyExit(it.key, it.fact)
			continue
		}

		if inst.Kind() == ir.KindCall {
			for callee := range cg.Callees(inst) {
				calleeEntry, ok := fg.entryOf(callee)
				if !ok {
					continue
				}
				for _, entryFact := range p.CallFlow(inst, callee, it.fact) {
					calleeKey := explorationKey[F]{fn: callee.Name(), entry: entryFact}
					consumers[calleeKey] = append(consumers[calleeKey], consumer[F]{
						callerKey: it.key, call: inst, callee: callee, callerFact: it.fact,
					})
					if exits, ok := summaries[calleeKey]; ok {
						for exitFact := range exits {
							for _, ret := range p.ReturnFlow(inst, callee, exitFact, it.fact) {
								for _, next := range fg.successors(inst) {
									enqueue(it.key, next, ret)
								}
							}
						}
					}
					enqueue(calleeKey, calleeEntry, entryFact)
				}
			}
			for _, bypass := range p.CallToReturnFlow(inst, it.fact) {
				for _, next := range fg.successors(inst) {
					enqueue(it.key, next, bypass)
				}
			}
			continue
		}

		for _, out := range p.NormalFlow(inst, it.fact) {
			for _, next := range fg.successors(inst) {
				enqueue(it.key, next, out)
			}
		}
	}

	result.Steps = steps
	return result, nil
}
