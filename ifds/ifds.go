// Package ifds implements the Reps-Horwitz-Sagiv IFDS/IDE tabulation
// algorithm over an implicitly-built exploded supergraph, per spec.md
// §4.5.1-§4.5.3 and §4.5.6 (no corresponding header survives in
// original_source — Dataflow/IFDS/IFDSFramework.h, included by both
// IFDSSolvers.h and the taint client header, was not retrieved, so the
// tabulation/summary-edge algorithm here is built directly from spec.md's
// prose description of the Reps-Horwitz-Sagiv method it names).
package ifds

import (
	"iter"

	"github.com/viant/npaflow/ir"
)

// Problem bundles a client's fact domain and four flow-function families,
// per spec.md §4.5.1.
type Problem[F comparable] interface {
	Zero() F
	InitialFacts(entry ir.Function) []F
	NormalFlow(stmt ir.Instruction, fact F) []F
	CallFlow(call ir.Instruction, callee ir.Function, fact F) []F
	ReturnFlow(call ir.Instruction, callee ir.Function, exitFact, callFact F) []F
	CallToReturnFlow(call ir.Instruction, fact F) []F
}

// CallGraph resolves the callee(s) reachable from a call instruction. The
// default DirectCallGraph reads ir.Instruction.Callee(), matching
// interproc's own call resolution; a precise points-to-based CallGraph can
// be substituted for indirect calls.
type CallGraph interface {
	Callees(call ir.Instruction) iter.Seq[ir.Function]
}

// DirectCallGraph resolves only the statically-known direct callee of a
// call instruction, yielding nothing for an indirect call, which the solver
// then crosses with CallToReturnFlow only.
type DirectCallGraph struct{}

func (DirectCallGraph) Callees(call ir.Instruction) iter.Seq[ir.Function] {
	return func(yield func(ir.Function) bool) {
		if callee, ok := call.Callee(); ok {
			yield(callee)
		}
	}
}

// Options configures Solve, per spec.md §6 "Configuration of IFDS/IDE".
type Options struct {
	ShowProgress bool
	// Progress, when set, is invoked every N worklist pops when ShowProgress
	// is set (N implementation-defined; currently every pop).
	Progress func(step int)
	// StepBudget caps total worklist pops; <=0 means unbounded.
	StepBudget int
}

// Result is Solve's output: the facts reached at each instruction, flattened
// across every call-context exploration that reached it (per spec.md §8
// property 6, a single (stmt,fact) result set regardless of how many
// distinct paths produced it), plus partial-result flags.
type Result[F comparable] struct {
	// Facts maps an instruction handle to the set of facts reached there.
	Facts map[ir.Handle]map[F]bool
	Steps int
	// Incomplete is set when StepBudget was exhausted.
	Incomplete bool
	// Cancelled is set when ctx was done before StepBudget was exhausted.
	Cancelled bool
}

// Reached reports whether fact was reached at the instruction with handle h.
func (r *Result[F]) Reached(h ir.Handle, fact F) bool {
	facts, ok := r.Facts[h]
	if !ok {
		return false
	}
	return facts[fact]
}

func (r *Result[F]) record(h ir.Handle, fact F) bool {
	facts := r.Facts[h]
	if facts == nil {
		facts = map[F]bool{}
		r.Facts[h] = facts
	}
	if facts[fact] {
		return false
	}
	facts[fact] = true
	return true
}
