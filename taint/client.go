package taint

import (
	"iter"

	"github.com/viant/npaflow/ifds"
	"github.com/viant/npaflow/ir"
)

// Finding is one taint violation: a tainted value or memory fact reaching a
// configured sink, recorded with enough for report.ToTaint to render it.
type Finding struct {
	Sink    ir.Instruction
	SinkPos Position
	Fact    Fact
}

// Client is a concrete ifds.Problem[Fact] instantiation: source/sink/pipe
// semantics live entirely in CallToReturnFlow (fired at every call
// regardless of which fact reaches it), value/memory propagation in
// NormalFlow (store/load via Oracle), and cross-function return-value
// taint in ReturnFlow. Findings accumulate as a side effect of solving,
// mirroring IFDSTaintAnalysisReporting.cpp's "trace as you go" shape (the
// .cpp body itself was not retrieved, only its header, so this is built
// from spec.md §4.5.4's "Reporting" paragraph directly).
type Client struct {
	Spec    *Spec
	Oracle  Oracle
	Findings []Finding
}

// NewClient builds a Client over spec, using oracle for alias resolution
// (IdentityOracle if nil).
func NewClient(spec *Spec, oracle Oracle) *Client {
	if oracle == nil {
		oracle = IdentityOracle{}
	}
	return &Client{Spec: spec, Oracle: oracle}
}

func (c *Client) Zero() Fact { return Fact{Kind: FactZero} }

func (c *Client) InitialFacts(ir.Function) []Fact { return []Fact{{Kind: FactZero}} }

func (c *Client) NormalFlow(inst ir.Instruction, fact Fact) []Fact {
	out := []Fact{fact}

	switch inst.Kind() {
	case ir.KindStore:
		ops := inst.Operands()
		if len(ops) < 2 {
			break
		}
		valueHandle, ptrHandle := ops[0].Handle, ops[1].Handle
		if fact.Kind == FactValue && fact.Value == valueHandle {
			for _, aliased := range c.Oracle.Aliases(ptrHandle) {
				out = append(out, Fact{Kind: FactMemory, Ptr: aliased})
			}
		}
	case ir.KindLoad:
		ops := inst.Operands()
		if len(ops) < 1 {
			break
		}
		ptrHandle := ops[0].Handle
		if fact.Kind == FactMemory {
			for _, aliased := range c.Oracle.Aliases(ptrHandle) {
				if aliased == fact.Ptr {
					out = append(out, Fact{Kind: FactValue, Value: inst.Handle()})
					break
				}
			}
		}
	}

	return out
}

// CallFlow propagates only the zero fact into a callee: this IR has no
// formal-parameter values distinct from the callee's own instructions, so
// actual argument taint cannot be mapped onto a formal parameter directly.
// Source/sink/pipe semantics for arguments are instead applied entirely at
// the call site by CallToReturnFlow, and taint generated deep inside a
// callee's own body reaches the caller through ReturnFlow when it flows to
// a return instruction — both paths this Client actually exercises.
func (c *Client) CallFlow(call ir.Instruction, callee ir.Function, fact Fact) []Fact {
	if fact.Kind == FactZero {
		return []Fact{fact}
	}
	return nil
}

// ReturnFlow maps a tainted value reaching one of callee's return
// instructions back onto call's own result value in the caller, and lets
// tainted memory facts (heap/global) survive a call unchanged.
func (c *Client) ReturnFlow(call ir.Instruction, callee ir.Function, exitFact, callerFact Fact) []Fact {
	switch exitFact.Kind {
	case FactMemory:
		return []Fact{exitFact}
	case FactValue:
		for block := range callee.Blocks() {
			for inst := range block.Instructions() {
				if inst.Kind() != ir.KindReturn {
					continue
				}
				for _, op := range inst.Operands() {
					if op.Handle == exitFact.Value {
						return []Fact{{Kind: FactValue, Value: call.Handle()}}
					}
				}
			}
		}
	}
	return nil
}

// CallToReturnFlow applies source/sink/pipe/ignore semantics and records
// Findings. Every fact bypasses the call unchanged (the default identity
// pass-through) in addition to whatever new taint a source/pipe directive
// introduces.
func (c *Client) CallToReturnFlow(call ir.Instruction, fact Fact) []Fact {
	out := []Fact{fact}

	callee, ok := call.Callee()
	if !ok || c.Spec == nil {
		return out
	}
	fs := c.Spec.FunctionSpec(callee.Name())
	if fs == nil || fs.Ignored {
		return out
	}

	args := call.Operands()

	if fact.Kind == FactZero {
		for _, pos := range fs.Sources {
			if pos.Kind == PosRet {
				out = append(out, Fact{Kind: FactValue, Value: call.Handle()})
			}
		}
	}

	for _, pos := range fs.Sinks {
		if factMatchesPosition(fact, pos, args) {
			c.Findings = append(c.Findings, Finding{Sink: call, SinkPos: pos, Fact: fact})
		}
	}

	for _, pipe := range fs.Pipes {
		if factMatchesPosition(fact, pipe.From, args) {
			out = append(out, factForPosition(pipe.To, call, args))
		}
	}

	return out
}

// factMatchesPosition reports whether fact is the taint the position
// descriptor names, given call's own argument list.
func factMatchesPosition(fact Fact, pos Position, args []ir.Value) bool {
	switch pos.Kind {
	case PosArg:
		if pos.Index < 0 || pos.Index >= len(args) {
			return false
		}
		return factMatchesArg(fact, args[pos.Index], pos.Deref)
	case PosAfterArg:
		for i := pos.Index; i < len(args); i++ {
			if factMatchesArg(fact, args[i], pos.Deref) {
				return true
			}
		}
		return false
	case PosRet:
		return false // a sink/pipe "from" never reads the call's own not-yet-existing result
	default:
		return false
	}
}

func factMatchesArg(fact Fact, arg ir.Value, deref bool) bool {
	if deref {
		return fact.Kind == FactMemory && fact.Ptr == arg.Handle
	}
	return fact.Kind == FactValue && fact.Value == arg.Handle
}

// factForPosition builds the new fact a pipe's "to" descriptor produces.
func factForPosition(pos Position, call ir.Instruction, args []ir.Value) Fact {
	switch pos.Kind {
	case PosRet:
		return Fact{Kind: FactValue, Value: call.Handle()}
	case PosArg:
		if pos.Index >= 0 && pos.Index < len(args) {
			if pos.Deref {
				return Fact{Kind: FactMemory, Ptr: args[pos.Index].Handle}
			}
			return Fact{Kind: FactValue, Value: args[pos.Index].Handle}
		}
	}
	return Fact{Kind: FactZero}
}

// CallGraph wraps an inner ifds.CallGraph, hiding callees the spec marks
// `ignore` so the solver never descends into their bodies — they are
// treated as opaque, matching TaintConfigManager::is_ignored's role of
// suppressing analysis of a function entirely.
type CallGraph struct {
	Spec  *Spec
	Inner ifds.CallGraph
}

func (g CallGraph) Callees(call ir.Instruction) iter.Seq[ir.Function] {
	return func(yield func(ir.Function) bool) {
		for callee := range g.Inner.Callees(call) {
			if g.Spec != nil && g.Spec.IsIgnored(callee.Name()) {
				continue
			}
			if !yield(callee) {
				return
			}
		}
	}
}
