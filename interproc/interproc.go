// Package interproc implements the two-phase interprocedural engine (C4):
// phase 1 builds one NPA equation system over reachable (function, context)
// pairs and solves it for per-function/per-block summaries; phase 2
// propagates concrete facts top-down using those summaries, grounded on
// original_source/include/Dataflow/NPA/Engines/InterproceduralEngine.h.
package interproc

import (
	"fmt"

	"github.com/viant/npaflow/context"
	"github.com/viant/npaflow/domain"
	"github.com/viant/npaflow/expr"
	"github.com/viant/npaflow/ir"
	"github.com/viant/npaflow/npa"
)

// Transfers supplies the per-instruction and per-call-boundary domain
// values the engine folds into its NPA equations. Unlike
// InterproceduralEngine.h's template-dispatch defaulting to D::one() when an
// analysis doesn't override a hook, Go callers implement every method
// explicitly; a no-op transfer simply returns dom.One().
type Transfers[V any] interface {
	// Instruction returns the transfer value for a non-call instruction.
	Instruction(inst ir.Instruction) V
	// CallEntry returns the value applied when control enters callee at call.
	CallEntry(call ir.Instruction, callee ir.Function) V
	// CallReturn returns the value applied when control returns from callee to call.
	CallReturn(call ir.Instruction, callee ir.Function) V
	// CallToReturn returns the value applied across an external or indirect call.
	CallToReturn(call ir.Instruction) V
}

// FactDomain supplies phase 2's fact-propagation operations: projecting a
// phase-1 summary value onto an incoming fact, and joining/comparing facts
// at a callee's merge point.
type FactDomain[V any, F any] interface {
	EntryValue() F
	ApplySummary(summary V, input F) F
	JoinFacts(a, b F) F
	FactsEqual(a, b F) bool
}

// Options configures both phases.
type Options struct {
	// KCFA bounds call-string context depth; nil means context-insensitive
	// (every call site collapses to the empty context).
	KCFA *context.Table
	// Newton configures phase 1's equation solve.
	Newton npa.Options
}

// table defaults to 0-CFA (context-insensitive) when Options.KCFA is unset,
// matching InterproceduralEngine.h's default K=0 template parameter.
func (o Options) table() *context.Table {
	if o.KCFA != nil {
		return o.KCFA
	}
	return context.NewTable(0)
}

// Summaries holds phase 1's solved function-exit and block-exit values,
// keyed by the symbols the engine assigned internally.
type Summaries[V any] struct {
	Values map[expr.Symbol]V
}

// BlockContext identifies one (basic block, calling context) pair, the key
// phase 2 facts are reported against.
type BlockContext struct {
	Block ir.Handle
	Ctx   context.Context
}

// Engine runs the two-phase analysis for one domain/fact-domain pair.
type Engine[V any, T any, F any] struct {
	Domain    domain.Domain[V, T]
	Transfers Transfers[V]
	Facts     FactDomain[V, F]
	Options   Options
}

func blockSymbol(b ir.BasicBlock, cs context.Context) expr.Symbol {
	return expr.Symbol(fmt.Sprintf("blk#%d@%s", b.Handle(), cs.String()))
}

func funcSymbol(fn ir.Function, cs context.Context) expr.Symbol {
	return expr.Symbol(fmt.Sprintf("fn#%s@%s", fn.Name(), cs.String()))
}

func callSite(fn ir.Function, call ir.Instruction) context.Site {
	return context.Site(fmt.Sprintf("%s#%d", fn.Name(), call.Handle()))
}

type funcCtx struct {
	fn ir.Function
	cs context.Context
}

func (k funcCtx) key() string { return k.fn.Name() + "@" + k.cs.String() }
