// Package reachingdefs is the worked reaching-definitions client of
// interproc.Engine and domain.GenKill named in SPEC_FULL.md's testable
// properties: every ir.KindStore instruction in a module becomes one
// tracked definition (its own bit in a uint64 live-bitset fact), generalizing
// interproc/engine_test.go's single-hardcoded-bit rdTransfers/rdFacts into a
// reusable client over a whole module's store instructions.
//
// Grounded on original_source/include/Dataflow/NPA/Domains/GenKillDomain.h
// for the domain itself (package domain) and
// InterproceduralEngine.h for the two-phase shape this package configures
// (package interproc); classical reaching-definitions semantics (a store
// kills every other definition of the same variable, generates itself) are
// standard dataflow, not lifted from any single header.
package reachingdefs

import (
	"fmt"

	"github.com/viant/npaflow/domain"
	"github.com/viant/npaflow/interproc"
	"github.com/viant/npaflow/ir"
)

// maxDefinitions matches domain.GenKillValue's 64-bit cap.
const maxDefinitions = 64

// Definitions assigns one bit per tracked ir.KindStore instruction,
// grouping stores by the variable name their pointer operand carries (the
// `ir/source` store convention: operand 1 is `{Name: variable}`) so a
// store's Kill mask can cover every other definition of the same variable.
type Definitions struct {
	bitOf map[ir.Handle]uint
	names map[string][]uint
	// Truncated reports that the module has more than 64 stores; definitions
	// beyond the 64th are left untracked (Instruction returns the identity
	// transfer for them) rather than silently misreporting reach.
	Truncated bool
}

// Assign walks every function/block/instruction of m in iteration order and
// assigns each ir.KindStore instruction with a named target the next free
// bit, stopping at the 64-bit cap.
func Assign(m ir.Module) *Definitions {
	d := &Definitions{bitOf: map[ir.Handle]uint{}, names: map[string][]uint{}}
	var next uint
	for fn := range m.Functions() {
		for block := range fn.Blocks() {
			for inst := range block.Instructions() {
				if inst.Kind() != ir.KindStore {
					continue
				}
				ops := inst.Operands()
				if len(ops) < 2 || ops[1].Name == "" {
					continue
				}
				if next >= maxDefinitions {
					d.Truncated = true
					continue
				}
				d.bitOf[inst.Handle()] = next
				d.names[ops[1].Name] = append(d.names[ops[1].Name], next)
				next++
			}
		}
	}
	return d
}

// Reaches reports whether the definition at storeHandle is live in fact,
// and whether storeHandle was tracked at all (false, false for an
// instruction Assign never saw, or one dropped past the 64-bit cap).
func (d *Definitions) Reaches(fact uint64, storeHandle ir.Handle) (reaches, tracked bool) {
	bit, ok := d.bitOf[storeHandle]
	if !ok {
		return false, false
	}
	return fact&(1<<bit) != 0, true
}

func (d *Definitions) String() string {
	return fmt.Sprintf("reachingdefs.Definitions{tracked=%d, truncated=%v}", len(d.bitOf), d.Truncated)
}

// Transfers is the interproc.Transfers[domain.GenKillValue] client: a
// tracked store kills every other definition of its own variable and
// generates itself; everything else (including every call boundary) is the
// identity transfer, matching engine_test.go's rdTransfers shape — a
// callee's own definitions reach a caller through the callee's own
// Instruction() transfers during phase 1's summary solve, not through
// CallEntry/CallReturn/CallToReturn themselves.
type Transfers struct {
	Defs *Definitions
}

func (t Transfers) Instruction(inst ir.Instruction) domain.GenKillValue {
	bit, ok := t.Defs.bitOf[inst.Handle()]
	if !ok {
		return domain.GenKill{}.One()
	}
	name := inst.Operands()[1].Name
	var kill uint64
	for _, b := range t.Defs.names[name] {
		kill |= 1 << b
	}
	return domain.GenKillValue{Kill: kill, Gen: 1 << bit}
}

func (Transfers) CallEntry(ir.Instruction, ir.Function) domain.GenKillValue {
	return domain.GenKill{}.One()
}

func (Transfers) CallReturn(ir.Instruction, ir.Function) domain.GenKillValue {
	return domain.GenKill{}.One()
}

func (Transfers) CallToReturn(ir.Instruction) domain.GenKillValue {
	return domain.GenKill{}.One()
}

// Facts is the interproc.FactDomain[domain.GenKillValue, uint64] client: a
// fact is a live-definitions bitset, empty at every function entry.
type Facts struct{}

func (Facts) EntryValue() uint64 { return 0 }
func (Facts) ApplySummary(summary domain.GenKillValue, input uint64) uint64 {
	return summary.Apply(input)
}
func (Facts) JoinFacts(a, b uint64) uint64 { return a | b }
func (Facts) FactsEqual(a, b uint64) bool  { return a == b }

// Analyze assigns definitions over m and runs both phases of
// interproc.Engine, returning the assigned Definitions (for interpreting
// the result) alongside the per-block-context reaching-definitions facts.
func Analyze(m ir.Module, opts interproc.Options) (*Definitions, map[interproc.BlockContext]uint64, error) {
	defs := Assign(m)
	engine := &interproc.Engine[domain.GenKillValue, domain.Test, uint64]{
		Domain:    domain.GenKill{},
		Transfers: Transfers{Defs: defs},
		Facts:     Facts{},
		Options:   opts,
	}
	summaries, err := engine.Run(m)
	if err != nil {
		return defs, nil, err
	}
	facts, err := engine.Propagate(m, summaries, Facts{}.EntryValue())
	if err != nil {
		return defs, nil, err
	}
	return defs, facts, nil
}
