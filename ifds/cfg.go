package ifds

import "github.com/viant/npaflow/ir"

// flowGraph precomputes, once per module, the intra- and inter-block
// successor-instruction relation Solve needs to propagate facts without
// re-walking blocks on every pop.
type flowGraph struct {
	next  map[ir.Handle][]ir.Instruction
	owner map[ir.Handle]ir.Function
	entry map[string]ir.Instruction
}

func buildFlowGraph(module ir.Module) *flowGraph {
	fg := &flowGraph{
		next:  map[ir.Handle][]ir.Instruction{},
		owner: map[ir.Handle]ir.Function{},
		entry: map[string]ir.Instruction{},
	}

	for fn := range module.Functions() {
		for block := range fn.Blocks() {
			var insts []ir.Instruction
			for inst := range block.Instructions() {
				insts = append(insts, inst)
				fg.owner[inst.Handle()] = fn
			}
			if len(insts) == 0 {
				continue
			}
			if block.Handle() == fn.Entry().Handle() {
				fg.entry[fn.Name()] = insts[0]
			}
			for i, inst := range insts {
				if i+1 < len(insts) {
					fg.next[inst.Handle()] = []ir.Instruction{insts[i+1]}
					continue
				}
				var succFirst []ir.Instruction
				for succ := range block.Successors() {
					for si := range succ.Instructions() {
						succFirst = append(succFirst, si)
						break
					}
				}
				fg.next[inst.Handle()] = succFirst
			}
		}
	}

	return fg
}

func (fg *flowGraph) successors(inst ir.Instruction) []ir.Instruction {
	return fg.next[inst.Handle()]
}

func (fg *flowGraph) entryOf(fn ir.Function) (ir.Instruction, bool) {
	inst, ok := fg.entry[fn.Name()]
	return inst, ok
}
