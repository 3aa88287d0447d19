package pdg

import "github.com/viant/npaflow/ir"

// formalKey identifies one (function, parameter-position) formal node.
type formalKey struct {
	fn  string
	pos int
}

// Build constructs a whole-program PDG from module: one NodeFunctionEntry
// per function, one NodeInstruction per instruction, NodeGlobal nodes for
// operands no instruction anywhere in module produces, and NodeActualIn
// /NodeActualOut / NodeFormalIn/NodeFormalOut nodes threading parameter and
// return-value flow across call edges, per PDGNode.h's Node/addNeighbor
// shape. Build never mutates shared state, so two calls on two modules (or
// the same module twice) return two independent graphs.
//
// Control dependence is approximated structurally: a block's terminator is
// control-dependent-producing for every instruction in every direct
// successor block. This is coarser than the original's dominance-frontier
// based GraphBuilder, sufficient for thin-slicing's exclusion of the whole
// control partition (package slice) and for chop/forward/backward queries
// that do not need precise minimal control dependence.
func Build(module ir.Module) (*Graph, error) {
	g := &Graph{instNode: map[ir.Handle]NodeID{}}

	globalNodes := map[string]NodeID{}
	globalNode := func(name string) NodeID {
		if id, ok := globalNodes[name]; ok {
			return id
		}
		id := g.addNode(Node{Kind: NodeGlobal, Name: name})
		globalNodes[name] = id
		return id
	}

	formalIn := map[formalKey]NodeID{}
	formalOut := map[string]NodeID{}
	funcEntry := map[string]NodeID{}

	// Pass 1: create function-entry, formal-out, and every instruction node,
	// and record which instruction handle produced which value.
	valueNode := map[ir.Handle]NodeID{}
	for fn := range module.Functions() {
		funcEntry[fn.Name()] = g.addNode(Node{Kind: NodeFunctionEntry, Function: fn})
		formalOut[fn.Name()] = g.addNode(Node{Kind: NodeFormalOut, Function: fn, Name: fn.Name() + ".ret"})

		for block := range fn.Blocks() {
			for inst := range block.Instructions() {
				id := g.addNode(Node{Kind: NodeInstruction, Function: fn, Instruction: inst})
				g.instNode[inst.Handle()] = id
				valueNode[inst.Handle()] = id
			}
		}
	}

	// Pass 2: data edges from operand producers (or a global node) into each
	// instruction, plus call-site parameter-passing nodes/edges.
	for fn := range module.Functions() {
		for block := range fn.Blocks() {
			for inst := range block.Instructions() {
				dst := g.instNode[inst.Handle()]
				for pos, operand := range inst.Operands() {
					var src NodeID
					if producer, ok := valueNode[operand.Handle]; ok {
						src = producer
					} else {
						src = globalNode(operand.Name)
					}
					g.addEdge(Edge{From: src, To: dst, Kind: EdgeData, BasePointer: isBasePointerOperand(inst, pos)})
				}

				if inst.Kind() == ir.KindCall {
					callee, ok := inst.Callee()
					if !ok {
						continue
					}
					for pos, operand := range inst.Operands() {
						actualIn := g.addNode(Node{Kind: NodeActualIn, Function: fn, Instruction: inst})
						if producer, ok := valueNode[operand.Handle]; ok {
							g.addEdge(Edge{From: producer, To: actualIn, Kind: EdgeData})
						} else {
							g.addEdge(Edge{From: globalNode(operand.Name), To: actualIn, Kind: EdgeData})
						}
						key := formalKey{fn: callee.Name(), pos: pos}
						fi, ok := formalIn[key]
						if !ok {
							fi = g.addNode(Node{Kind: NodeFormalIn, Function: callee, Name: callee.Name()})
							formalIn[key] = fi
						}
						g.addEdge(Edge{From: actualIn, To: fi, Kind: EdgeParameterIn})
					}

					actualOut := g.addNode(Node{Kind: NodeActualOut, Function: fn, Instruction: inst})
					g.addEdge(Edge{From: formalOut[callee.Name()], To: actualOut, Kind: EdgeParameterOut})
					g.addEdge(Edge{From: actualOut, To: dst, Kind: EdgeData})
				}

				if inst.Kind() == ir.KindReturn {
					for _, operand := range inst.Operands() {
						if producer, ok := valueNode[operand.Handle]; ok {
							g.addEdge(Edge{From: producer, To: formalOut[fn.Name()], Kind: EdgeData})
						}
					}
				}
			}
		}

		// Control dependence: terminator of each block controls every
		// instruction in its direct successors.
		for block := range fn.Blocks() {
			term := block.Terminator()
			if term == nil {
				continue
			}
			termID, ok := g.instNode[term.Handle()]
			if !ok {
				continue
			}
			for succ := range block.Successors() {
				for inst := range succ.Instructions() {
					g.addEdge(Edge{From: termID, To: g.instNode[inst.Handle()], Kind: EdgeControl})
				}
			}
		}

		for range fn.Blocks() {
			// fn has at least one block; Entry() is safe to dereference.
			entry := fn.Entry()
			if entryID, ok := g.instNode[firstHandle(entry)]; ok {
				g.addEdge(Edge{From: funcEntry[fn.Name()], To: entryID, Kind: EdgeControl})
			}
			break
		}
	}

	return g, nil
}

// isBasePointerOperand reports whether operand position pos of inst is the
// pointer used to reach a memory location, as opposed to the value flowing
// through it — the distinction thin slicing (package slice) excludes.
// Convention: a store's operand 0 is the stored value and operand 1 is the
// pointer; a load's sole operand is the pointer; a getelementptr's operand 0
// is the base pointer and the rest are index values.
func isBasePointerOperand(inst ir.Instruction, pos int) bool {
	switch inst.Kind() {
	case ir.KindLoad:
		return pos == 0
	case ir.KindStore:
		return pos == 1
	case ir.KindGetElementPtr:
		return pos == 0
	default:
		return false
	}
}

func firstHandle(b ir.BasicBlock) ir.Handle {
	for inst := range b.Instructions() {
		return inst.Handle()
	}
	return 0
}
