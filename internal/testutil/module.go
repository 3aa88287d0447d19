// Package testutil builds small in-memory ir.Module fixtures for tests
// across the icfg/interproc/ifds/pdg/slice packages, standing in for a real
// ir/source lowering of parsed Go.
package testutil

import (
	"iter"

	"github.com/viant/npaflow/ir"
)

// Module is a hand-assembled ir.Module: a flat list of functions, looked up
// by name.
type Module struct {
	funcs []*Function
	byName map[string]*Function
}

// NewModule returns an empty Module; use AddFunction to populate it.
func NewModule() *Module {
	return &Module{byName: map[string]*Function{}}
}

func (m *Module) AddFunction(f *Function) {
	m.funcs = append(m.funcs, f)
	m.byName[f.name] = f
}

func (m *Module) Functions() iter.Seq[ir.Function] {
	return func(yield func(ir.Function) bool) {
		for _, f := range m.funcs {
			if !yield(f) {
				return
			}
		}
	}
}

func (m *Module) FunctionByName(name string) (ir.Function, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Function is a hand-assembled ir.Function.
type Function struct {
	name   string
	entry  *Block
	blocks []*Block
}

// NewFunction creates a Function named name with no blocks yet; call
// AddBlock to populate, the first added block becomes Entry().
func NewFunction(name string) *Function {
	return &Function{name: name}
}

func (f *Function) AddBlock(b *Block) {
	if f.entry == nil {
		f.entry = b
	}
	f.blocks = append(f.blocks, b)
}

func (f *Function) Name() string    { return f.name }
func (f *Function) Entry() ir.BasicBlock {
	if f.entry == nil {
		return nil
	}
	return f.entry
}
func (f *Function) Blocks() iter.Seq[ir.BasicBlock] {
	return func(yield func(ir.BasicBlock) bool) {
		for _, b := range f.blocks {
			if !yield(b) {
				return
			}
		}
	}
}

// Block is a hand-assembled ir.BasicBlock.
type Block struct {
	handle ir.Handle
	insts  []*Inst
	preds  []*Block
	succs  []*Block
}

// NewBlock creates a Block with a stable Handle unique within the Module
// being built (the caller is responsible for handing out distinct handles).
func NewBlock(handle ir.Handle) *Block {
	return &Block{handle: handle}
}

func (b *Block) AddInstruction(i *Inst) { b.insts = append(b.insts, i) }

func Link(from, to *Block) {
	from.succs = append(from.succs, to)
	to.preds = append(to.preds, from)
}

func (b *Block) Handle() ir.Handle { return b.handle }

func (b *Block) Terminator() ir.Instruction {
	if len(b.insts) == 0 {
		return nil
	}
	return b.insts[len(b.insts)-1]
}

func (b *Block) Predecessors() iter.Seq[ir.BasicBlock] {
	return func(yield func(ir.BasicBlock) bool) {
		for _, p := range b.preds {
			if !yield(p) {
				return
			}
		}
	}
}

func (b *Block) Successors() iter.Seq[ir.BasicBlock] {
	return func(yield func(ir.BasicBlock) bool) {
		for _, s := range b.succs {
			if !yield(s) {
				return
			}
		}
	}
}

func (b *Block) Instructions() iter.Seq[ir.Instruction] {
	return func(yield func(ir.Instruction) bool) {
		for _, i := range b.insts {
			if !yield(i) {
				return
			}
		}
	}
}

// Inst is a hand-assembled ir.Instruction.
type Inst struct {
	handle   ir.Handle
	kind     ir.InstructionKind
	operands []ir.Value
	loc      ir.DebugLoc
	hasLoc   bool
	callee   ir.Function
	indirect bool
}

// NewInst creates an Inst with a stable Handle, InstructionKind, and
// operand list.
func NewInst(handle ir.Handle, kind ir.InstructionKind, operands ...ir.Value) *Inst {
	return &Inst{handle: handle, kind: kind, operands: operands}
}

func (i *Inst) WithLoc(file string, line, col int) *Inst {
	i.loc = ir.DebugLoc{File: file, Line: line, Col: col}
	i.hasLoc = true
	return i
}

// WithCallee marks i as a direct call to callee. Skip this for indirect
// calls so Callee() reports ok=false.
func (i *Inst) WithCallee(callee ir.Function) *Inst {
	i.callee = callee
	return i
}

// WithIndirectCall marks i as an indirect call site with no known Callee.
func (i *Inst) WithIndirectCall() *Inst {
	i.indirect = true
	return i
}

func (i *Inst) Handle() ir.Handle        { return i.handle }
func (i *Inst) Kind() ir.InstructionKind { return i.kind }
func (i *Inst) Operands() []ir.Value     { return i.operands }

func (i *Inst) DebugLoc() (ir.DebugLoc, bool) { return i.loc, i.hasLoc }

func (i *Inst) Callee() (ir.Function, bool) {
	if i.callee == nil {
		return nil, false
	}
	return i.callee, true
}
