package source

import (
	"iter"

	"github.com/viant/npaflow/ir"
)

// module is a lowered Go package set: every FuncDecl across every loaded
// file becomes one function, addressable by its declared name.
type module struct {
	funcs  []*function
	byName map[string]*function
}

func newModule() *module {
	return &module{byName: map[string]*function{}}
}

func (m *module) add(f *function) {
	m.funcs = append(m.funcs, f)
	// A name collision (two packages both declaring "init", or method names
	// shared across receiver types) keeps the first lowered function for
	// FunctionByName/CallFlow resolution — good enough for the CLI's
	// single-module analyses; qualifying by package+receiver is future work
	// were this adapter to grow beyond a CLI convenience.
	if _, exists := m.byName[f.name]; !exists {
		m.byName[f.name] = f
	}
}

func (m *module) Functions() iter.Seq[ir.Function] {
	return func(yield func(ir.Function) bool) {
		for _, f := range m.funcs {
			if !yield(f) {
				return
			}
		}
	}
}

func (m *module) FunctionByName(name string) (ir.Function, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// function is one lowered Go func/method declaration. The body is flattened
// into a single entry block in declaration order: if/for/switch bodies are
// walked and their statements appended to that same block rather than
// split into real successor blocks (see lowerer's doc comment in lower.go).
// blocks still holds every block a future multi-block lowering would add,
// without changing ir.Function's shape.
type function struct {
	name   string
	entry  *block
	blocks []*block
}

func (f *function) Name() string         { return f.name }
func (f *function) Entry() ir.BasicBlock { return f.entry }
func (f *function) Blocks() iter.Seq[ir.BasicBlock] {
	return func(yield func(ir.BasicBlock) bool) {
		for _, b := range f.blocks {
			if !yield(b) {
				return
			}
		}
	}
}

type block struct {
	handle ir.Handle
	insts  []*instruction
	preds  []*block
	succs  []*block
}

func (b *block) Handle() ir.Handle { return b.handle }

func (b *block) Terminator() ir.Instruction {
	if len(b.insts) == 0 {
		return nil
	}
	return b.insts[len(b.insts)-1]
}

func (b *block) Predecessors() iter.Seq[ir.BasicBlock] {
	return func(yield func(ir.BasicBlock) bool) {
		for _, p := range b.preds {
			if !yield(p) {
				return
			}
		}
	}
}

func (b *block) Successors() iter.Seq[ir.BasicBlock] {
	return func(yield func(ir.BasicBlock) bool) {
		for _, s := range b.succs {
			if !yield(s) {
				return
			}
		}
	}
}

func (b *block) Instructions() iter.Seq[ir.Instruction] {
	return func(yield func(ir.Instruction) bool) {
		for _, i := range b.insts {
			if !yield(i) {
				return
			}
		}
	}
}

type instruction struct {
	handle   ir.Handle
	kind     ir.InstructionKind
	operands []ir.Value
	loc      ir.DebugLoc
	hasLoc   bool
	callee   ir.Function
	indirect bool
}

func (i *instruction) Handle() ir.Handle        { return i.handle }
func (i *instruction) Kind() ir.InstructionKind { return i.kind }
func (i *instruction) Operands() []ir.Value     { return i.operands }
func (i *instruction) DebugLoc() (ir.DebugLoc, bool) {
	return i.loc, i.hasLoc
}
func (i *instruction) Callee() (ir.Function, bool) {
	if i.indirect || i.callee == nil {
		return nil, false
	}
	return i.callee, true
}
