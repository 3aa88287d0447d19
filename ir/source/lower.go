package source

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/npaflow/ir"
)

// lowerer walks tree-sitter Go parse trees and emits ir.Handle-addressable
// instructions into a module built up across every file of a package tree.
//
// Real Go control flow (if/for/switch/select) is flattened: every
// function's body lowers into its single entry block, in declaration
// order, rather than a real multi-block CFG with branch edges. This is a
// deliberate scope limit for an adapter only the CLI uses — pdg.Build's
// control-dependence edges (block-successor based) and icfg's
// intra-procedural edges see no inter-block edges on a single-block
// function. Loads and stores of one variable name all reference the same
// variable-name-keyed NodeGlobal node, but pdg.Build adds edges only from
// that node into each load and store, none from a store into it, so the
// PDG has no data path from a store of a variable to a later load of it.
type lowerer struct {
	module     *module
	funcByNode map[*sitter.Node]*function
	curBlock   *block
	curSrc     []byte
	nextHandle ir.Handle
}

func (l *lowerer) handle() ir.Handle {
	l.nextHandle++
	return l.nextHandle
}

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// declareFuncs registers one function (with an empty entry block) per
// function_declaration/method_declaration in root, before any body is
// lowered, so calls to functions declared later (in this file or a sibling
// file) still resolve — mirrors inspector_tree_sitter.go's two-pass
// "collect nodes, then process" query shape.
func (l *lowerer) declareFuncs(root *sitter.Node, src []byte) {
	if l.funcByNode == nil {
		l.funcByNode = map[*sitter.Node]*function{}
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		switch decl.Type() {
		case "function_declaration", "method_declaration":
			name := declName(decl, src)
			fn := &function{name: name}
			b := &block{handle: l.handle()}
			fn.entry = b
			fn.blocks = []*block{b}
			l.funcByNode[decl] = fn
			l.module.add(fn)
		}
	}
}

func declName(decl *sitter.Node, src []byte) string {
	name := text(decl.ChildByFieldName("name"), src)
	if decl.Type() != "method_declaration" {
		return name
	}
	recv := decl.ChildByFieldName("receiver")
	recvType := receiverTypeName(recv, src)
	if recvType == "" {
		return name
	}
	return recvType + "." + name
}

// receiverTypeName extracts "T" from a method receiver "(t *T)"/"(t T)".
func receiverTypeName(recv *sitter.Node, src []byte) string {
	if recv == nil {
		return ""
	}
	for _, param := range namedChildren(recv) {
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		if typeNode.Type() == "pointer_type" {
			typeNode = typeNode.NamedChild(0)
		}
		if typeNode != nil {
			return text(typeNode, src)
		}
	}
	return ""
}

// lowerFile emits instructions for every declared function's body in root.
func (l *lowerer) lowerFile(root *sitter.Node, src []byte) {
	l.curSrc = src
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		fn, ok := l.funcByNode[decl]
		if !ok {
			continue
		}
		body := decl.ChildByFieldName("body")
		if body == nil {
			continue
		}
		l.curBlock = fn.entry
		for _, stmt := range namedChildren(body) {
			l.lowerStmt(stmt)
		}
	}
}

func (l *lowerer) emit(inst *instruction) *instruction {
	l.curBlock.insts = append(l.curBlock.insts, inst)
	return inst
}

func (l *lowerer) debugLoc(n *sitter.Node) (ir.DebugLoc, bool) {
	if n == nil {
		return ir.DebugLoc{}, false
	}
	pt := n.StartPoint()
	return ir.DebugLoc{Line: int(pt.Row) + 1, Col: int(pt.Column) + 1}, true
}

func (l *lowerer) lowerStmt(stmt *sitter.Node) {
	switch stmt.Type() {
	case "expression_statement":
		for _, child := range namedChildren(stmt) {
			l.lowerExpr(child)
		}
	case "short_var_declaration":
		l.lowerAssignLike(stmt.ChildByFieldName("left"), stmt.ChildByFieldName("right"))
	case "assignment_statement":
		l.lowerAssignLike(stmt.ChildByFieldName("left"), stmt.ChildByFieldName("right"))
	case "var_declaration", "const_declaration":
		l.lowerVarDecl(stmt)
	case "return_statement":
		l.lowerReturn(stmt)
	case "if_statement":
		if cond := stmt.ChildByFieldName("condition"); cond != nil {
			l.lowerExpr(cond)
		}
		if init := stmt.ChildByFieldName("initializer"); init != nil {
			l.lowerStmt(init)
		}
		if cons := stmt.ChildByFieldName("consequence"); cons != nil {
			for _, sub := range namedChildren(cons) {
				l.lowerStmt(sub)
			}
		}
		if alt := stmt.ChildByFieldName("alternative"); alt != nil {
			if alt.Type() == "block" {
				for _, sub := range namedChildren(alt) {
					l.lowerStmt(sub)
				}
			} else {
				l.lowerStmt(alt)
			}
		}
	case "for_statement":
		if cond := stmt.ChildByFieldName("condition"); cond != nil {
			l.lowerExpr(cond)
		}
		if body := stmt.ChildByFieldName("body"); body != nil {
			for _, sub := range namedChildren(body) {
				l.lowerStmt(sub)
			}
		}
	case "block":
		for _, sub := range namedChildren(stmt) {
			l.lowerStmt(sub)
		}
	case "expression_switch_statement", "type_switch_statement":
		for _, sub := range namedChildren(stmt) {
			if sub.Type() == "expression_case" || sub.Type() == "default_case" || sub.Type() == "type_case" {
				for _, caseStmt := range namedChildren(sub) {
					l.lowerStmt(caseStmt)
				}
			}
		}
	case "go_statement", "defer_statement":
		if call := stmt.NamedChild(0); call != nil {
			l.lowerExpr(call)
		}
	default:
		// Unmodeled statement kinds (select, labeled, branch/goto, send,
		// range) contribute no instruction; a CLI-convenience lowering need
		// not be exhaustive over every Go statement form.
	}
}

func (l *lowerer) lowerVarDecl(decl *sitter.Node) {
	for _, spec := range namedChildren(decl) {
		if spec.Type() != "var_spec" && spec.Type() != "const_spec" {
			continue
		}
		names := namedChildren(spec.ChildByFieldName("name"))
		if len(names) == 0 {
			if n := spec.ChildByFieldName("name"); n != nil {
				names = []*sitter.Node{n}
			}
		}
		value := spec.ChildByFieldName("value")
		var values []*sitter.Node
		if value != nil {
			values = namedChildren(value)
			if len(values) == 0 {
				values = []*sitter.Node{value}
			}
		}
		for i, nameNode := range names {
			var rhs ir.Value
			if i < len(values) {
				rhs = l.lowerExpr(values[i])
			} else {
				rhs = ir.Value{Name: "zero"}
			}
			l.store(text(nameNode, l.curSrc), rhs, nameNode)
		}
	}
}

func (l *lowerer) lowerAssignLike(left, right *sitter.Node) {
	lhsNodes := namedChildren(left)
	if len(lhsNodes) == 0 && left != nil {
		lhsNodes = []*sitter.Node{left}
	}
	rhsNodes := namedChildren(right)
	if len(rhsNodes) == 0 && right != nil {
		rhsNodes = []*sitter.Node{right}
	}

	for i, lhs := range lhsNodes {
		name := text(lhs, l.curSrc)
		if lhs.Type() != "identifier" || name == "_" {
			if i < len(rhsNodes) {
				l.lowerExpr(rhsNodes[i])
			}
			continue
		}
		var rhs ir.Value
		switch {
		case i < len(rhsNodes):
			rhs = l.lowerExpr(rhsNodes[i])
		case len(rhsNodes) == 1:
			// multi-value call result (a, b := f()); every LHS reads the
			// same producing instruction.
			rhs = l.lowerExpr(rhsNodes[0])
		default:
			rhs = ir.Value{Name: "zero"}
		}
		l.store(name, rhs, lhs)
	}
}

func (l *lowerer) store(name string, value ir.Value, at *sitter.Node) *instruction {
	loc, hasLoc := l.debugLoc(at)
	return l.emit(&instruction{
		handle:   l.handle(),
		kind:     ir.KindStore,
		operands: []ir.Value{value, {Name: name}},
		loc:      loc,
		hasLoc:   hasLoc,
	})
}

func (l *lowerer) load(name string, at *sitter.Node) ir.Value {
	loc, hasLoc := l.debugLoc(at)
	inst := l.emit(&instruction{
		handle:   l.handle(),
		kind:     ir.KindLoad,
		operands: []ir.Value{{Name: name}},
		loc:      loc,
		hasLoc:   hasLoc,
	})
	return ir.Value{Handle: inst.handle}
}

func (l *lowerer) lowerReturn(stmt *sitter.Node) {
	// return_statement wraps its results in a single expression_list child
	// (absent for a bare "return").
	var results []*sitter.Node
	if stmt.NamedChildCount() > 0 {
		list := stmt.NamedChild(0)
		if list.Type() == "expression_list" {
			results = namedChildren(list)
		} else {
			results = []*sitter.Node{list}
		}
	}
	operands := make([]ir.Value, 0, len(results))
	for _, res := range results {
		operands = append(operands, l.lowerExpr(res))
	}
	loc, hasLoc := l.debugLoc(stmt)
	l.emit(&instruction{
		handle:   l.handle(),
		kind:     ir.KindReturn,
		operands: operands,
		loc:      loc,
		hasLoc:   hasLoc,
	})
}

// lowerExpr lowers expr to the ir.Value that represents its result,
// emitting Load/Call/BinOp instructions as needed for side effects the
// dataflow engines must see.
func (l *lowerer) lowerExpr(expr *sitter.Node) ir.Value {
	if expr == nil {
		return ir.Value{Name: "zero"}
	}
	src := l.curSrc
	switch expr.Type() {
	case "identifier":
		name := text(expr, src)
		if name == "_" || name == "nil" || name == "true" || name == "false" {
			return ir.Value{Name: name}
		}
		return l.load(name, expr)
	case "int_literal", "float_literal", "imaginary_literal", "rune_literal",
		"interpreted_string_literal", "raw_string_literal":
		return ir.Value{Name: "const"}
	case "parenthesized_expression":
		return l.lowerExpr(expr.NamedChild(0))
	case "unary_expression":
		return l.lowerExpr(expr.ChildByFieldName("operand"))
	case "selector_expression":
		// x.Field / pkg.Sym: treated as a read of a synthetic name keyed by
		// the selector alone — qualifying by receiver/package would need a
		// real type model this lowering does not build.
		field := expr.ChildByFieldName("field")
		return l.load(text(field, src), expr)
	case "index_expression":
		base := l.lowerExpr(expr.ChildByFieldName("operand"))
		l.lowerExpr(expr.ChildByFieldName("index"))
		return base
	case "binary_expression":
		return l.lowerBinOp(expr)
	case "call_expression":
		return l.lowerCall(expr)
	case "composite_literal":
		if body := expr.ChildByFieldName("body"); body != nil {
			for _, elt := range namedChildren(body) {
				l.lowerExpr(elt)
			}
		}
		return ir.Value{Name: "composite"}
	case "keyed_element":
		return l.lowerExpr(expr.ChildByFieldName("value"))
	default:
		return ir.Value{Name: "expr"}
	}
}

func (l *lowerer) lowerBinOp(expr *sitter.Node) ir.Value {
	x := l.lowerExpr(expr.ChildByFieldName("left"))
	y := l.lowerExpr(expr.ChildByFieldName("right"))
	loc, hasLoc := l.debugLoc(expr)
	inst := l.emit(&instruction{
		handle:   l.handle(),
		kind:     ir.KindBinOp,
		operands: []ir.Value{x, y},
		loc:      loc,
		hasLoc:   hasLoc,
	})
	return ir.Value{Handle: inst.handle}
}

func (l *lowerer) lowerCall(expr *sitter.Node) ir.Value {
	funNode := expr.ChildByFieldName("function")
	name, indirect := calleeName(funNode, l.curSrc)

	var operands []ir.Value
	if args := expr.ChildByFieldName("arguments"); args != nil {
		for _, arg := range namedChildren(args) {
			operands = append(operands, l.lowerExpr(arg))
		}
	}

	var callee ir.Function
	resolved := false
	if !indirect {
		if fn, ok := l.module.FunctionByName(name); ok {
			callee, resolved = fn, true
		}
	}

	loc, hasLoc := l.debugLoc(expr)
	inst := l.emit(&instruction{
		handle:   l.handle(),
		kind:     ir.KindCall,
		operands: operands,
		loc:      loc,
		hasLoc:   hasLoc,
		callee:   callee,
		indirect: !resolved,
	})
	return ir.Value{Handle: inst.handle}
}

// calleeName extracts a best-effort function name from a call's function
// node; indirect reports true for calls this lowering cannot resolve to a
// declared name (a value held in a variable, a returned closure).
func calleeName(fun *sitter.Node, src []byte) (name string, indirect bool) {
	if fun == nil {
		return "", true
	}
	switch fun.Type() {
	case "identifier":
		return text(fun, src), false
	case "selector_expression":
		field := fun.ChildByFieldName("field")
		return text(field, src), false
	default:
		return fun.Type(), true
	}
}
