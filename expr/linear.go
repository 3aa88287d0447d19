package expr

import (
	"fmt"

	"github.com/viant/npaflow/domain"
)

type node1[V any, T any] struct {
	k     kind
	val   V      // Term / Seq constant / Call constant argument
	child NodeID // Seq tail / InfClos body
	left  NodeID // Cond then / Ndet left / Concat outer / Add,Sub left
	right NodeID // Cond else / Ndet right / Concat inner / Add,Sub right
	sym   Symbol // Call callee / Hole var / Concat var / InfClos var
	phi   T

	hasCache bool
	cacheGen uint64
	cache    V
}

// Linear holds a DAG of linear expressions E1<D>: the differential form
// used to drive one Newton step. It shares the E0 vocabulary plus Add/Sub.
type Linear[V any, T any] struct {
	dom   domain.Domain[V, T]
	nodes []node1[V, T]
	gen   uint64
}

// NewLinear creates an empty linear arena bound to a concrete domain.
func NewLinear[V any, T any](dom domain.Domain[V, T]) *Linear[V, T] {
	return &Linear[V, T]{dom: dom}
}

func (l *Linear[V, T]) push(n node1[V, T]) NodeID {
	l.nodes = append(l.nodes, n)
	return NodeID(len(l.nodes) - 1)
}

func (l *Linear[V, T]) Term(v V) NodeID { return l.push(node1[V, T]{k: Term, val: v}) }

func (l *Linear[V, T]) Seq(c V, tail NodeID) NodeID {
	return l.push(node1[V, T]{k: Seq, val: c, child: tail})
}

// Call is extend(Δ[f], c) for a fixed constant c — the differential of a
// Call node pins the argument to its already-evaluated base value, per
// SPEC_FULL.md §4.2.2.
func (l *Linear[V, T]) Call(f Symbol, c V) NodeID {
	return l.push(node1[V, T]{k: Call, sym: f, val: c})
}

func (l *Linear[V, T]) Cond(phi T, then, els NodeID) NodeID {
	return l.push(node1[V, T]{k: Cond, phi: phi, left: then, right: els})
}

func (l *Linear[V, T]) Ndet(x, y NodeID) NodeID {
	return l.push(node1[V, T]{k: Ndet, left: x, right: y})
}

func (l *Linear[V, T]) Hole(x Symbol) NodeID { return l.push(node1[V, T]{k: Hole, sym: x}) }

func (l *Linear[V, T]) Concat(outer NodeID, x Symbol, inner NodeID) NodeID {
	return l.push(node1[V, T]{k: Concat, sym: x, left: outer, right: inner})
}

func (l *Linear[V, T]) InfClos(body NodeID, x Symbol) NodeID {
	return l.push(node1[V, T]{k: InfClos, sym: x, child: body})
}

// Add is combine(eval(x), eval(y)).
func (l *Linear[V, T]) Add(x, y NodeID) NodeID {
	return l.push(node1[V, T]{k: Add, left: x, right: y})
}

// Sub is subtract(eval(x), eval(y)); only meaningful for non-idempotent
// domains.
func (l *Linear[V, T]) Sub(x, y NodeID) NodeID {
	return l.push(node1[V, T]{k: Sub, left: x, right: y})
}

// EvalLinear computes eval(root) under the Δ binding nu (keyed by equation
// or hole symbol, interchangeably — see SPEC_FULL.md §3).
func EvalLinear[V any, T any](l *Linear[V, T], nu map[Symbol]V, root NodeID) (V, error) {
	l.gen++
	env := map[Symbol]V{}
	return l.eval(nu, env, root)
}

func (l *Linear[V, T]) eval(nu, env map[Symbol]V, id NodeID) (V, error) {
	n := &l.nodes[id]
	if n.hasCache && n.cacheGen == l.gen {
		return n.cache, nil
	}
	var zero V
	var v V
	switch n.k {
	case Term:
		v = n.val
	case Seq:
		tail, err := l.eval(nu, env, n.child)
		if err != nil {
			return zero, err
		}
		v = l.dom.Extend(n.val, tail)
	case Call:
		fv, ok := nu[n.sym]
		if !ok {
			return zero, &ErrUnbound{Symbol: n.sym, Node: id, ForCall: true}
		}
		v = l.dom.Extend(fv, n.val)
	case Cond:
		t, err := l.eval(nu, env, n.left)
		if err != nil {
			return zero, err
		}
		e, err := l.eval(nu, env, n.right)
		if err != nil {
			return zero, err
		}
		v = l.dom.CondCombine(n.phi, t, e)
	case Add:
		a, err := l.eval(nu, env, n.left)
		if err != nil {
			return zero, err
		}
		b, err := l.eval(nu, env, n.right)
		if err != nil {
			return zero, err
		}
		v = l.dom.Combine(a, b)
	case Sub:
		a, err := l.eval(nu, env, n.left)
		if err != nil {
			return zero, err
		}
		b, err := l.eval(nu, env, n.right)
		if err != nil {
			return zero, err
		}
		v = l.dom.Subtract(a, b)
	case Ndet:
		x, err := l.eval(nu, env, n.left)
		if err != nil {
			return zero, err
		}
		y, err := l.eval(nu, env, n.right)
		if err != nil {
			return zero, err
		}
		v = l.dom.NdetCombine(x, y)
	case Hole:
		bv, ok := env[n.sym]
		if !ok {
			bv, ok = nu[n.sym]
			if !ok {
				return zero, &ErrUnbound{Symbol: n.sym, Node: id}
			}
		}
		v = bv
	case Concat:
		inner, err := l.eval(nu, env, n.right)
		if err != nil {
			return zero, err
		}
		env2 := cloneEnv(env)
		env2[n.sym] = inner
		outer, err := l.eval(nu, env2, n.left)
		if err != nil {
			return zero, err
		}
		v = outer
	case InfClos:
		cur := l.dom.Zero()
		for {
			env2 := cloneEnv(env)
			env2[n.sym] = cur
			l.gen++
			nxt, err := l.eval(nu, env2, n.child)
			if err != nil {
				return zero, err
			}
			if l.dom.Equal(cur, nxt) {
				v = nxt
				break
			}
			cur = nxt
		}
	default:
		return zero, fmt.Errorf("expr: linear arena has no %s node", n.k)
	}
	n.cache = v
	n.cacheGen = l.gen
	n.hasCache = true
	return v, nil
}

// Dependencies returns the set of hole/call/concat/infclos symbols that
// root (transitively) reads from nu or env — the worklist linear solver's
// dependency set, grounded on original_source's DepFinder.
func Dependencies[V any, T any](l *Linear[V, T], root NodeID) map[Symbol]bool {
	deps := map[Symbol]bool{}
	var walk func(id NodeID)
	walk = func(id NodeID) {
		n := &l.nodes[id]
		switch n.k {
		case Hole:
			deps[n.sym] = true
		case Call:
			deps[n.sym] = true
		case Concat:
			deps[n.sym] = true
			walk(n.left)
			walk(n.right)
		case InfClos:
			deps[n.sym] = true
			walk(n.child)
		case Seq:
			walk(n.child)
		case Cond, Add, Sub, Ndet:
			walk(n.left)
			walk(n.right)
		}
	}
	walk(root)
	return deps
}
