package expr

import (
	"fmt"

	"github.com/viant/npaflow/domain"
)

type node0[V any, T any] struct {
	k     kind
	val   V       // Term / Seq constant
	child NodeID  // Seq tail / Call arg / InfClos body
	left  NodeID  // Cond then / Ndet left / Concat outer
	right NodeID  // Cond else / Ndet right / Concat inner
	sym   Symbol  // Call callee / Hole var / Concat var / InfClos var
	phi   T       // Cond guard

	hasCache bool
	cacheGen uint64
	cache    V
}

// Arena holds a DAG of non-linear expressions E0<D> addressed by NodeID.
// Structural sharing is permitted: two nodes may reference the same child.
type Arena[V any, T any] struct {
	dom   domain.Domain[V, T]
	nodes []node0[V, T]
	gen   uint64
}

// NewArena creates an empty arena bound to a concrete domain instance.
func NewArena[V any, T any](dom domain.Domain[V, T]) *Arena[V, T] {
	return &Arena[V, T]{dom: dom}
}

func (a *Arena[V, T]) push(n node0[V, T]) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

// Term wraps a constant domain value.
func (a *Arena[V, T]) Term(v V) NodeID { return a.push(node0[V, T]{k: Term, val: v}) }

// Seq is extend(c, eval(tail)).
func (a *Arena[V, T]) Seq(c V, tail NodeID) NodeID {
	return a.push(node0[V, T]{k: Seq, val: c, child: tail})
}

// Call is extend(ν[f], eval(arg)).
func (a *Arena[V, T]) Call(f Symbol, arg NodeID) NodeID {
	return a.push(node0[V, T]{k: Call, sym: f, child: arg})
}

// Cond is condCombine(phi, eval(then), eval(els)).
func (a *Arena[V, T]) Cond(phi T, then, els NodeID) NodeID {
	return a.push(node0[V, T]{k: Cond, phi: phi, left: then, right: els})
}

// Ndet is ndetCombine(eval(x), eval(y)).
func (a *Arena[V, T]) Ndet(x, y NodeID) NodeID {
	return a.push(node0[V, T]{k: Ndet, left: x, right: y})
}

// Hole references a locally bound environment variable; only meaningful
// nested inside Concat/InfClos (or left dangling as a Newton differential
// formal, which is why Linear also defines Hole).
func (a *Arena[V, T]) Hole(x Symbol) NodeID { return a.push(node0[V, T]{k: Hole, sym: x}) }

// Concat evaluates outer under env[x] <- eval(inner).
func (a *Arena[V, T]) Concat(outer NodeID, x Symbol, inner NodeID) NodeID {
	return a.push(node0[V, T]{k: Concat, sym: x, left: outer, right: inner})
}

// InfClos is the least fixed point μc. eval(body | env[x] <- c), starting
// at zero and iterating until the domain's Equal converges.
func (a *Arena[V, T]) InfClos(body NodeID, x Symbol) NodeID {
	return a.push(node0[V, T]{k: InfClos, sym: x, child: body})
}

// ErrUnbound is returned when evaluation reaches a Hole or Call whose
// symbol has no binding, per SPEC_FULL.md §4.2.1 "fatal error".
type ErrUnbound struct {
	Symbol Symbol
	Node   NodeID
	ForCall bool
}

func (e *ErrUnbound) Error() string {
	kind := "hole"
	if e.ForCall {
		kind = "call target"
	}
	return fmt.Sprintf("expr: unbound %s %q at node %d", kind, e.Symbol, e.Node)
}

// Eval computes eval(root) under the symbol binding nu, in a fresh
// evaluation epoch. Node caches from a previous Eval/Differentiate call on
// the same arena are invalidated transitively by bumping the arena's
// generation counter — the Go-native replacement for the source's explicit
// "mark all dirty" pass.
func Eval[V any, T any](a *Arena[V, T], nu map[Symbol]V, root NodeID) (V, error) {
	a.gen++
	env := map[Symbol]V{}
	return a.eval(nu, env, root)
}

func (a *Arena[V, T]) eval(nu, env map[Symbol]V, id NodeID) (V, error) {
	n := &a.nodes[id]
	if n.hasCache && n.cacheGen == a.gen {
		return n.cache, nil
	}
	var zero V
	var v V
	switch n.k {
	case Term:
		v = n.val
	case Seq:
		tail, err := a.eval(nu, env, n.child)
		if err != nil {
			return zero, err
		}
		v = a.dom.Extend(n.val, tail)
	case Call:
		fv, ok := nu[n.sym]
		if !ok {
			return zero, &ErrUnbound{Symbol: n.sym, Node: id, ForCall: true}
		}
		av, err := a.eval(nu, env, n.child)
		if err != nil {
			return zero, err
		}
		v = a.dom.Extend(fv, av)
	case Cond:
		t, err := a.eval(nu, env, n.left)
		if err != nil {
			return zero, err
		}
		e, err := a.eval(nu, env, n.right)
		if err != nil {
			return zero, err
		}
		v = a.dom.CondCombine(n.phi, t, e)
	case Ndet:
		x, err := a.eval(nu, env, n.left)
		if err != nil {
			return zero, err
		}
		y, err := a.eval(nu, env, n.right)
		if err != nil {
			return zero, err
		}
		v = a.dom.NdetCombine(x, y)
	case Hole:
		bv, ok := env[n.sym]
		if !ok {
			return zero, &ErrUnbound{Symbol: n.sym, Node: id}
		}
		v = bv
	case Concat:
		inner, err := a.eval(nu, env, n.right)
		if err != nil {
			return zero, err
		}
		env2 := cloneEnv(env)
		env2[n.sym] = inner
		outer, err := a.eval(nu, env2, n.left)
		if err != nil {
			return zero, err
		}
		v = outer
	case InfClos:
		cur := a.dom.Zero()
		for {
			env2 := cloneEnv(env)
			env2[n.sym] = cur
			a.gen++ // re-mark dirty: body must be recomputed under the new binding
			nxt, err := a.eval(nu, env2, n.child)
			if err != nil {
				return zero, err
			}
			if a.dom.Equal(cur, nxt) {
				v = nxt
				break
			}
			cur = nxt
		}
	default:
		return zero, fmt.Errorf("expr: non-linear arena has no %s node", n.k)
	}
	n.cache = v
	n.cacheGen = a.gen
	n.hasCache = true
	return v, nil
}

func cloneEnv[V any](env map[Symbol]V) map[Symbol]V {
	out := make(map[Symbol]V, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	return out
}
