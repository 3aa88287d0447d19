package expr

import "fmt"

// Differentiate builds the linear differential d(e) of the non-linear
// expression rooted at root, around the binding nu, per the product-rule
// construction in SPEC_FULL.md §4.2.2. It first evaluates root under nu so
// every visited sub-node's cached value is available to the differential
// builder (the "clone, eval once, read caches" sequencing from
// original_source's Diff<D>::build/aux — arena caching makes the explicit
// clone step unnecessary since Eval already refreshes every visited node's
// cache for this epoch).
func Differentiate[V any, T any](a *Arena[V, T], nu map[Symbol]V, root NodeID) (*Linear[V, T], NodeID, error) {
	if _, err := Eval(a, nu, root); err != nil {
		return nil, 0, err
	}
	l := NewLinear[V, T](a.dom)
	d, err := diffNode(a, l, nu, root)
	if err != nil {
		return nil, 0, err
	}
	return l, d, nil
}

func diffNode[V any, T any](a *Arena[V, T], l *Linear[V, T], nu map[Symbol]V, id NodeID) (NodeID, error) {
	n := &a.nodes[id]
	switch n.k {
	case Term:
		return l.Term(a.dom.Zero()), nil
	case Seq:
		dTail, err := diffNode(a, l, nu, n.child)
		if err != nil {
			return 0, err
		}
		return l.Seq(n.val, dTail), nil
	case Call:
		dArg, err := diffNode(a, l, nu, n.child)
		if err != nil {
			return 0, err
		}
		fv, ok := nu[n.sym]
		if !ok {
			return 0, &ErrUnbound{Symbol: n.sym, Node: id, ForCall: true}
		}
		left := l.Seq(fv, dArg)
		argNode := &a.nodes[n.child]
		if !argNode.hasCache {
			return 0, fmt.Errorf("expr: call argument at node %d not evaluated before differentiation", n.child)
		}
		right := l.Call(n.sym, argNode.cache)
		return l.Add(left, right), nil
	case Cond:
		d1, err := diffNode(a, l, nu, n.left)
		if err != nil {
			return 0, err
		}
		d2, err := diffNode(a, l, nu, n.right)
		if err != nil {
			return 0, err
		}
		return l.Cond(n.phi, d1, d2), nil
	case Ndet:
		a1, err := diffNode(a, l, nu, n.left)
		if err != nil {
			return 0, err
		}
		a2, err := diffNode(a, l, nu, n.right)
		if err != nil {
			return 0, err
		}
		leftNode, rightNode, selfNode := &a.nodes[n.left], &a.nodes[n.right], n
		if !leftNode.hasCache || !rightNode.hasCache || !selfNode.hasCache {
			return 0, fmt.Errorf("expr: Ndet branch at node %d not evaluated before differentiation", id)
		}
		aug1 := l.Add(l.Term(leftNode.cache), a1)
		aug2 := l.Add(l.Term(rightNode.cache), a2)
		augmented := l.Ndet(aug1, aug2)
		if a.dom.Idempotent() {
			return augmented, nil
		}
		return l.Sub(augmented, l.Term(selfNode.cache)), nil
	case Hole:
		return l.Hole(n.sym), nil
	case Concat:
		p1, err := diffNode(a, l, nu, n.left)
		if err != nil {
			return 0, err
		}
		p2, err := diffNode(a, l, nu, n.right)
		if err != nil {
			return 0, err
		}
		return l.Concat(p1, n.sym, p2), nil
	case InfClos:
		body, err := diffNode(a, l, nu, n.child)
		if err != nil {
			return 0, err
		}
		return l.InfClos(body, n.sym), nil
	default:
		return 0, fmt.Errorf("expr: cannot differentiate %s node", n.k)
	}
}
