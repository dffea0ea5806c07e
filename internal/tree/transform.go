package tree

import "fmt"

// Map applies fn to every leaf, preserving structure.
func Map[T, U any](t Tree[T], fn func(T) U) Tree[U] {
	switch t.kind {
	case KindLeaf:
		return Leaf(fn(t.value))
	case KindNode:
		c := make([]Tree[U], len(t.children))
		for i, child := range t.children {
			c[i] = Map(child, fn)
		}
		return Tree[U]{kind: KindNode, children: c}
	default:
		return None[U]()
	}
}

// MapErr is Map with a fallible fn. The first error aborts the traversal.
func MapErr[T, U any](t Tree[T], fn func(T) (U, error)) (Tree[U], error) {
	switch t.kind {
	case KindLeaf:
		v, err := fn(t.value)
		if err != nil {
			return None[U](), err
		}
		return Leaf(v), nil
	case KindNode:
		c := make([]Tree[U], len(t.children))
		for i, child := range t.children {
			m, err := MapErr(child, fn)
			if err != nil {
				return None[U](), err
			}
			c[i] = m
		}
		return Tree[U]{kind: KindNode, children: c}, nil
	default:
		return None[U](), nil
	}
}

// SameStructure reports whether a and b have identical kinds and child counts
// at every position, ignoring leaf values.
func SameStructure[T, U any](a Tree[T], b Tree[U]) bool {
	if a.kind != b.kind || len(a.children) != len(b.children) {
		return false
	}
	for i := range a.children {
		if !SameStructure(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether a and b have the same structure and eq holds for
// every pair of corresponding leaves.
func Equal[T any](a, b Tree[T], eq func(x, y T) bool) bool {
	if !SameStructure(a, b) {
		return false
	}
	av, bv := a.Leaves(), b.Leaves()
	for i := range av {
		if !eq(av[i], bv[i]) {
			return false
		}
	}
	return true
}

// Unflatten rebuilds a tree shaped like structure from leaves in depth-first
// order.
func Unflatten[T, U any](structure Tree[T], leaves []U) (Tree[U], error) {
	i := 0
	out := Map(structure, func(T) U {
		var zero U
		if i >= len(leaves) {
			i++
			return zero
		}
		v := leaves[i]
		i++
		return v
	})
	if i != len(leaves) {
		return None[U](), fmt.Errorf("tree: structure has %d leaves, got %d values", i, len(leaves))
	}
	return out, nil
}
