// Package tree implements the tagged-variant tree that carries layer state,
// activations and shape descriptors through nested composition.
//
// A Tree is one of three kinds:
//   - None: an absent value (a layer without trainables, for example)
//   - Leaf: a single value
//   - Node: an ordered list of child trees
//
// Children of a Node are addressed by position, so the state of every
// sub-layer stays individually reachable and is never flattened or merged
// into a sibling's.
package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Tree.
type Kind int

// Tree kinds.
const (
	KindNone Kind = iota
	KindLeaf
	KindNode
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindLeaf:
		return "leaf"
	case KindNode:
		return "node"
	default:
		return "unknown"
	}
}

// Tree is an immutable tagged-variant tree of values of type T.
// The zero value is None.
type Tree[T any] struct {
	kind     Kind
	value    T
	children []Tree[T]
}

// None returns the absent tree.
func None[T any]() Tree[T] {
	return Tree[T]{}
}

// Leaf wraps a single value.
func Leaf[T any](v T) Tree[T] {
	return Tree[T]{kind: KindLeaf, value: v}
}

// Node builds an ordered node. The children slice is copied.
func Node[T any](children ...Tree[T]) Tree[T] {
	c := make([]Tree[T], len(children))
	copy(c, children)
	return Tree[T]{kind: KindNode, children: c}
}

// Kind returns the variant tag.
func (t Tree[T]) Kind() Kind { return t.kind }

// IsNone reports whether t is absent.
func (t Tree[T]) IsNone() bool { return t.kind == KindNone }

// IsLeaf reports whether t holds a single value.
func (t Tree[T]) IsLeaf() bool { return t.kind == KindLeaf }

// IsNode reports whether t holds children.
func (t Tree[T]) IsNode() bool { return t.kind == KindNode }

// Value returns the leaf value. Panics if t is not a leaf.
func (t Tree[T]) Value() T {
	if t.kind != KindLeaf {
		panic(fmt.Sprintf("tree: Value called on %s", t.kind))
	}
	return t.value
}

// Len returns the number of children of a node, and 0 otherwise.
func (t Tree[T]) Len() int {
	return len(t.children)
}

// Child returns the i-th child. Panics if t is not a node or i is out of range.
func (t Tree[T]) Child(i int) Tree[T] {
	if t.kind != KindNode {
		panic(fmt.Sprintf("tree: Child called on %s", t.kind))
	}
	if i < 0 || i >= len(t.children) {
		panic(fmt.Sprintf("tree: child %d out of range for node with %d children", i, len(t.children)))
	}
	return t.children[i]
}

// Children returns a copy of the children of a node.
func (t Tree[T]) Children() []Tree[T] {
	c := make([]Tree[T], len(t.children))
	copy(c, t.children)
	return c
}

// With returns a copy of node t with child i replaced.
func (t Tree[T]) With(i int, child Tree[T]) Tree[T] {
	_ = t.Child(i)
	c := t.Children()
	c[i] = child
	return Tree[T]{kind: KindNode, children: c}
}

// Leaves returns every leaf value in depth-first order.
func (t Tree[T]) Leaves() []T {
	var out []T
	t.walk(nil, func(_ []int, v T) { out = append(out, v) })
	return out
}

// Entry is a leaf value together with its positional path.
type Entry[T any] struct {
	Path  string // Child indices joined by dots, e.g. "0.1". Empty for a root leaf.
	Value T
}

// Flatten returns every leaf with its path in depth-first order.
func (t Tree[T]) Flatten() []Entry[T] {
	var out []Entry[T]
	t.walk(nil, func(path []int, v T) {
		out = append(out, Entry[T]{Path: joinPath(path), Value: v})
	})
	return out
}

// Get returns the subtree at a path produced by Flatten.
func (t Tree[T]) Get(path string) (Tree[T], error) {
	if path == "" {
		return t, nil
	}
	cur := t
	for _, part := range strings.Split(path, ".") {
		i, err := strconv.Atoi(part)
		if err != nil {
			return Tree[T]{}, fmt.Errorf("tree: invalid path %q: %w", path, err)
		}
		if cur.kind != KindNode || i < 0 || i >= len(cur.children) {
			return Tree[T]{}, fmt.Errorf("tree: path %q does not exist", path)
		}
		cur = cur.children[i]
	}
	return cur, nil
}

func (t Tree[T]) walk(path []int, fn func(path []int, v T)) {
	switch t.kind {
	case KindLeaf:
		fn(path, t.value)
	case KindNode:
		for i, c := range t.children {
			c.walk(append(path[:len(path):len(path)], i), fn)
		}
	}
}

func joinPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// String renders the structure, e.g. "(leaf, (none, leaf))".
func (t Tree[T]) String() string {
	switch t.kind {
	case KindLeaf:
		return fmt.Sprintf("%v", t.value)
	case KindNode:
		parts := make([]string, len(t.children))
		for i, c := range t.children {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "none"
	}
}
