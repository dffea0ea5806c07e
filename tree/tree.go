// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tree provides the nested containers that carry layer inputs,
// outputs and params.
//
// A Tree is None, a Leaf holding one value, or a Node holding an ordered list
// of children:
//
//	x := tree.Node(tree.Leaf(xs), tree.Leaf(mask))
//	for _, e := range x.Flatten() {
//	    fmt.Println(e.Path, e.Value.Shape()) // "0" [...], "1" [...]
//	}
package tree

import "github.com/born-ml/fnn/internal/tree"

// Tree is an immutable None, Leaf or Node.
type Tree[T any] = tree.Tree[T]

// Entry is a leaf with its dotted positional path.
type Entry[T any] = tree.Entry[T]

// Kind tells None, Leaf and Node apart.
type Kind = tree.Kind

// Tree kinds.
const (
	KindNone = tree.KindNone
	KindLeaf = tree.KindLeaf
	KindNode = tree.KindNode
)

// None returns the empty tree.
func None[T any]() Tree[T] { return tree.None[T]() }

// Leaf wraps a single value.
func Leaf[T any](v T) Tree[T] { return tree.Leaf(v) }

// Node groups children in order.
func Node[T any](children ...Tree[T]) Tree[T] { return tree.Node(children...) }

// Map applies fn to every leaf, keeping the structure.
func Map[T, U any](t Tree[T], fn func(T) U) Tree[U] { return tree.Map(t, fn) }

// MapErr is Map with a fallible function.
func MapErr[T, U any](t Tree[T], fn func(T) (U, error)) (Tree[U], error) { return tree.MapErr(t, fn) }

// SameStructure reports whether a and b have identical shapes of None, Leaf
// and Node.
func SameStructure[T, U any](a Tree[T], b Tree[U]) bool { return tree.SameStructure(a, b) }

// Equal compares structure and leaves.
func Equal[T any](a, b Tree[T], eq func(x, y T) bool) bool { return tree.Equal(a, b, eq) }

// Unflatten rebuilds structure with leaves taken in depth-first order.
func Unflatten[T, U any](structure Tree[T], leaves []U) (Tree[U], error) {
	return tree.Unflatten(structure, leaves)
}
