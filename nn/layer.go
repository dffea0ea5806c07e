// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
)

// Core types.
type (
	// Value is a tree of tensors: a layer input, output or param set.
	Value = layer.Value
	// Desc is a tree of shapes describing a Value.
	Desc = layer.Desc
	// Params holds trainables and non-trainables.
	Params = layer.Params
	// Hyperparams is the frozen configuration of a set-up layer.
	Hyperparams = layer.Hyperparams
	// Layer is a configured layer bound to an input descriptor.
	Layer = layer.Layer
	// Blueprint is an unconfigured layer.
	Blueprint = layer.Blueprint
	// BlueprintFunc adapts a function to Blueprint.
	BlueprintFunc = layer.BlueprintFunc
)

// Combinator types.
type (
	SequentialLayer       = layer.SequentialLayer
	SequentialHyperparams = layer.SequentialHyperparams
	ParallelLayer         = layer.ParallelLayer
	ParallelHyperparams   = layer.ParallelHyperparams
	RecurrentLayer        = layer.RecurrentLayer
	RecurrentHyperparams  = layer.RecurrentHyperparams
)

// Errors returned by Setup, Init and Forward.
var (
	ErrInvalidDesc    = layer.ErrInvalidDesc
	ErrInvalidConfig  = layer.ErrInvalidConfig
	ErrChildCount     = layer.ErrChildCount
	ErrCarryMismatch  = layer.ErrCarryMismatch
	ErrParamsMismatch = layer.ErrParamsMismatch
	ErrInputMismatch  = layer.ErrInputMismatch
	ErrMissingKey     = layer.ErrMissingKey
)

// LeafDesc describes a single tensor.
func LeafDesc(shape tensor.Shape) Desc { return layer.LeafDesc(shape) }

// NodeDesc groups descriptors.
func NodeDesc(children ...Desc) Desc { return layer.NodeDesc(children...) }

// DescOf returns the descriptor of a value.
func DescOf(v Value) Desc { return layer.DescOf(v) }

// DescEqual compares descriptors.
func DescEqual(a, b Desc) bool { return layer.DescEqual(a, b) }

// SameHyperparams reports whether two layers share a configuration.
func SameHyperparams(a, b Hyperparams) bool { return layer.SameHyperparams(a, b) }

// Setup configures bp for in and initializes params from key.
func Setup(bp Blueprint, in Desc, key rng.Key) (Layer, Params, error) {
	return layer.Setup(bp, in, key)
}

// Apply runs a forward pass and returns params with the new non-trainables.
func Apply(l Layer, x Value, p Params, key rng.Key, inference bool) (Value, Params, error) {
	return layer.Apply(l, x, p, key, inference)
}

// FanOut assigns keys to children that need one.
func FanOut(key rng.Key, needs []bool) []rng.Key { return layer.FanOut(key, needs) }

// Sequential chains children, each consuming the previous output.
func Sequential(children ...Blueprint) Blueprint { return layer.Sequential(children...) }

// Parallel applies child i to child i of a Node input.
func Parallel(children ...Blueprint) Blueprint { return layer.Parallel(children...) }

// Recurrent scans cell over axis 0 of Node(xs, carry).
func Recurrent(cell Blueprint, reverse bool) Blueprint { return layer.Recurrent(cell, reverse) }
