// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the CPU tensor engine used by fnn layers.
//
// Tensors are immutable float64 arrays in row-major order. Operations return
// new tensors and panic on shape errors; layers validate their inputs before
// calling into the engine.
//
//	x := tensor.MustFromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
//	y := x.MatMul(x.Transpose()).AddScalar(1)
package tensor

import "github.com/born-ml/fnn/internal/tensor"

// Tensor is an immutable n-dimensional float64 array.
type Tensor = tensor.Tensor

// Shape is a list of dimension sizes.
type Shape = tensor.Shape

// FromSlice wraps data with the given shape.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// MustFromSlice is FromSlice that panics on a size mismatch.
func MustFromSlice(data []float64, shape Shape) *Tensor {
	return tensor.MustFromSlice(data, shape)
}

// Zeros returns a tensor of zeros.
func Zeros(shape Shape) *Tensor { return tensor.Zeros(shape) }

// Ones returns a tensor of ones.
func Ones(shape Shape) *Tensor { return tensor.Ones(shape) }

// Full returns a tensor filled with value.
func Full(shape Shape, value float64) *Tensor { return tensor.Full(shape, value) }

// Scalar returns a rank-0 tensor.
func Scalar(value float64) *Tensor { return tensor.Scalar(value) }

// Concat joins tensors along axis.
func Concat(axis int, ts ...*Tensor) *Tensor { return tensor.Concat(axis, ts...) }

// Stack joins tensors of shape elem along a new leading axis.
func Stack(elem Shape, ts []*Tensor) *Tensor { return tensor.Stack(elem, ts) }

// Where selects from x where cond is non-zero and from y elsewhere.
func Where(cond, x, y *Tensor) *Tensor { return tensor.Where(cond, x, y) }

// BroadcastShapes returns the broadcast of two shapes and whether either
// operand needs broadcasting.
func BroadcastShapes(a, b Shape) (Shape, bool, error) { return tensor.BroadcastShapes(a, b) }

// Conv2D cross-correlates input [N, C, H, W] with kernel [O, C, KH, KW].
func Conv2D(input, kernel *Tensor, strides [2]int, padding [2][2]int) *Tensor {
	return tensor.Conv2D(input, kernel, strides, padding)
}

// MaxPool2D takes the maximum over square windows of input [N, C, H, W].
func MaxPool2D(input *Tensor, window, stride int) *Tensor {
	return tensor.MaxPool2D(input, window, stride)
}
