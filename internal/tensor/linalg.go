package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MatMul contracts the last axis of t with the first axis of a 2-D matrix w.
//
// Shapes: t [..., K] @ w [K, N] -> [..., N]. Leading axes of t are treated as
// a batch, so the same call serves a single example and a batch of them.
func (t *Tensor) MatMul(w *Tensor) *Tensor {
	if len(w.shape) != 2 {
		panic(fmt.Sprintf("matmul: weight must be 2D, got shape %v", w.shape))
	}
	if len(t.shape) == 0 {
		panic("matmul: input must have at least one axis")
	}
	k := t.shape[len(t.shape)-1]
	if k != w.shape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions differ: %v @ %v", t.shape, w.shape))
	}
	n := w.shape[1]

	outShape := append(t.shape[:len(t.shape)-1].Clone(), n)
	rows := 1
	for _, d := range t.shape[:len(t.shape)-1] {
		rows *= d
	}
	out := make([]float64, rows*n)
	if rows == 0 || n == 0 || k == 0 {
		return newTensor(outShape, out)
	}

	a := mat.NewDense(rows, k, t.data)
	b := mat.NewDense(k, n, w.data)
	c := mat.NewDense(rows, n, out)
	c.Mul(a, b)
	return newTensor(outShape, out)
}

// Transpose swaps the two axes of a 2-D tensor.
func (t *Tensor) Transpose() *Tensor {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("transpose: expected 2D tensor, got shape %v", t.shape))
	}
	return t.SwapAxes(0, 1)
}
