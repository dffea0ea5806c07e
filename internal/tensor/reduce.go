package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	return floats.Sum(t.data)
}

// SumAxis sums along axis. With keepDim the reduced axis is kept with size 1.
func (t *Tensor) SumAxis(axis int, keepDim bool) *Tensor {
	axis = t.shape.Axis(axis)
	outer := t.shape[:axis].NumElements()
	n := t.shape[axis]
	inner := t.shape[axis+1:].NumElements()

	out := make([]float64, outer*inner)
	for o := 0; o < outer; o++ {
		for k := 0; k < n; k++ {
			row := t.data[(o*n+k)*inner : (o*n+k+1)*inner]
			floats.Add(out[o*inner:(o+1)*inner], row)
		}
	}
	return newTensor(reducedShape(t.shape, axis, keepDim), out)
}

// MeanAxis averages along axis.
func (t *Tensor) MeanAxis(axis int, keepDim bool) *Tensor {
	axis = t.shape.Axis(axis)
	n := float64(t.shape[axis])
	return t.SumAxis(axis, keepDim).Map(func(v float64) float64 { return v / n })
}

// MomentsExcept returns the mean and (biased) variance of t over every axis
// except axis, as two vectors of length t.Shape()[axis].
func (t *Tensor) MomentsExcept(axis int) (mean, variance *Tensor) {
	axis = t.shape.Axis(axis)
	channels := t.shape[axis]
	count := 0
	if channels > 0 {
		count = len(t.data) / channels
	}
	if count == 0 {
		panic(fmt.Sprintf("moments: no elements to reduce in shape %v", t.shape))
	}

	// Two passes: the mean first, then squared deviations from it, so large
	// offsets do not cancel the variance.
	m := make([]float64, channels)
	iterate(t.shape, func(flat int, idx []int) {
		m[idx[axis]] += t.data[flat]
	})
	for c := range m {
		m[c] /= float64(count)
	}

	v := make([]float64, channels)
	iterate(t.shape, func(flat int, idx []int) {
		d := t.data[flat] - m[idx[axis]]
		v[idx[axis]] += d * d
	})
	for c := range v {
		v[c] /= float64(count)
	}
	return newTensor(Shape{channels}, m), newTensor(Shape{channels}, v)
}

// Softmax normalizes along axis. Entries equal to -Inf receive zero weight.
func (t *Tensor) Softmax(axis int) *Tensor {
	axis = t.shape.Axis(axis)
	outer := t.shape[:axis].NumElements()
	n := t.shape[axis]
	inner := t.shape[axis+1:].NumElements()

	out := make([]float64, len(t.data))
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			at := func(k int) int { return (o*n+k)*inner + i }
			maxVal := math.Inf(-1)
			for k := 0; k < n; k++ {
				maxVal = math.Max(maxVal, t.data[at(k)])
			}
			if math.IsInf(maxVal, -1) {
				continue
			}
			var total float64
			for k := 0; k < n; k++ {
				e := math.Exp(t.data[at(k)] - maxVal)
				out[at(k)] = e
				total += e
			}
			for k := 0; k < n; k++ {
				out[at(k)] /= total
			}
		}
	}
	return newTensor(t.shape, out)
}

func reducedShape(shape Shape, axis int, keepDim bool) Shape {
	if keepDim {
		out := shape.Clone()
		out[axis] = 1
		return out
	}
	out := make(Shape, 0, len(shape)-1)
	out = append(out, shape[:axis]...)
	return append(out, shape[axis+1:]...)
}
