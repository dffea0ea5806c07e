package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Add returns t + other with broadcasting.
func (t *Tensor) Add(other *Tensor) *Tensor {
	return binary("add", t, other, floats.AddTo, func(a, b float64) float64 { return a + b })
}

// Sub returns t - other with broadcasting.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	return binary("sub", t, other, floats.SubTo, func(a, b float64) float64 { return a - b })
}

// Mul returns the element-wise product t * other with broadcasting.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	return binary("mul", t, other, floats.MulTo, func(a, b float64) float64 { return a * b })
}

// Div returns the element-wise quotient t / other with broadcasting.
func (t *Tensor) Div(other *Tensor) *Tensor {
	return binary("div", t, other, floats.DivTo, func(a, b float64) float64 { return a / b })
}

// MulScalar multiplies every element by s.
func (t *Tensor) MulScalar(s float64) *Tensor {
	out := t.Clone()
	floats.Scale(s, out.data)
	return out
}

// AddScalar adds s to every element.
func (t *Tensor) AddScalar(s float64) *Tensor {
	out := t.Clone()
	floats.AddConst(s, out.data)
	return out
}

// Map applies fn to every element.
func (t *Tensor) Map(fn func(float64) float64) *Tensor {
	out := make([]float64, len(t.data))
	for i, v := range t.data {
		out[i] = fn(v)
	}
	return newTensor(t.shape, out)
}

// Neg returns -t.
func (t *Tensor) Neg() *Tensor { return t.MulScalar(-1) }

// Exp returns e^t element-wise.
func (t *Tensor) Exp() *Tensor { return t.Map(math.Exp) }

// Tanh returns tanh(t) element-wise.
func (t *Tensor) Tanh() *Tensor { return t.Map(math.Tanh) }

// Sqrt returns the element-wise square root.
func (t *Tensor) Sqrt() *Tensor { return t.Map(math.Sqrt) }

// Rsqrt returns 1/sqrt(t) element-wise.
func (t *Tensor) Rsqrt() *Tensor {
	return t.Map(func(v float64) float64 { return 1 / math.Sqrt(v) })
}

// Sigmoid returns 1/(1+e^-t) element-wise.
func (t *Tensor) Sigmoid() *Tensor {
	return t.Map(func(v float64) float64 { return 1 / (1 + math.Exp(-v)) })
}

// ReLU returns max(t, 0) element-wise.
func (t *Tensor) ReLU() *Tensor {
	return t.Map(func(v float64) float64 { return math.Max(v, 0) })
}

// Where selects elements from x where cond is non-zero and from y elsewhere.
// All three operands broadcast to a common shape.
func Where(cond, x, y *Tensor) *Tensor {
	shape, _, err := BroadcastShapes(cond.shape, x.shape)
	if err != nil {
		panic(fmt.Sprintf("where: %v", err))
	}
	shape, _, err = BroadcastShapes(shape, y.shape)
	if err != nil {
		panic(fmt.Sprintf("where: %v", err))
	}
	c, a, b := cond.BroadcastTo(shape), x.BroadcastTo(shape), y.BroadcastTo(shape)
	out := make([]float64, shape.NumElements())
	for i := range out {
		if c.data[i] != 0 {
			out[i] = a.data[i]
		} else {
			out[i] = b.data[i]
		}
	}
	return newTensor(shape, out)
}

// BroadcastTo expands t to shape following NumPy rules.
// Panics if t cannot be broadcast to shape.
func (t *Tensor) BroadcastTo(shape Shape) *Tensor {
	if t.shape.Equal(shape) {
		return t
	}
	got, _, err := BroadcastShapes(t.shape, shape)
	if err != nil || !got.Equal(shape) {
		panic(fmt.Sprintf("cannot broadcast %v to %v", t.shape, shape))
	}
	src := broadcastStrides(t.shape, shape)
	out := make([]float64, shape.NumElements())
	iterate(shape, func(flat int, idx []int) {
		off := 0
		for d, i := range idx {
			off += i * src[d]
		}
		out[flat] = t.data[off]
	})
	return newTensor(shape, out)
}

// BroadcastInDim places t into shape, mapping t's axis i onto axis dims[i] of
// the result and repeating it along every other axis.
func (t *Tensor) BroadcastInDim(shape Shape, dims []int) *Tensor {
	if len(dims) != len(t.shape) {
		panic(fmt.Sprintf("broadcast_in_dim: %d dims for rank-%d tensor", len(dims), len(t.shape)))
	}
	expanded := make(Shape, len(shape))
	for i := range expanded {
		expanded[i] = 1
	}
	prev := -1
	for i, d := range dims {
		d = shape.Axis(d)
		if d <= prev {
			panic(fmt.Sprintf("broadcast_in_dim: dims %v must be strictly increasing", dims))
		}
		prev = d
		if t.shape[i] != shape[d] && t.shape[i] != 1 {
			panic(fmt.Sprintf("broadcast_in_dim: axis %d has size %d, target axis %d has size %d",
				i, t.shape[i], d, shape[d]))
		}
		expanded[d] = t.shape[i]
	}
	return t.Reshape(expanded...).BroadcastTo(shape)
}

// binary applies an element-wise op, taking the gonum fast path when no
// broadcasting is required.
func binary(
	name string,
	a, b *Tensor,
	fast func(dst, s, t []float64) []float64,
	slow func(a, b float64) float64,
) *Tensor {
	shape, needsBroadcast, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	out := make([]float64, shape.NumElements())
	if !needsBroadcast {
		fast(out, a.data, b.data)
		return newTensor(shape, out)
	}

	as := broadcastStrides(a.shape, shape)
	bs := broadcastStrides(b.shape, shape)
	iterate(shape, func(flat int, idx []int) {
		ao, bo := 0, 0
		for d, i := range idx {
			ao += i * as[d]
			bo += i * bs[d]
		}
		out[flat] = slow(a.data[ao], b.data[bo])
	})
	return newTensor(shape, out)
}

// broadcastStrides returns strides of src aligned to out, with zero stride on
// broadcast axes.
func broadcastStrides(src, out Shape) []int {
	strides := src.ComputeStrides()
	result := make([]int, len(out))
	offset := len(out) - len(src)
	for i := range src {
		if src[i] != 1 {
			result[offset+i] = strides[i]
		}
	}
	return result
}

// iterate calls fn for every multi-index of shape in row-major order.
func iterate(shape Shape, fn func(flat int, idx []int)) {
	n := shape.NumElements()
	if n == 0 {
		return
	}
	idx := make([]int, len(shape))
	for flat := 0; flat < n; flat++ {
		fn(flat, idx)
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
}
