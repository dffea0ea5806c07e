package tensor

import "fmt"

// Reshape returns a tensor with the same elements and a new shape.
// One dimension may be -1, in which case it is inferred.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	shape := make(Shape, len(dims))
	copy(shape, dims)

	infer := -1
	known := 1
	for i, d := range shape {
		switch {
		case d == -1 && infer == -1:
			infer = i
		case d < 0:
			panic(fmt.Sprintf("reshape: invalid dimension %d in %v", d, dims))
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || len(t.data)%known != 0 {
			panic(fmt.Sprintf("reshape: cannot infer dimension for %v from %d elements", dims, len(t.data)))
		}
		shape[infer] = len(t.data) / known
	}
	if shape.NumElements() != len(t.data) {
		panic(fmt.Sprintf("reshape: cannot reshape %v into %v", t.shape, shape))
	}
	return newTensor(shape, t.data)
}

// Index returns the i-th slice along axis 0.
func (t *Tensor) Index(i int) *Tensor {
	if len(t.shape) == 0 {
		panic("index: scalar tensor has no axis 0")
	}
	if i < 0 || i >= t.shape[0] {
		panic(fmt.Sprintf("index: %d out of bounds for axis 0 of size %d", i, t.shape[0]))
	}
	size := t.strides[0]
	out := make([]float64, size)
	copy(out, t.data[i*size:(i+1)*size])
	return newTensor(t.shape[1:], out)
}

// Stack joins tensors of identical shape elem along a new leading axis.
// An empty list yields a tensor of shape [0, elem...].
func Stack(elem Shape, ts []*Tensor) *Tensor {
	shape := append(Shape{len(ts)}, elem...)
	size := elem.NumElements()
	out := make([]float64, 0, len(ts)*size)
	for i, t := range ts {
		if !t.shape.Equal(elem) {
			panic(fmt.Sprintf("stack: element %d has shape %v, want %v", i, t.shape, elem))
		}
		out = append(out, t.data...)
	}
	return newTensor(shape, out)
}

// Take gathers slices along axis 0: out[i] = t[indices[i]].
func (t *Tensor) Take(indices []int) *Tensor {
	if len(t.shape) == 0 {
		panic("take: scalar tensor has no axis 0")
	}
	size := t.strides[0]
	out := make([]float64, len(indices)*size)
	for i, src := range indices {
		if src < 0 || src >= t.shape[0] {
			panic(fmt.Sprintf("take: index %d out of bounds for axis 0 of size %d", src, t.shape[0]))
		}
		copy(out[i*size:(i+1)*size], t.data[src*size:(src+1)*size])
	}
	shape := t.shape.Clone()
	shape[0] = len(indices)
	return newTensor(shape, out)
}

// Concat joins tensors along axis. All other dimensions must agree.
func Concat(axis int, ts ...*Tensor) *Tensor {
	if len(ts) == 0 {
		panic("concat: no tensors")
	}
	first := ts[0].shape
	axis = first.Axis(axis)

	shape := first.Clone()
	shape[axis] = 0
	for i, t := range ts {
		if len(t.shape) != len(first) {
			panic(fmt.Sprintf("concat: tensor %d has rank %d, want %d", i, len(t.shape), len(first)))
		}
		for d := range first {
			if d != axis && t.shape[d] != first[d] {
				panic(fmt.Sprintf("concat: tensor %d has shape %v, incompatible with %v", i, t.shape, first))
			}
		}
		shape[axis] += t.shape[axis]
	}

	outer := first[:axis].NumElements()
	out := make([]float64, 0, shape.NumElements())
	for o := 0; o < outer; o++ {
		for _, t := range ts {
			block := t.shape[axis:].NumElements()
			out = append(out, t.data[o*block:(o+1)*block]...)
		}
	}
	return newTensor(shape, out)
}

// Split divides t into n equal parts along axis.
func (t *Tensor) Split(axis, n int) []*Tensor {
	axis = t.shape.Axis(axis)
	if n <= 0 || t.shape[axis]%n != 0 {
		panic(fmt.Sprintf("split: axis %d of size %d not divisible into %d parts", axis, t.shape[axis], n))
	}
	part := t.shape[axis] / n
	partShape := t.shape.Clone()
	partShape[axis] = part

	outer := t.shape[:axis].NumElements()
	inner := t.shape[axis+1:].NumElements()
	parts := make([]*Tensor, n)
	for p := range parts {
		out := make([]float64, 0, partShape.NumElements())
		for o := 0; o < outer; o++ {
			start := (o*t.shape[axis] + p*part) * inner
			out = append(out, t.data[start:start+part*inner]...)
		}
		parts[p] = newTensor(partShape, out)
	}
	return parts
}

// Permute reorders axes so that axis i of the result is axis axes[i] of t.
func (t *Tensor) Permute(axes ...int) *Tensor {
	if len(axes) != len(t.shape) {
		panic(fmt.Sprintf("permute: %d axes for rank-%d tensor", len(axes), len(t.shape)))
	}
	shape := make(Shape, len(axes))
	src := make([]int, len(axes))
	seen := make([]bool, len(axes))
	for i, a := range axes {
		a = t.shape.Axis(a)
		if seen[a] {
			panic(fmt.Sprintf("permute: repeated axis in %v", axes))
		}
		seen[a] = true
		shape[i] = t.shape[a]
		src[i] = t.strides[a]
	}
	out := make([]float64, len(t.data))
	iterate(shape, func(flat int, idx []int) {
		off := 0
		for d, i := range idx {
			off += i * src[d]
		}
		out[flat] = t.data[off]
	})
	return newTensor(shape, out)
}

// SwapAxes exchanges two axes.
func (t *Tensor) SwapAxes(a, b int) *Tensor {
	axes := make([]int, len(t.shape))
	for i := range axes {
		axes[i] = i
	}
	a, b = t.shape.Axis(a), t.shape.Axis(b)
	axes[a], axes[b] = axes[b], axes[a]
	return t.Permute(axes...)
}
