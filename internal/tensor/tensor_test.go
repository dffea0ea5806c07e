package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.ComputeStrides())
	assert.Equal(t, 2, s.Axis(-1))
	assert.True(t, s.Equal(s.Clone()))
	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 2, s[0], "clone must not alias")
	assert.Equal(t, []int{}, Shape{}.ComputeStrides())
	assert.NoError(t, Shape{0, 3}.Validate())
	assert.Error(t, Shape{-1}.Validate())
	assert.Equal(t, 0, Shape{0, 3}.NumElements())
	assert.Equal(t, 1, Shape{}.NumElements())
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b  Shape
		want  Shape
		bcast bool
		err   bool
	}{
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{Shape{5}, Shape{2, 5}, Shape{2, 5}, true, false},
		{Shape{}, Shape{2, 3}, Shape{2, 3}, true, false},
		{Shape{4, 1, 3}, Shape{2, 1}, Shape{4, 2, 3}, true, false},
		{Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}
	for _, tt := range tests {
		got, bcast, err := BroadcastShapes(tt.a, tt.b)
		if tt.err {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.bcast, bcast)
	}
}

func TestFromSlice(t *testing.T) {
	_, err := FromSlice([]float64{1, 2, 3}, Shape{2, 2})
	assert.Error(t, err)

	data := []float64{1, 2, 3, 4}
	x, err := FromSlice(data, Shape{2, 2})
	require.NoError(t, err)
	data[0] = 100
	assert.Equal(t, 1.0, x.At(0, 0), "FromSlice must copy")
	assert.Equal(t, 4.0, x.At(1, 1))

	out := x.Data()
	out[0] = 100
	assert.Equal(t, 1.0, x.At(0, 0), "Data must copy")
}

func TestBinaryOps(t *testing.T) {
	a := MustFromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	row := MustFromSlice([]float64{10, 20, 30}, Shape{3})

	assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, a.Add(row).Data())
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, a.Sub(a).Data())
	assert.Equal(t, []float64{10, 40, 90, 40, 100, 180}, a.Mul(row).Data())
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1}, a.Div(a).Data())
	assert.Equal(t, []float64{2, 4, 6, 8, 10, 12}, a.MulScalar(2).Data())
	assert.Equal(t, []float64{2, 3, 4, 5, 6, 7}, a.AddScalar(1).Data())

	assert.Panics(t, func() { a.Add(Ones(Shape{2})) })
}

func TestUnaryOps(t *testing.T) {
	x := MustFromSlice([]float64{-1, 0, 4}, Shape{3})
	assert.Equal(t, []float64{0, 0, 4}, x.ReLU().Data())
	assert.InDelta(t, 0.5, x.Sigmoid().At(1), 1e-12)
	assert.InDelta(t, math.Tanh(-1), x.Tanh().At(0), 1e-12)
	assert.InDelta(t, 0.5, x.Rsqrt().At(2), 1e-12)
}

func TestWhere(t *testing.T) {
	cond := MustFromSlice([]float64{1, 0}, Shape{2, 1})
	x := Full(Shape{2, 3}, 7)
	got := Where(cond, x, Scalar(0))
	assert.Equal(t, []float64{7, 7, 7, 0, 0, 0}, got.Data())
}

func TestBroadcastInDim(t *testing.T) {
	v := MustFromSlice([]float64{1, 2}, Shape{2})
	got := v.BroadcastInDim(Shape{3, 2}, []int{1})
	assert.Equal(t, []float64{1, 2, 1, 2, 1, 2}, got.Data())

	got = v.BroadcastInDim(Shape{2, 3}, []int{0})
	assert.Equal(t, []float64{1, 1, 1, 2, 2, 2}, got.Data())
}

func TestMatMul(t *testing.T) {
	x := MustFromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	w := MustFromSlice([]float64{1, 0, 0, 1, 1, 1}, Shape{3, 2})
	got := x.MatMul(w)
	assert.Equal(t, Shape{2, 2}, got.Shape())
	assert.Equal(t, []float64{4, 5, 10, 11}, got.Data())

	// Leading axes are a batch.
	batched := x.Reshape(1, 2, 3).MatMul(w)
	assert.Equal(t, Shape{1, 2, 2}, batched.Shape())

	// A single vector.
	v := MustFromSlice([]float64{1, 1, 1}, Shape{3}).MatMul(w)
	assert.Equal(t, []float64{2, 2}, v.Data())

	assert.Panics(t, func() { x.MatMul(Ones(Shape{2, 2})) })
}

func TestManipulation(t *testing.T) {
	x := MustFromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{3, 2})

	assert.Equal(t, []float64{3, 4}, x.Index(1).Data())
	assert.Equal(t, Shape{2, 3}, x.Reshape(2, -1).Shape())
	assert.Equal(t, []float64{5, 6, 1, 2}, x.Take([]int{2, 0}).Data())
	assert.Equal(t, []float64{1, 3, 5, 2, 4, 6}, x.Transpose().Data())

	parts := x.Split(-1, 2)
	require.Len(t, parts, 2)
	assert.Equal(t, []float64{1, 3, 5}, parts[0].Data())
	assert.Equal(t, Shape{3, 1}, parts[1].Shape())
	assert.True(t, Concat(-1, parts...).Equal(x))
	assert.Equal(t, Shape{6, 2}, Concat(0, x, x).Shape())

	stacked := Stack(Shape{2}, []*Tensor{x.Index(0), x.Index(2)})
	assert.Equal(t, []float64{1, 2, 5, 6}, stacked.Data())

	empty := Stack(Shape{4}, nil)
	assert.Equal(t, Shape{0, 4}, empty.Shape())
	assert.Equal(t, 0, empty.NumElements())
}

func TestPermute(t *testing.T) {
	x := MustFromSlice([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, Shape{2, 3, 2})
	p := x.Permute(1, 0, 2)
	assert.Equal(t, Shape{3, 2, 2}, p.Shape())
	assert.Equal(t, x.At(1, 2, 0), p.At(2, 1, 0))
	assert.True(t, p.SwapAxes(0, 1).Equal(x))
}

func TestReductions(t *testing.T) {
	x := MustFromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	assert.Equal(t, 21.0, x.Sum())
	assert.Equal(t, []float64{5, 7, 9}, x.SumAxis(0, false).Data())
	assert.Equal(t, Shape{2, 1}, x.SumAxis(1, true).Shape())
	assert.Equal(t, []float64{2, 5}, x.MeanAxis(1, false).Data())

	mean, variance := x.MomentsExcept(1)
	assert.Equal(t, []float64{2.5, 3.5, 4.5}, mean.Data())
	assert.Equal(t, []float64{2.25, 2.25, 2.25}, variance.Data())
}

func TestMomentsExcept_LargeOffset(t *testing.T) {
	for _, offset := range []float64{1e7, 1e8} {
		x := MustFromSlice([]float64{
			offset + 0.01, offset - 0.01,
			offset - 0.01, offset + 0.01,
		}, Shape{2, 1, 2})
		mean, variance := x.MomentsExcept(1)
		assert.InDelta(t, offset, mean.Item(), 1e-6)
		assert.InDelta(t, 1e-4, variance.Item(), 1e-8, "offset %g", offset)
	}
}

func TestSoftmax(t *testing.T) {
	x := MustFromSlice([]float64{1, 1, math.Inf(-1), math.Inf(-1)}, Shape{2, 2})
	got := x.Softmax(-1)
	assert.Equal(t, []float64{0.5, 0.5, 0, 0}, got.Data())
}

func TestConv2D(t *testing.T) {
	input := Ones(Shape{2, 3, 8, 8})
	kernel := Ones(Shape{4, 3, 5, 5})
	got := Conv2D(input, kernel, [2]int{1, 1}, [2][2]int{})
	assert.Equal(t, Shape{2, 4, 4, 4}, got.Shape())
	for _, v := range got.Data() {
		assert.Equal(t, 75.0, v)
	}

	same := Conv2D(Ones(Shape{1, 1, 3, 3}), Ones(Shape{1, 1, 3, 3}), [2]int{1, 1}, [2][2]int{{1, 1}, {1, 1}})
	assert.Equal(t, Shape{1, 1, 3, 3}, same.Shape())
	assert.Equal(t, 4.0, same.At(0, 0, 0, 0))
	assert.Equal(t, 9.0, same.At(0, 0, 1, 1))

	strided := Conv2D(Ones(Shape{1, 1, 5, 5}), Ones(Shape{1, 1, 1, 1}), [2]int{2, 2}, [2][2]int{})
	assert.Equal(t, Shape{1, 1, 3, 3}, strided.Shape())
}
