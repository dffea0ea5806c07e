package sequence

import (
	"testing"

	"github.com/born-ml/fnn/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(vals ...float64) *tensor.Tensor {
	return tensor.MustFromSlice(vals, tensor.Shape{len(vals)})
}

func TestRotate(t *testing.T) {
	xs := seq(1, 2, 3, 4, 5)
	assert.Equal(t, []float64{4, 5, 1, 2, 3}, Rotate(xs, 2).Data())
	assert.Equal(t, []float64{3, 4, 5, 1, 2}, Rotate(xs, -2).Data())
	assert.Equal(t, xs.Data(), Rotate(xs, 5).Data())
	assert.Equal(t, tensor.Shape{0, 3}, Rotate(tensor.Zeros(tensor.Shape{0, 3}), 1).Shape())
}

func TestLeftAlign(t *testing.T) {
	// Three valid tokens right-padded to five.
	xs := seq(1, 2, 3, 0, 0)
	left, err := LeftAlign(xs, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, 2, 3}, left.Data())

	right, err := RightAlign(left, 3)
	require.NoError(t, err)
	assert.Equal(t, xs.Data(), right.Data())

	_, err = LeftAlign(xs, 6)
	assert.ErrorIs(t, err, ErrLength)
	_, err = RightAlign(xs, -1)
	assert.ErrorIs(t, err, ErrLength)
}

func TestRotationRoundTrip(t *testing.T) {
	xs := tensor.MustFromSlice([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, tensor.Shape{6, 2})
	for length := 0; length <= 6; length++ {
		left, err := LeftAlign(xs, length)
		require.NoError(t, err)
		back, err := RightAlign(left, length)
		require.NoError(t, err)
		assert.True(t, back.Equal(xs), "length %d", length)

		// Values are permuted, never altered.
		assert.ElementsMatch(t, xs.Data(), left.Data())
	}
}

func TestAlignBatch(t *testing.T) {
	xs := tensor.MustFromSlice([]float64{
		1, 2, 0, 0,
		5, 6, 7, 0,
	}, tensor.Shape{2, 4})
	lengths := []int{2, 3}

	left, err := LeftAlignBatch(xs, lengths)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, 2, 0, 5, 6, 7}, left.Data())

	back, err := RightAlignBatch(left, lengths)
	require.NoError(t, err)
	assert.True(t, back.Equal(xs))

	_, err = LeftAlignBatch(xs, []int{1})
	assert.ErrorIs(t, err, ErrMaskShape)
	_, err = LeftAlignBatch(xs, []int{1, 9})
	assert.ErrorIs(t, err, ErrLength)
}

func TestValidLengths(t *testing.T) {
	got, err := ValidLengths(seq(1, 1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []int{2}, got)

	mask, err := FromLengths([]int{0, 3, 4}, 4)
	require.NoError(t, err)
	got, err = ValidLengths(mask)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 4}, got)

	_, err = ValidLengths(tensor.Zeros(tensor.Shape{1, 2, 3}))
	assert.ErrorIs(t, err, ErrMaskShape)

	// Valid positions must form a prefix.
	_, err = ValidLengths(seq(1, 0, 1, 0))
	assert.ErrorIs(t, err, ErrMaskShape)
	_, err = ValidLengths(tensor.MustFromSlice([]float64{1, 1, 0, 0, 0, 1}, tensor.Shape{2, 3}))
	assert.ErrorIs(t, err, ErrMaskShape)
	got, err = ValidLengths(seq(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
	_, err = FromLengths([]int{5}, 4)
	assert.ErrorIs(t, err, ErrLength)
}

func TestApplyMask(t *testing.T) {
	x := tensor.Full(tensor.Shape{2, 3, 2}, 7)
	mask, err := FromLengths([]int{1, 2}, 3)
	require.NoError(t, err)

	once, err := ApplyMask(x, mask)
	require.NoError(t, err)
	assert.Equal(t, []float64{
		7, 7, 0, 0, 0, 0,
		7, 7, 7, 7, 0, 0,
	}, once.Data())

	twice, err := ApplyMask(once, mask)
	require.NoError(t, err)
	assert.True(t, twice.Equal(once), "masking must be idempotent")

	_, err = ApplyMask(x, seq(1, 1))
	assert.ErrorIs(t, err, ErrMaskShape)
}
