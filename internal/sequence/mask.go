package sequence

import (
	"fmt"

	"github.com/born-ml/fnn/internal/tensor"
)

// ValidLengths counts the valid (non-zero) positions of a mask along its last
// axis. A mask [M] yields one length; a mask [B, M] yields B lengths.
//
// Sequences are right-padded, so every row must be a run of non-zero entries
// followed only by zeros. Any other row is rejected with ErrMaskShape.
func ValidLengths(mask *tensor.Tensor) ([]int, error) {
	var rows, m int
	switch mask.Rank() {
	case 1:
		rows, m = 1, mask.Shape()[0]
	case 2:
		rows, m = mask.Shape()[0], mask.Shape()[1]
	default:
		return nil, fmt.Errorf("%w: mask must be [M] or [B, M], got %v", ErrMaskShape, mask.Shape())
	}
	data := mask.Data()
	out := make([]int, rows)
	for b := range out {
		n, ok := prefixLength(data[b*m : (b+1)*m])
		if !ok {
			return nil, fmt.Errorf("%w: row %d is not right-padded: %v", ErrMaskShape, b, data[b*m:(b+1)*m])
		}
		out[b] = n
	}
	return out, nil
}

// prefixLength returns the length of the leading non-zero run and whether the
// rest of the row is all zeros.
func prefixLength(row []float64) (int, bool) {
	n := 0
	for n < len(row) && row[n] != 0 {
		n++
	}
	for _, v := range row[n:] {
		if v != 0 {
			return n, false
		}
	}
	return n, true
}

// ApplyMask zeroes the positions of x where mask is zero. mask covers the
// leading axes of x: [M] for x [M, ...], [B, M] for x [B, M, ...].
// Applying the same mask twice gives the same result as applying it once.
func ApplyMask(x, mask *tensor.Tensor) (*tensor.Tensor, error) {
	ms, xs := mask.Shape(), x.Shape()
	if len(ms) == 0 || len(ms) > len(xs) || !xs[:len(ms)].Equal(ms) {
		return nil, fmt.Errorf("%w: mask %v does not cover leading axes of %v", ErrMaskShape, ms, xs)
	}
	dims := make([]int, len(ms))
	for i := range dims {
		dims[i] = i
	}
	return tensor.Where(mask.BroadcastInDim(xs, dims), x, tensor.Scalar(0)), nil
}

// FromLengths builds a [B, M] mask with the first lengths[b] positions of row b
// set to one.
func FromLengths(lengths []int, maxLen int) (*tensor.Tensor, error) {
	data := make([]float64, len(lengths)*maxLen)
	for b, n := range lengths {
		if n < 0 || n > maxLen {
			return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrLength, n, maxLen)
		}
		for i := 0; i < n; i++ {
			data[b*maxLen+i] = 1
		}
	}
	return tensor.FromSlice(data, tensor.Shape{len(lengths), maxLen})
}
