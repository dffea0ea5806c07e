// Package sequence provides padding-aware realignment for variable-length
// sequences stored right-padded to a fixed maximum length.
//
// A reverse scan over [v1 .. vn pad .. pad] would start on padding. Rotating
// the sequence right by (M - n) turns it into [pad .. pad v1 .. vn], so the
// scan meets vn first; rotating the scan output right by n restores the
// original alignment. Both are pure index permutations.
package sequence

import (
	"errors"
	"fmt"

	"github.com/born-ml/fnn/internal/tensor"
)

// Errors returned by the alignment helpers.
var (
	ErrMaskShape = errors.New("mask shape does not match sequence")
	ErrLength    = errors.New("valid length out of range")
)

// Rotate cyclically shifts xs right by shift positions along axis 0:
// out[(i+shift) mod M] = xs[i]. Negative shifts rotate left.
func Rotate(xs *tensor.Tensor, shift int) *tensor.Tensor {
	if xs.Rank() == 0 {
		panic("rotate: scalar tensor has no sequence axis")
	}
	m := xs.Shape()[0]
	if m == 0 {
		return xs
	}
	idx := make([]int, m)
	for i := range idx {
		idx[i] = ((i-shift)%m + m) % m
	}
	return xs.Take(idx)
}

// LeftAlign rotates a right-padded sequence with length valid positions so
// that the valid positions end at the last slot.
func LeftAlign(xs *tensor.Tensor, length int) (*tensor.Tensor, error) {
	m, err := checkLength(xs, length)
	if err != nil {
		return nil, err
	}
	return Rotate(xs, m-length), nil
}

// RightAlign undoes LeftAlign.
func RightAlign(xs *tensor.Tensor, length int) (*tensor.Tensor, error) {
	if _, err := checkLength(xs, length); err != nil {
		return nil, err
	}
	return Rotate(xs, length), nil
}

// LeftAlignBatch applies LeftAlign to every element of a batch xs [B, M, ...]
// using that element's own length.
func LeftAlignBatch(xs *tensor.Tensor, lengths []int) (*tensor.Tensor, error) {
	return perElement(xs, lengths, LeftAlign)
}

// RightAlignBatch applies RightAlign to every element of a batch.
func RightAlignBatch(xs *tensor.Tensor, lengths []int) (*tensor.Tensor, error) {
	return perElement(xs, lengths, RightAlign)
}

func perElement(
	xs *tensor.Tensor,
	lengths []int,
	fn func(*tensor.Tensor, int) (*tensor.Tensor, error),
) (*tensor.Tensor, error) {
	if xs.Rank() < 2 {
		return nil, fmt.Errorf("%w: batched sequence must be [B, M, ...], got %v", ErrMaskShape, xs.Shape())
	}
	if xs.Shape()[0] != len(lengths) {
		return nil, fmt.Errorf("%w: %d lengths for batch of %d", ErrMaskShape, len(lengths), xs.Shape()[0])
	}
	out := make([]*tensor.Tensor, len(lengths))
	for b, length := range lengths {
		aligned, err := fn(xs.Index(b), length)
		if err != nil {
			return nil, fmt.Errorf("batch element %d: %w", b, err)
		}
		out[b] = aligned
	}
	return tensor.Stack(xs.Shape()[1:], out), nil
}

func checkLength(xs *tensor.Tensor, length int) (int, error) {
	if xs.Rank() == 0 {
		return 0, fmt.Errorf("%w: scalar has no sequence axis", ErrMaskShape)
	}
	m := xs.Shape()[0]
	if length < 0 || length > m {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", ErrLength, length, m)
	}
	return m, nil
}
