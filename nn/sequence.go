// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/fnn/internal/sequence"
	"github.com/born-ml/fnn/internal/tensor"
)

// Errors from the sequence helpers.
var (
	ErrMaskShape = sequence.ErrMaskShape
	ErrLength    = sequence.ErrLength
)

// LeftAlign rotates a right-padded sequence [M, ...] so its first length
// elements end at position M-1.
func LeftAlign(xs *tensor.Tensor, length int) (*tensor.Tensor, error) {
	return sequence.LeftAlign(xs, length)
}

// RightAlign undoes LeftAlign.
func RightAlign(xs *tensor.Tensor, length int) (*tensor.Tensor, error) {
	return sequence.RightAlign(xs, length)
}

// LeftAlignBatch applies LeftAlign to each row of xs [B, M, ...].
func LeftAlignBatch(xs *tensor.Tensor, lengths []int) (*tensor.Tensor, error) {
	return sequence.LeftAlignBatch(xs, lengths)
}

// RightAlignBatch applies RightAlign to each row of xs [B, M, ...].
func RightAlignBatch(xs *tensor.Tensor, lengths []int) (*tensor.Tensor, error) {
	return sequence.RightAlignBatch(xs, lengths)
}

// ValidLengths counts the valid positions of a mask [M] or [B, M].
func ValidLengths(mask *tensor.Tensor) ([]int, error) { return sequence.ValidLengths(mask) }

// ApplyMask zeroes positions of x whose mask entry is zero.
func ApplyMask(x, mask *tensor.Tensor) (*tensor.Tensor, error) { return sequence.ApplyMask(x, mask) }

// MaskFromLengths builds a [B, maxLen] mask from sequence lengths.
func MaskFromLengths(lengths []int, maxLen int) (*tensor.Tensor, error) {
	return sequence.FromLengths(lengths, maxLen)
}
