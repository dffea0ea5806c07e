// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/fnn/internal/nn"
	"github.com/born-ml/fnn/internal/tensor"
)

// ErrAttentionShape reports incompatible query, key or value shapes.
var ErrAttentionShape = nn.ErrAttentionShape

// DotProductAttentionLogits returns q·kᵀ/sqrt(D) as [H, Tq, Tk] for
// q [Tq, H, D] and k [Tk, H, D]. A leading batch axis is allowed.
func DotProductAttentionLogits(q, k *tensor.Tensor) (*tensor.Tensor, error) {
	return nn.DotProductAttentionLogits(q, k)
}

// ApplyAttentionWeights combines v [Tk, H, Dv] with weights [H, Tq, Tk] into
// [Tq, H, Dv].
func ApplyAttentionWeights(weights, v *tensor.Tensor) (*tensor.Tensor, error) {
	return nn.ApplyAttentionWeights(weights, v)
}

// MaskedSoftmax normalizes logits over the last axis, ignoring positions where
// mask is zero. A nil mask keeps every position.
func MaskedSoftmax(logits, mask *tensor.Tensor) (*tensor.Tensor, error) {
	return nn.MaskedSoftmax(logits, mask)
}

// CausalMask returns the [t, t] lower-triangular mask.
func CausalMask(t int) *tensor.Tensor { return nn.CausalMask(t) }
