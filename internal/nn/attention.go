package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/fnn/internal/tensor"
)

// DotProductAttentionLogits computes scaled dot-product attention logits.
//
// Shapes:
//   - q: [T_q, heads, head_dim]
//   - k: [T_k, heads, head_dim]
//   - logits: [heads, T_q, T_k]
//
// logits[h, i, j] = <q[i, h], k[j, h]> / sqrt(head_dim). A leading batch axis
// on both q and k is carried through to the result.
func DotProductAttentionLogits(q, k *tensor.Tensor) (*tensor.Tensor, error) {
	if q.Rank() == 4 && k.Rank() == 4 {
		return batched(q, k, DotProductAttentionLogits)
	}
	if q.Rank() != 3 || k.Rank() != 3 {
		return nil, fmt.Errorf("%w: attention logits need [T, heads, dim], got q %v k %v",
			ErrAttentionShape, q.Shape(), k.Shape())
	}
	qs, ks := q.Shape(), k.Shape()
	if qs[1] != ks[1] || qs[2] != ks[2] {
		return nil, fmt.Errorf("%w: q %v and k %v disagree on heads or head_dim", ErrAttentionShape, qs, ks)
	}

	heads, dim := qs[1], qs[2]
	qh := q.Permute(1, 0, 2) // [heads, T_q, dim]
	kh := k.Permute(1, 2, 0) // [heads, dim, T_k]
	out := make([]*tensor.Tensor, heads)
	for h := range out {
		out[h] = qh.Index(h).MatMul(kh.Index(h))
	}
	logits := tensor.Stack(tensor.Shape{qs[0], ks[0]}, out)
	return logits.MulScalar(1 / math.Sqrt(float64(dim))), nil
}

// ApplyAttentionWeights mixes values with attention weights.
//
// Shapes:
//   - weights: [heads, T_q, T_k]
//   - v: [T_k, heads, v_dim]
//   - result: [T_q, heads, v_dim]
func ApplyAttentionWeights(weights, v *tensor.Tensor) (*tensor.Tensor, error) {
	if weights.Rank() == 4 && v.Rank() == 4 {
		return batched(weights, v, ApplyAttentionWeights)
	}
	if weights.Rank() != 3 || v.Rank() != 3 {
		return nil, fmt.Errorf("%w: attention weights need [heads, T_q, T_k] and v [T_k, heads, dim], got %v and %v",
			ErrAttentionShape, weights.Shape(), v.Shape())
	}
	ws, vs := weights.Shape(), v.Shape()
	if ws[0] != vs[1] || ws[2] != vs[0] {
		return nil, fmt.Errorf("%w: weights %v incompatible with v %v", ErrAttentionShape, ws, vs)
	}

	vh := v.Permute(1, 0, 2) // [heads, T_k, v_dim]
	out := make([]*tensor.Tensor, ws[0])
	for h := range out {
		out[h] = weights.Index(h).MatMul(vh.Index(h))
	}
	return tensor.Stack(tensor.Shape{ws[1], vs[2]}, out).Permute(1, 0, 2), nil
}

// MaskedSoftmax normalizes logits along the last axis, giving zero weight to
// positions where mask is zero. mask must broadcast to logits. A row with no
// unmasked position is all zeros. A nil mask is a plain softmax.
func MaskedSoftmax(logits, mask *tensor.Tensor) (*tensor.Tensor, error) {
	if logits.Rank() == 0 {
		return nil, fmt.Errorf("%w: softmax of a scalar", ErrAttentionShape)
	}
	if mask == nil {
		return logits.Softmax(-1), nil
	}
	shape, _, err := tensor.BroadcastShapes(mask.Shape(), logits.Shape())
	if err != nil || !shape.Equal(logits.Shape()) {
		return nil, fmt.Errorf("%w: mask %v does not broadcast to logits %v",
			ErrAttentionShape, mask.Shape(), logits.Shape())
	}
	masked := tensor.Where(mask, logits, tensor.Scalar(math.Inf(-1)))
	return masked.Softmax(-1), nil
}

// CausalMask returns a [t, t] mask allowing position i to attend to j <= i.
func CausalMask(t int) *tensor.Tensor {
	data := make([]float64, t*t)
	for i := 0; i < t; i++ {
		for j := 0; j <= i; j++ {
			data[i*t+j] = 1
		}
	}
	return tensor.MustFromSlice(data, tensor.Shape{t, t})
}

func batched(a, b *tensor.Tensor, fn func(a, b *tensor.Tensor) (*tensor.Tensor, error)) (*tensor.Tensor, error) {
	n := a.Shape()[0]
	if b.Shape()[0] != n || n == 0 {
		return nil, fmt.Errorf("%w: batch sizes %d and %d", ErrAttentionShape, n, b.Shape()[0])
	}
	out := make([]*tensor.Tensor, n)
	for i := range out {
		r, err := fn(a.Index(i), b.Index(i))
		if err != nil {
			return nil, fmt.Errorf("batch element %d: %w", i, err)
		}
		out[i] = r
	}
	return tensor.Stack(out[0].Shape(), out), nil
}
