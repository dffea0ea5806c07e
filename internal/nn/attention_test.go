package nn_test

import (
	"testing"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/nn"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotProductAttention(t *testing.T) {
	q := tensor.Ones(tensor.Shape{2, 1, 4})
	k := tensor.Ones(tensor.Shape{3, 1, 4})
	logits, err := nn.DotProductAttentionLogits(q, k)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 3}, logits.Shape())
	for _, v := range logits.Data() {
		assert.Equal(t, 2.0, v, "4 / sqrt(4)")
	}

	mask := tensor.MustFromSlice([]float64{1, 1, 0}, tensor.Shape{3})
	weights, err := nn.MaskedSoftmax(logits, mask)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0, 0.5, 0.5, 0}, weights.Data(), 1e-12)

	v := tensor.MustFromSlice([]float64{1, 1, 3, 3, 100, 100}, tensor.Shape{3, 1, 2})
	out, err := nn.ApplyAttentionWeights(weights, v)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 1, 2}, out.Shape())
	assert.InDeltaSlice(t, []float64{2, 2, 2, 2}, out.Data(), 1e-12)
}

func TestDotProductAttention_Heads(t *testing.T) {
	// Head 0 queries (1, 0), head 1 queries (0, 1).
	q := tensor.MustFromSlice([]float64{1, 0, 0, 1}, tensor.Shape{1, 2, 2})
	k := tensor.MustFromSlice([]float64{2, 0, 0, 4}, tensor.Shape{1, 2, 2})
	logits, err := nn.DotProductAttentionLogits(q, k)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 1, 1}, logits.Shape())
	assert.InDeltaSlice(t, []float64{2 / 1.4142135623730951, 4 / 1.4142135623730951}, logits.Data(), 1e-12)

	batched, err := nn.DotProductAttentionLogits(
		tensor.Stack(q.Shape(), []*tensor.Tensor{q, q}),
		tensor.Stack(k.Shape(), []*tensor.Tensor{k, k}))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2, 1, 1}, batched.Shape())
	assert.True(t, batched.Index(1).Equal(logits))
}

func TestMaskedSoftmax_FullyMasked(t *testing.T) {
	logits := tensor.Ones(tensor.Shape{2, 3})
	mask := tensor.MustFromSlice([]float64{1, 1, 1, 0, 0, 0}, tensor.Shape{2, 3})
	w, err := nn.MaskedSoftmax(logits, mask)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3, 0, 0, 0}, w.Data(), 1e-12)

	_, err = nn.MaskedSoftmax(logits, tensor.Ones(tensor.Shape{4}))
	assert.ErrorIs(t, err, nn.ErrAttentionShape)
}

func TestAttention_ShapeErrors(t *testing.T) {
	_, err := nn.DotProductAttentionLogits(tensor.Ones(tensor.Shape{2, 1, 4}), tensor.Ones(tensor.Shape{2, 2, 4}))
	assert.ErrorIs(t, err, nn.ErrAttentionShape)
	_, err = nn.DotProductAttentionLogits(tensor.Ones(tensor.Shape{2, 4}), tensor.Ones(tensor.Shape{2, 4}))
	assert.ErrorIs(t, err, nn.ErrAttentionShape)
	_, err = nn.ApplyAttentionWeights(tensor.Ones(tensor.Shape{1, 2, 3}), tensor.Ones(tensor.Shape{2, 1, 2}))
	assert.ErrorIs(t, err, nn.ErrAttentionShape)
}

func TestCausalMask(t *testing.T) {
	assert.Equal(t, []float64{1, 0, 0, 1, 1, 0, 1, 1, 1}, nn.CausalMask(3).Data())
}

func TestMultiHeadAttention(t *testing.T) {
	l, p := setup(t, nn.NewMultiHeadAttention(nn.DefaultMultiHeadAttentionConfig(2)), tensor.Shape{3, 4}, 0)
	assert.Equal(t, nn.MultiHeadAttentionHyperparams{EmbedDim: 4, NumHeads: 2, HeadDim: 2}, l.Hyperparams())
	assert.Equal(t, 4, p.Trainables.Len())

	x := rng.Normal(rng.New(1), tensor.Shape{3, 4}, 1)
	y := run(t, l, x, p, rng.None, false)
	assert.Equal(t, tensor.Shape{3, 4}, y.Shape())

	// Batched input gives the per-example result.
	lb, err := nn.NewMultiHeadAttention(nn.DefaultMultiHeadAttentionConfig(2)).Setup(layer.LeafDesc(tensor.Shape{2, 3, 4}))
	require.NoError(t, err)
	yb := run(t, lb, tensor.Stack(x.Shape(), []*tensor.Tensor{x, x}), p, rng.None, false)
	assert.True(t, yb.Index(1).AllClose(y, 1e-12))

	_, err = nn.NewMultiHeadAttention(nn.DefaultMultiHeadAttentionConfig(3)).Setup(layer.LeafDesc(tensor.Shape{3, 4}))
	assert.ErrorIs(t, err, layer.ErrInvalidConfig)
}

func TestMultiHeadAttention_Causal(t *testing.T) {
	cfg := nn.MultiHeadAttentionConfig{NumHeads: 1, Causal: true}
	l, p := setup(t, nn.NewMultiHeadAttention(cfg), tensor.Shape{3, 2}, 0)

	x := tensor.MustFromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	changed := tensor.MustFromSlice([]float64{1, 2, 3, 4, -50, 60}, tensor.Shape{3, 2})
	y1, _, err := l.Forward(tree.Leaf(x), p, rng.None, false)
	require.NoError(t, err)
	y2, _, err := l.Forward(tree.Leaf(changed), p, rng.None, false)
	require.NoError(t, err)

	// Earlier positions never see later ones.
	assert.True(t, y1.Value().Index(0).Equal(y2.Value().Index(0)))
	assert.True(t, y1.Value().Index(1).Equal(y2.Value().Index(1)))
	assert.False(t, y1.Value().Index(2).Equal(y2.Value().Index(2)))
}
