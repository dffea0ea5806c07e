package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// MultiHeadAttentionConfig configures self-attention.
type MultiHeadAttentionConfig struct {
	NumHeads int
	Causal   bool // position i attends only to positions j <= i
}

// DefaultMultiHeadAttentionConfig returns a non-causal config.
func DefaultMultiHeadAttentionConfig(numHeads int) MultiHeadAttentionConfig {
	return MultiHeadAttentionConfig{NumHeads: numHeads}
}

// MultiHeadAttentionHyperparams is the frozen configuration of a
// MultiHeadAttention layer.
type MultiHeadAttentionHyperparams struct {
	EmbedDim int
	NumHeads int
	HeadDim  int
	Causal   bool
}

// Name implements layer.Hyperparams.
func (MultiHeadAttentionHyperparams) Name() string { return "MultiHeadAttention" }

// MultiHeadAttention implements multi-head self-attention.
//
// Architecture:
//
//	MHA(x) = Concat(head_1, ..., head_h) * W_O
//	head_i = softmax(Q_i K_i^T / sqrt(d)) V_i,  Q = x W_Q, K = x W_K, V = x W_V
//
// Input [T, embed_dim] or [batch, T, embed_dim]; output has the same shape.
// Trainables are Node(W_Q, W_K, W_V, W_O), each a Linear kernel initialized
// with key.FoldIn(0..3).
type MultiHeadAttention struct {
	descs
	deterministic
	hp   MultiHeadAttentionHyperparams
	proj [4]layer.Layer // q, k, v, o
}

// NewMultiHeadAttention creates a MultiHeadAttention blueprint. The embedding
// dimension is read from the input and must be divisible by NumHeads.
func NewMultiHeadAttention(cfg MultiHeadAttentionConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		shape, err := leafShape("mha", in, 2)
		if err != nil {
			return nil, err
		}
		if len(shape) > 3 {
			return nil, fmt.Errorf("mha: %w: input must be [T, E] or [B, T, E], got %v", layer.ErrInvalidDesc, shape)
		}
		embed := shape[len(shape)-1]
		if cfg.NumHeads <= 0 || embed%cfg.NumHeads != 0 {
			return nil, fmt.Errorf("mha: %w: embed_dim (%d) must be divisible by num_heads (%d)",
				layer.ErrInvalidConfig, embed, cfg.NumHeads)
		}

		m := &MultiHeadAttention{
			descs: descs{in: in, out: in},
			hp: MultiHeadAttentionHyperparams{
				EmbedDim: embed,
				NumHeads: cfg.NumHeads,
				HeadDim:  embed / cfg.NumHeads,
				Causal:   cfg.Causal,
			},
		}
		for i := range m.proj {
			l, err := NewLinear(DefaultLinearConfig(embed)).Setup(in)
			if err != nil {
				return nil, fmt.Errorf("mha: projection %d: %w", i, err)
			}
			m.proj[i] = l
		}
		return m, nil
	})
}

// Hyperparams implements layer.Layer.
func (m *MultiHeadAttention) Hyperparams() layer.Hyperparams { return m.hp }

// Init creates the four projection kernels.
func (m *MultiHeadAttention) Init(key rng.Key) (layer.Params, error) {
	kernels := make([]layer.Value, len(m.proj))
	for i, l := range m.proj {
		p, err := l.Init(key.FoldIn(i))
		if err != nil {
			return layer.Params{}, fmt.Errorf("mha: init projection %d: %w", i, err)
		}
		kernels[i] = p.Trainables
	}
	return layer.Params{Trainables: tree.Node(kernels...), NonTrainables: none()}, nil
}

// Forward computes self-attention over x.
func (m *MultiHeadAttention) Forward(x layer.Value, p layer.Params, _ rng.Key, _ bool) (layer.Value, layer.Value, error) {
	if !p.Trainables.IsNode() || p.Trainables.Len() != len(m.proj) {
		return layer.Value{}, layer.Value{}, fmt.Errorf("mha: %w: want %d projection kernels, got %s",
			layer.ErrParamsMismatch, len(m.proj), p.Trainables.Kind())
	}
	t, err := leafInput("mha", x, m.in.Value(), 1)
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	if t.Rank() != m.in.Value().Rank() {
		return layer.Value{}, layer.Value{}, fmt.Errorf("mha: %w: input %v, set up for %v",
			layer.ErrInputMismatch, t.Shape(), m.in.Value())
	}

	project := func(i int, v *tensor.Tensor) (*tensor.Tensor, error) {
		y, _, err := m.proj[i].Forward(leaf(v), layer.Params{Trainables: p.Trainables.Child(i), NonTrainables: none()},
			rng.None, false)
		if err != nil {
			return nil, fmt.Errorf("mha: projection %d: %w", i, err)
		}
		return y.Value(), nil
	}

	// [..., T, E] -> [..., T, heads, head_dim]
	split := func(v *tensor.Tensor) *tensor.Tensor {
		shape := v.Shape()
		dims := append(shape[:len(shape)-1].Clone(), m.hp.NumHeads, m.hp.HeadDim)
		return v.Reshape(dims...)
	}

	var qkv [3]*tensor.Tensor
	for i := range qkv {
		v, err := project(i, t)
		if err != nil {
			return layer.Value{}, layer.Value{}, err
		}
		qkv[i] = split(v)
	}

	logits, err := DotProductAttentionLogits(qkv[0], qkv[1])
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("mha: %w", err)
	}
	var mask *tensor.Tensor
	if m.hp.Causal {
		mask = CausalMask(t.Shape()[t.Rank()-2])
	}
	weights, err := MaskedSoftmax(logits, mask)
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("mha: %w", err)
	}
	heads, err := ApplyAttentionWeights(weights, qkv[2])
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("mha: %w", err)
	}

	y, err := project(3, heads.Reshape(t.Shape()...))
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	return leaf(y), p.NonTrainables, nil
}
