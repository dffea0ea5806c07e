package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// EmbeddingConfig configures an Embedding layer.
type EmbeddingConfig struct {
	NumEmbed int         // vocabulary size
	EmbedDim int         // vector size
	Init     Initializer // nil means Normal(1)
}

// DefaultEmbeddingConfig returns a config with N(0, 1) initialization.
func DefaultEmbeddingConfig(numEmbed, embedDim int) EmbeddingConfig {
	return EmbeddingConfig{NumEmbed: numEmbed, EmbedDim: embedDim, Init: Normal(1)}
}

// EmbeddingHyperparams is the frozen configuration of an Embedding layer.
type EmbeddingHyperparams struct {
	NumEmbed int
	EmbedDim int
}

// Name implements layer.Hyperparams.
func (EmbeddingHyperparams) Name() string { return "Embedding" }

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Architecture:
//   - Trainable: table [NumEmbed, EmbedDim]
//   - Forward: indices [...] -> embeddings [..., EmbedDim]
//
// Indices are carried in an ordinary tensor and must hold integral values in
// [0, NumEmbed).
//
// Example:
//
//	// Vocabulary of 10000 words, embedding dimension 256
//	embed := nn.NewEmbedding(nn.DefaultEmbeddingConfig(10000, 256))
//	l, params, err := layer.Setup(embed, layer.LeafDesc(tensor.Shape{2, 5}), rng.New(0))
//	// output: [2, 5, 256]
type Embedding struct {
	descs
	deterministic
	hp   EmbeddingHyperparams
	init Initializer
}

// NewEmbedding creates an Embedding blueprint.
func NewEmbedding(cfg EmbeddingConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		if cfg.NumEmbed <= 0 || cfg.EmbedDim <= 0 {
			return nil, fmt.Errorf("embedding: %w: num_embed=%d embed_dim=%d",
				layer.ErrInvalidConfig, cfg.NumEmbed, cfg.EmbedDim)
		}
		shape, err := leafShape("embedding", in, 0)
		if err != nil {
			return nil, err
		}
		init := cfg.Init
		if init == nil {
			init = Normal(1)
		}
		return &Embedding{
			descs: descs{in: in, out: layer.LeafDesc(append(shape.Clone(), cfg.EmbedDim))},
			hp:    EmbeddingHyperparams{NumEmbed: cfg.NumEmbed, EmbedDim: cfg.EmbedDim},
			init:  init,
		}, nil
	})
}

// Hyperparams implements layer.Layer.
func (e *Embedding) Hyperparams() layer.Hyperparams { return e.hp }

// Init creates the table.
func (e *Embedding) Init(key rng.Key) (layer.Params, error) {
	return layer.Params{
		Trainables:    tree.Leaf(e.init(key, tensor.Shape{e.hp.NumEmbed, e.hp.EmbedDim})),
		NonTrainables: none(),
	}, nil
}

// Forward gathers one table row per index.
func (e *Embedding) Forward(x layer.Value, p layer.Params, _ rng.Key, _ bool) (layer.Value, layer.Value, error) {
	table, err := layer.LeafParam(p.Trainables, tensor.Shape{e.hp.NumEmbed, e.hp.EmbedDim}, "embedding table")
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	t, err := layer.LeafInput(x)
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("embedding: %w", err)
	}

	data := t.Data()
	ids := make([]int, len(data))
	for i, v := range data {
		// Range-check in float64: converting NaN or ±Inf to int is undefined.
		if v != math.Trunc(v) || v < 0 || v >= float64(e.hp.NumEmbed) {
			return layer.Value{}, layer.Value{}, fmt.Errorf("embedding: %w: index %g out of range [0, %d)",
				layer.ErrInputMismatch, v, e.hp.NumEmbed)
		}
		ids[i] = int(v)
	}
	shape := append(t.Shape().Clone(), e.hp.EmbedDim)
	return leaf(table.Take(ids).Reshape(shape...)), p.NonTrainables, nil
}

// IDs converts token ids into an index tensor of the given shape.
func IDs[T ~int | ~int32 | ~int64](ids []T, shape tensor.Shape) (*tensor.Tensor, error) {
	data := make([]float64, len(ids))
	for i, id := range ids {
		data[i] = float64(id)
	}
	return tensor.FromSlice(data, shape)
}
