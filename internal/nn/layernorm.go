package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// LayerNormConfig configures layer normalization.
type LayerNormConfig struct {
	Epsilon float64
}

// DefaultLayerNormConfig returns epsilon 1e-5.
func DefaultLayerNormConfig() LayerNormConfig {
	return LayerNormConfig{Epsilon: 1e-5}
}

// LayerNormHyperparams is the frozen configuration of a LayerNorm layer.
type LayerNormHyperparams struct {
	Features int
	Epsilon  float64
}

// Name implements layer.Hyperparams.
func (LayerNormHyperparams) Name() string { return "LayerNorm" }

// LayerNorm applies Layer Normalization along the last dimension.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Where:
//   - gamma is the learnable scale [features], initialized to ones
//   - beta is the learnable shift [features], initialized to zeros
//   - mean and variance are computed along the last dimension
//
// Trainables are Node(gamma, beta). Unlike BatchNorm the statistics are
// per example, so training and inference behave identically.
type LayerNorm struct {
	descs
	deterministic
	hp LayerNormHyperparams
}

// NewLayerNorm creates a LayerNorm blueprint.
func NewLayerNorm(cfg LayerNormConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		if cfg.Epsilon < 0 {
			return nil, fmt.Errorf("layernorm: %w: epsilon %g", layer.ErrInvalidConfig, cfg.Epsilon)
		}
		shape, err := leafShape("layernorm", in, 1)
		if err != nil {
			return nil, err
		}
		return &LayerNorm{
			descs: descs{in: in, out: in},
			hp:    LayerNormHyperparams{Features: shape[len(shape)-1], Epsilon: cfg.Epsilon},
		}, nil
	})
}

// Hyperparams implements layer.Layer.
func (l *LayerNorm) Hyperparams() layer.Hyperparams { return l.hp }

// Init returns gamma = 1 and beta = 0.
func (l *LayerNorm) Init(_ rng.Key) (layer.Params, error) {
	d := tensor.Shape{l.hp.Features}
	return layer.Params{
		Trainables:    tree.Node(leaf(tensor.Ones(d)), leaf(tensor.Zeros(d))),
		NonTrainables: none(),
	}, nil
}

// Forward normalizes x over its last axis.
func (l *LayerNorm) Forward(x layer.Value, p layer.Params, _ rng.Key, _ bool) (layer.Value, layer.Value, error) {
	gamma, beta, err := pair(p.Trainables, tensor.Shape{l.hp.Features}, "layernorm gamma", "layernorm beta")
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	t, err := leafInput("layernorm", x, tensor.Shape{l.hp.Features}, 1)
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}

	centered := t.Sub(t.MeanAxis(-1, true))
	variance := centered.Mul(centered).MeanAxis(-1, true)
	y := centered.Mul(variance.AddScalar(l.hp.Epsilon).Rsqrt()).Mul(gamma).Add(beta)
	return leaf(y), p.NonTrainables, nil
}
