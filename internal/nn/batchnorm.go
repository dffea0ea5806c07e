package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// BatchNormConfig configures batch normalization.
type BatchNormConfig struct {
	Axis     int     // channel axis; negative values count from the end
	Momentum float64 // weight of the old running statistic in each update
	Epsilon  float64
}

// DefaultBatchNormConfig returns the channel-first configuration
// (axis 1, momentum 0.9, epsilon 1e-5).
func DefaultBatchNormConfig() BatchNormConfig {
	return BatchNormConfig{Axis: 1, Momentum: 0.9, Epsilon: 1e-5}
}

// BatchNormHyperparams is the frozen configuration of a BatchNorm layer.
type BatchNormHyperparams struct {
	Axis     int // resolved, non-negative
	Channels int
	Momentum float64
	Epsilon  float64
}

// Name implements layer.Hyperparams.
func (BatchNormHyperparams) Name() string { return "BatchNorm" }

// BatchNorm normalizes each channel over all other axes.
//
// Trainables are Node(scale, offset); non-trainables are the running
// Node(mean, var), initialized to zeros and ones. In training mode the batch
// statistics normalize the input and the running statistics are updated as
//
//	running = running*momentum + batch*(1 - momentum)
//
// In inference mode the running statistics normalize the input and are
// returned unchanged.
type BatchNorm struct {
	descs
	deterministic
	hp   BatchNormHyperparams
	rank int
}

// NewBatchNorm creates a BatchNorm blueprint.
func NewBatchNorm(cfg BatchNormConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		if cfg.Momentum < 0 || cfg.Momentum > 1 || cfg.Epsilon < 0 {
			return nil, fmt.Errorf("batchnorm: %w: momentum=%g epsilon=%g",
				layer.ErrInvalidConfig, cfg.Momentum, cfg.Epsilon)
		}
		shape, err := leafShape("batchnorm", in, 1)
		if err != nil {
			return nil, err
		}
		if cfg.Axis < -len(shape) || cfg.Axis >= len(shape) {
			return nil, fmt.Errorf("batchnorm: %w: axis %d out of range for %v",
				layer.ErrInvalidConfig, cfg.Axis, shape)
		}
		axis := shape.Axis(cfg.Axis)
		return &BatchNorm{
			descs: descs{in: in, out: in},
			hp: BatchNormHyperparams{
				Axis:     axis,
				Channels: shape[axis],
				Momentum: cfg.Momentum,
				Epsilon:  cfg.Epsilon,
			},
			rank: len(shape),
		}, nil
	})
}

// Hyperparams implements layer.Layer.
func (b *BatchNorm) Hyperparams() layer.Hyperparams { return b.hp }

// Init returns unit scale, zero offset and fresh running statistics.
func (b *BatchNorm) Init(_ rng.Key) (layer.Params, error) {
	c := tensor.Shape{b.hp.Channels}
	return layer.Params{
		Trainables:    tree.Node(leaf(tensor.Ones(c)), leaf(tensor.Zeros(c))),
		NonTrainables: tree.Node(leaf(tensor.Zeros(c)), leaf(tensor.Ones(c))),
	}, nil
}

// Forward normalizes x and, in training mode, updates the running statistics.
func (b *BatchNorm) Forward(x layer.Value, p layer.Params, _ rng.Key, inference bool) (layer.Value, layer.Value, error) {
	c := tensor.Shape{b.hp.Channels}
	scale, offset, err := pair(p.Trainables, c, "batchnorm scale", "batchnorm offset")
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	runMean, runVar, err := pair(p.NonTrainables, c, "batchnorm running mean", "batchnorm running var")
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	t, err := layer.LeafInput(x)
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("batchnorm: %w", err)
	}
	if t.Rank() != b.rank || t.Shape()[b.hp.Axis] != b.hp.Channels {
		return layer.Value{}, layer.Value{}, fmt.Errorf("batchnorm: %w: input %v, want %d channels on axis %d",
			layer.ErrInputMismatch, t.Shape(), b.hp.Channels, b.hp.Axis)
	}

	mean, variance := runMean, runVar
	next := p.NonTrainables
	if !inference {
		mean, variance = t.MomentsExcept(b.hp.Axis)
		m := b.hp.Momentum
		next = tree.Node(
			leaf(runMean.MulScalar(m).Add(mean.MulScalar(1-m))),
			leaf(runVar.MulScalar(m).Add(variance.MulScalar(1-m))),
		)
	}

	shape := t.Shape()
	dims := []int{b.hp.Axis}
	inv := variance.AddScalar(b.hp.Epsilon).Rsqrt().Mul(scale)
	y := t.Sub(mean.BroadcastInDim(shape, dims)).
		Mul(inv.BroadcastInDim(shape, dims)).
		Add(offset.BroadcastInDim(shape, dims))
	return leaf(y), next, nil
}

// pair extracts Node(a, b) of two tensors with the same shape.
func pair(v layer.Value, shape tensor.Shape, first, second string) (*tensor.Tensor, *tensor.Tensor, error) {
	if !v.IsNode() || v.Len() != 2 {
		return nil, nil, fmt.Errorf("%w: %s/%s: want a pair, got %s", layer.ErrParamsMismatch, first, second, v.Kind())
	}
	a, err := layer.LeafParam(v.Child(0), shape, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := layer.LeafParam(v.Child(1), shape, second)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
