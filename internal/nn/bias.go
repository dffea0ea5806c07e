package nn

import (
	"fmt"
	"slices"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// BiasConfig configures a Bias layer.
type BiasConfig struct {
	// Axes lists the input axes the bias spans; negative values count from
	// the end. The bias is broadcast along every other axis.
	Axes []int
	Init Initializer // nil means Zeros
}

// DefaultBiasConfig returns a zero-initialized bias over the last axis.
func DefaultBiasConfig() BiasConfig {
	return BiasConfig{Axes: []int{-1}, Init: Zeros()}
}

// BiasHyperparams is the frozen configuration of a Bias layer.
type BiasHyperparams struct {
	Shape tensor.Shape // shape of the bias trainable
	Axes  []int        // spanned axes, counted from the end of the input
}

// Name implements layer.Hyperparams.
func (BiasHyperparams) Name() string { return "Bias" }

// Bias adds a learned offset: y = x + b.
//
// With Axes {-1} on an input [N, D] the bias has shape [D]. With Axes {1} on a
// channel-first image [N, C, H, W] the bias has shape [C] and is added to
// every pixel of a channel.
type Bias struct {
	descs
	deterministic
	hp   BiasHyperparams
	init Initializer
}

// NewBias creates a Bias blueprint.
func NewBias(cfg BiasConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		shape, err := leafShape("bias", in, 0)
		if err != nil {
			return nil, err
		}
		axes, err := endAxes(shape, cfg.Axes)
		if err != nil {
			return nil, fmt.Errorf("bias: %w", err)
		}
		bshape := make(tensor.Shape, len(axes))
		for i, a := range axes {
			bshape[i] = shape[len(shape)+a]
		}
		init := cfg.Init
		if init == nil {
			init = Zeros()
		}
		return &Bias{
			descs: descs{in: in, out: in},
			hp:    BiasHyperparams{Shape: bshape, Axes: axes},
			init:  init,
		}, nil
	})
}

// endAxes normalizes axes to negative offsets from the end of shape, sorted
// ascending and without duplicates.
func endAxes(shape tensor.Shape, axes []int) ([]int, error) {
	rank := len(shape)
	out := make([]int, len(axes))
	for i, a := range axes {
		if a < -rank || a >= rank {
			return nil, fmt.Errorf("%w: axis %d out of range for rank %d", layer.ErrInvalidConfig, a, rank)
		}
		if a >= 0 {
			a -= rank
		}
		out[i] = a
	}
	slices.Sort(out)
	if len(slices.Compact(slices.Clone(out))) != len(out) {
		return nil, fmt.Errorf("%w: repeated axis in %v", layer.ErrInvalidConfig, axes)
	}
	return out, nil
}

// Hyperparams implements layer.Layer.
func (b *Bias) Hyperparams() layer.Hyperparams { return b.hp }

// Init creates the bias vector.
func (b *Bias) Init(key rng.Key) (layer.Params, error) {
	return layer.Params{
		Trainables:    tree.Leaf(b.init(key, b.hp.Shape)),
		NonTrainables: none(),
	}, nil
}

// Forward adds the bias, broadcasting along the unspanned axes.
func (b *Bias) Forward(x layer.Value, p layer.Params, _ rng.Key, _ bool) (layer.Value, layer.Value, error) {
	bias, err := layer.LeafParam(p.Trainables, b.hp.Shape, "bias")
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	t, err := layer.LeafInput(x)
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("bias: %w", err)
	}
	shape := t.Shape()
	dims := make([]int, len(b.hp.Axes))
	for i, a := range b.hp.Axes {
		d := len(shape) + a
		if d < 0 || shape[d] != b.hp.Shape[i] {
			return layer.Value{}, layer.Value{}, fmt.Errorf("bias: %w: input %v does not match bias %v on axes %v",
				layer.ErrInputMismatch, shape, b.hp.Shape, b.hp.Axes)
		}
		dims[i] = d
	}
	return leaf(t.Add(bias.BroadcastInDim(shape, dims))), p.NonTrainables, nil
}
