package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
)

// MaxPoolConfig configures a MaxPool layer.
type MaxPoolConfig struct {
	Window int
	Stride int
}

// DefaultMaxPoolConfig returns the common 2x2 window with stride 2.
func DefaultMaxPoolConfig() MaxPoolConfig {
	return MaxPoolConfig{Window: 2, Stride: 2}
}

// MaxPoolHyperparams is the frozen configuration of a MaxPool layer.
type MaxPoolHyperparams struct {
	Window int
	Stride int
}

// Name implements layer.Hyperparams.
func (MaxPoolHyperparams) Name() string { return "MaxPool" }

// MaxPool is a 2-D max pooling layer.
//
// Max pooling reduces spatial dimensions by taking the maximum value in each
// window. It has no params.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height - window) / stride + 1
//	out_width = (width - window) / stride + 1
type MaxPool struct {
	descs
	deterministic
	hp MaxPoolHyperparams
}

// NewMaxPool creates a MaxPool blueprint.
func NewMaxPool(cfg MaxPoolConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		if cfg.Window <= 0 || cfg.Stride <= 0 {
			return nil, fmt.Errorf("maxpool: %w: window=%d stride=%d", layer.ErrInvalidConfig, cfg.Window, cfg.Stride)
		}
		shape, err := leafShape("maxpool", in, 4)
		if err != nil {
			return nil, err
		}
		if len(shape) != 4 || shape[2] < cfg.Window || shape[3] < cfg.Window {
			return nil, fmt.Errorf("maxpool: %w: input %v for window %d", layer.ErrInvalidDesc, shape, cfg.Window)
		}
		out := tensor.Shape{
			shape[0], shape[1],
			(shape[2]-cfg.Window)/cfg.Stride + 1,
			(shape[3]-cfg.Window)/cfg.Stride + 1,
		}
		return &MaxPool{descs: descs{in: in, out: layer.LeafDesc(out)}, hp: MaxPoolHyperparams(cfg)}, nil
	})
}

// Hyperparams implements layer.Layer.
func (m *MaxPool) Hyperparams() layer.Hyperparams { return m.hp }

// Init implements layer.Layer.
func (m *MaxPool) Init(_ rng.Key) (layer.Params, error) {
	return noParams(), nil
}

// Forward pools x.
func (m *MaxPool) Forward(x layer.Value, p layer.Params, _ rng.Key, _ bool) (layer.Value, layer.Value, error) {
	t, err := leafInput("maxpool", x, m.in.Value(), 3)
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	if t.Rank() != 4 {
		return layer.Value{}, layer.Value{}, fmt.Errorf("maxpool: %w: input %v", layer.ErrInputMismatch, t.Shape())
	}
	return leaf(tensor.MaxPool2D(t, m.hp.Window, m.hp.Stride)), p.NonTrainables, nil
}
