package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// LinearConfig configures a Linear layer.
type LinearConfig struct {
	OutFeatures int
	Transposed  bool        // store the kernel as [out_features, in_features]
	KernelInit  Initializer // nil means GlorotUniform
}

// DefaultLinearConfig returns a Glorot-initialized, untransposed config.
func DefaultLinearConfig(outFeatures int) LinearConfig {
	return LinearConfig{
		OutFeatures: outFeatures,
		KernelInit:  GlorotUniform(),
	}
}

// LinearHyperparams is the frozen configuration of a Linear layer.
type LinearHyperparams struct {
	InFeatures  int
	OutFeatures int
	Transposed  bool
}

// Name implements layer.Hyperparams.
func (LinearHyperparams) Name() string { return "Linear" }

// Linear implements a bias-free dense projection over the last axis.
//
// Performs y = x @ W where:
//   - x has shape [..., in_features]
//   - W has shape [in_features, out_features] ([out_features, in_features]
//     when Transposed, applied as x @ W.T)
//   - y has shape [..., out_features]
//
// Leading axes are batch axes. Pair with Bias for an affine layer.
//
// Example:
//
//	bp := nn.NewLinear(nn.DefaultLinearConfig(128))
//	lin, params, err := layer.Setup(bp, layer.LeafDesc(tensor.Shape{32, 784}), rng.New(0))
//	y, _, err := lin.Forward(tree.Leaf(x), params, rng.None, false) // [32, 128]
type Linear struct {
	descs
	deterministic
	hp   LinearHyperparams
	init Initializer
}

// NewLinear creates a Linear blueprint.
func NewLinear(cfg LinearConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		if cfg.OutFeatures <= 0 {
			return nil, fmt.Errorf("linear: %w: out_features must be positive, got %d",
				layer.ErrInvalidConfig, cfg.OutFeatures)
		}
		shape, err := leafShape("linear", in, 1)
		if err != nil {
			return nil, err
		}
		init := cfg.KernelInit
		if init == nil {
			init = GlorotUniform()
		}
		return &Linear{
			descs: descs{in: in, out: layer.LeafDesc(withLast(shape, cfg.OutFeatures))},
			hp: LinearHyperparams{
				InFeatures:  shape[len(shape)-1],
				OutFeatures: cfg.OutFeatures,
				Transposed:  cfg.Transposed,
			},
			init: init,
		}, nil
	})
}

// Hyperparams implements layer.Layer.
func (l *Linear) Hyperparams() layer.Hyperparams { return l.hp }

// KernelShape returns the shape of the kernel trainable.
func (l *Linear) KernelShape() tensor.Shape {
	if l.hp.Transposed {
		return tensor.Shape{l.hp.OutFeatures, l.hp.InFeatures}
	}
	return tensor.Shape{l.hp.InFeatures, l.hp.OutFeatures}
}

// Init creates the kernel. Linear has no non-trainables.
func (l *Linear) Init(key rng.Key) (layer.Params, error) {
	return layer.Params{
		Trainables:    tree.Leaf(l.init(key, l.KernelShape())),
		NonTrainables: none(),
	}, nil
}

// Forward computes x @ W.
func (l *Linear) Forward(x layer.Value, p layer.Params, _ rng.Key, _ bool) (layer.Value, layer.Value, error) {
	kernel, err := layer.LeafParam(p.Trainables, l.KernelShape(), "linear kernel")
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	t, err := leafInput("linear", x, tensor.Shape{l.hp.InFeatures}, 1)
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	if l.hp.Transposed {
		kernel = kernel.Transpose()
	}
	return leaf(t.MatMul(kernel)), p.NonTrainables, nil
}
