package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// Padding selects how Conv pads its input.
type Padding int

const (
	// PaddingValid applies no padding.
	PaddingValid Padding = iota
	// PaddingSame pads so that out = ceil(in / stride), splitting any odd
	// padding with the extra element at the high end.
	PaddingSame
	// PaddingExplicit uses ConvConfig.Pads.
	PaddingExplicit
)

func (p Padding) String() string {
	switch p {
	case PaddingValid:
		return "VALID"
	case PaddingSame:
		return "SAME"
	case PaddingExplicit:
		return "EXPLICIT"
	default:
		return fmt.Sprintf("Padding(%d)", int(p))
	}
}

// ConvConfig configures a 2-D convolution.
type ConvConfig struct {
	OutChannels int
	KernelSize  [2]int
	Strides     [2]int
	Padding     Padding
	Pads        [2][2]int   // (low, high) per spatial axis, with PaddingExplicit
	KernelInit  Initializer // nil means GlorotUniform
}

// DefaultConvConfig returns a stride-1 VALID convolution.
func DefaultConvConfig(outChannels, kernelSize int) ConvConfig {
	return ConvConfig{
		OutChannels: outChannels,
		KernelSize:  [2]int{kernelSize, kernelSize},
		Strides:     [2]int{1, 1},
		Padding:     PaddingValid,
		KernelInit:  GlorotUniform(),
	}
}

// ConvHyperparams is the frozen configuration of a Conv layer. Pads always
// holds the resolved padding.
type ConvHyperparams struct {
	InChannels  int
	OutChannels int
	KernelSize  [2]int
	Strides     [2]int
	Pads        [2][2]int
}

// Name implements layer.Hyperparams.
func (ConvHyperparams) Name() string { return "Conv" }

// Conv is a bias-free 2-D convolution (cross-correlation).
//
// Input shape:  [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out_h = (height + pad_lo + pad_hi - kernel_h) / stride_h + 1
//
// Add a per-channel bias with NewBias(BiasConfig{Axes: []int{1}}).
//
// Example:
//
//	conv := nn.NewConv(nn.DefaultConvConfig(32, 3))
//	l, params, err := layer.Setup(conv, layer.LeafDesc(tensor.Shape{64, 1, 28, 28}), rng.New(0))
//	// output: [64, 32, 26, 26]
type Conv struct {
	descs
	deterministic
	hp   ConvHyperparams
	init Initializer
}

// NewConv creates a Conv blueprint.
func NewConv(cfg ConvConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		if cfg.OutChannels <= 0 || cfg.KernelSize[0] <= 0 || cfg.KernelSize[1] <= 0 {
			return nil, fmt.Errorf("conv: %w: out_channels=%d kernel=%v",
				layer.ErrInvalidConfig, cfg.OutChannels, cfg.KernelSize)
		}
		strides := cfg.Strides
		if strides == [2]int{} {
			strides = [2]int{1, 1}
		}
		if strides[0] <= 0 || strides[1] <= 0 {
			return nil, fmt.Errorf("conv: %w: strides %v", layer.ErrInvalidConfig, strides)
		}
		shape, err := leafShape("conv", in, 4)
		if err != nil {
			return nil, err
		}
		if len(shape) != 4 {
			return nil, fmt.Errorf("conv: %w: input must be [N, C, H, W], got %v", layer.ErrInvalidDesc, shape)
		}

		var pads [2][2]int
		outHW := [2]int{}
		for d := 0; d < 2; d++ {
			size, k, s := shape[2+d], cfg.KernelSize[d], strides[d]
			switch cfg.Padding {
			case PaddingValid:
			case PaddingSame:
				out := (size + s - 1) / s
				total := max((out-1)*s+k-size, 0)
				pads[d] = [2]int{total / 2, total - total/2}
			case PaddingExplicit:
				pads[d] = cfg.Pads[d]
				if pads[d][0] < 0 || pads[d][1] < 0 {
					return nil, fmt.Errorf("conv: %w: negative padding %v", layer.ErrInvalidConfig, cfg.Pads)
				}
			default:
				return nil, fmt.Errorf("conv: %w: unknown padding %v", layer.ErrInvalidConfig, cfg.Padding)
			}
			padded := size + pads[d][0] + pads[d][1]
			if padded < k {
				return nil, fmt.Errorf("conv: %w: kernel %v larger than padded input %v",
					layer.ErrInvalidConfig, cfg.KernelSize, shape[2:])
			}
			outHW[d] = (padded-k)/s + 1
		}

		init := cfg.KernelInit
		if init == nil {
			init = GlorotUniform()
		}
		out := tensor.Shape{shape[0], cfg.OutChannels, outHW[0], outHW[1]}
		return &Conv{
			descs: descs{in: in, out: layer.LeafDesc(out)},
			hp: ConvHyperparams{
				InChannels:  shape[1],
				OutChannels: cfg.OutChannels,
				KernelSize:  cfg.KernelSize,
				Strides:     strides,
				Pads:        pads,
			},
			init: init,
		}, nil
	})
}

// Hyperparams implements layer.Layer.
func (c *Conv) Hyperparams() layer.Hyperparams { return c.hp }

// KernelShape returns [out_channels, in_channels, kernel_h, kernel_w].
func (c *Conv) KernelShape() tensor.Shape {
	return tensor.Shape{c.hp.OutChannels, c.hp.InChannels, c.hp.KernelSize[0], c.hp.KernelSize[1]}
}

// Init creates the kernel.
func (c *Conv) Init(key rng.Key) (layer.Params, error) {
	return layer.Params{
		Trainables:    tree.Leaf(c.init(key, c.KernelShape())),
		NonTrainables: none(),
	}, nil
}

// Forward convolves x with the kernel.
func (c *Conv) Forward(x layer.Value, p layer.Params, _ rng.Key, _ bool) (layer.Value, layer.Value, error) {
	kernel, err := layer.LeafParam(p.Trainables, c.KernelShape(), "conv kernel")
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	t, err := leafInput("conv", x, c.in.Value(), 3)
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	if t.Rank() != 4 {
		return layer.Value{}, layer.Value{}, fmt.Errorf("conv: %w: input must be [N, C, H, W], got %v",
			layer.ErrInputMismatch, t.Shape())
	}
	return leaf(tensor.Conv2D(t, kernel, c.hp.Strides, c.hp.Pads)), p.NonTrainables, nil
}
