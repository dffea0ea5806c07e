package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// LSTMConfig configures an LSTM cell.
type LSTMConfig struct {
	HiddenSize    int
	KernelInit    Initializer // input projection; nil means GlorotUniform
	RecurrentInit Initializer // hidden projection; nil means GlorotUniform
	BiasInit      Initializer // nil means Zeros
}

// DefaultLSTMConfig returns a Glorot-initialized cell.
func DefaultLSTMConfig(hiddenSize int) LSTMConfig {
	return LSTMConfig{
		HiddenSize:    hiddenSize,
		KernelInit:    GlorotUniform(),
		RecurrentInit: GlorotUniform(),
		BiasInit:      Zeros(),
	}
}

// LSTMHyperparams is the frozen configuration of an LSTM cell.
type LSTMHyperparams struct {
	InputSize  int
	HiddenSize int
}

// Name implements layer.Hyperparams.
func (LSTMHyperparams) Name() string { return "LSTMCell" }

// LSTMCell is one step of a long short-term memory network.
//
// Input:  Node(x [..., input_size], Node(h, c)) with h, c [..., hidden_size]
// Output: Node(h', Node(h', c'))
//
// The four gates come from one concatenated projection:
//
//	z = x W_x + h W_h + b              (z has 4*hidden_size features)
//	i, f, g, o = split(z, 4)
//	c' = sigmoid(f)*c + sigmoid(i)*tanh(g)
//	h' = sigmoid(o)*tanh(c')
//
// Trainables are Node(W_x, W_h, b). W_x and W_h are transposed Linear kernels
// [4*hidden, in] initialized from key.FoldIn(0) and key.FoldIn(1); b comes
// from key.FoldIn(2). Wrap the cell with layer.Recurrent to scan a sequence.
type LSTMCell struct {
	descs
	deterministic
	hp                    LSTMHyperparams
	inProj, hidProj, bias layer.Layer
}

// NewLSTMCell creates an LSTMCell blueprint.
func NewLSTMCell(cfg LSTMConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		if cfg.HiddenSize <= 0 {
			return nil, fmt.Errorf("lstm: %w: hidden_size must be positive, got %d",
				layer.ErrInvalidConfig, cfg.HiddenSize)
		}
		if !in.IsNode() || in.Len() != 2 {
			return nil, fmt.Errorf("lstm: %w: want Node(x, Node(h, c)), got %s", layer.ErrInvalidDesc, in)
		}
		x, err := leafShape("lstm", in.Child(0), 1)
		if err != nil {
			return nil, err
		}
		want := withLast(x, cfg.HiddenSize)
		carry := layer.NodeDesc(layer.LeafDesc(want), layer.LeafDesc(want))
		if !layer.DescEqual(in.Child(1), carry) {
			return nil, fmt.Errorf("lstm: %w: carry %s, want %s", layer.ErrCarryMismatch, in.Child(1), carry)
		}

		gates := 4 * cfg.HiddenSize
		inProj, err := NewLinear(LinearConfig{OutFeatures: gates, Transposed: true, KernelInit: cfg.KernelInit}).
			Setup(in.Child(0))
		if err != nil {
			return nil, fmt.Errorf("lstm: input projection: %w", err)
		}
		hidProj, err := NewLinear(LinearConfig{OutFeatures: gates, Transposed: true, KernelInit: cfg.RecurrentInit}).
			Setup(layer.LeafDesc(want))
		if err != nil {
			return nil, fmt.Errorf("lstm: hidden projection: %w", err)
		}
		bias, err := NewBias(BiasConfig{Axes: []int{-1}, Init: cfg.BiasInit}).Setup(inProj.OutDesc())
		if err != nil {
			return nil, fmt.Errorf("lstm: bias: %w", err)
		}

		h := layer.LeafDesc(want)
		return &LSTMCell{
			descs:   descs{in: in, out: layer.NodeDesc(h, carry)},
			hp:      LSTMHyperparams{InputSize: x[len(x)-1], HiddenSize: cfg.HiddenSize},
			inProj:  inProj,
			hidProj: hidProj,
			bias:    bias,
		}, nil
	})
}

// Hyperparams implements layer.Layer.
func (l *LSTMCell) Hyperparams() layer.Hyperparams { return l.hp }

// Init creates the two projections and the gate bias.
func (l *LSTMCell) Init(key rng.Key) (layer.Params, error) {
	subs := []layer.Layer{l.inProj, l.hidProj, l.bias}
	trainables := make([]layer.Value, len(subs))
	for i, sub := range subs {
		p, err := sub.Init(key.FoldIn(i))
		if err != nil {
			return layer.Params{}, fmt.Errorf("lstm: init %d: %w", i, err)
		}
		trainables[i] = p.Trainables
	}
	return layer.Params{Trainables: tree.Node(trainables...), NonTrainables: none()}, nil
}

// Forward runs one step.
func (l *LSTMCell) Forward(x layer.Value, p layer.Params, _ rng.Key, _ bool) (layer.Value, layer.Value, error) {
	if !p.Trainables.IsNode() || p.Trainables.Len() != 3 {
		return layer.Value{}, layer.Value{}, fmt.Errorf("lstm: %w: want Node(W_x, W_h, b), got %s",
			layer.ErrParamsMismatch, p.Trainables.Kind())
	}
	if !x.IsNode() || x.Len() != 2 || !x.Child(1).IsNode() || x.Child(1).Len() != 2 {
		return layer.Value{}, layer.Value{}, fmt.Errorf("lstm: %w: want Node(x, Node(h, c))", layer.ErrInputMismatch)
	}
	h, err := layer.LeafInput(x.Child(1).Child(0))
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("lstm: h: %w", err)
	}
	c, err := layer.LeafInput(x.Child(1).Child(1))
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("lstm: c: %w", err)
	}

	sub := func(i int) layer.Params {
		return layer.Params{Trainables: p.Trainables.Child(i), NonTrainables: none()}
	}
	zx, _, err := l.inProj.Forward(x.Child(0), sub(0), rng.None, false)
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("lstm: %w", err)
	}
	zh, _, err := l.hidProj.Forward(leaf(h), sub(1), rng.None, false)
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("lstm: %w", err)
	}
	z, _, err := l.bias.Forward(leaf(zx.Value().Add(zh.Value())), sub(2), rng.None, false)
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("lstm: %w", err)
	}
	if !c.Shape().Equal(h.Shape()) {
		return layer.Value{}, layer.Value{}, fmt.Errorf("lstm: %w: h %v and c %v differ",
			layer.ErrInputMismatch, h.Shape(), c.Shape())
	}

	gates := z.Value().Split(-1, 4)
	i, f, g, o := gates[0].Sigmoid(), gates[1].Sigmoid(), gates[2].Tanh(), gates[3].Sigmoid()
	cNext := f.Mul(c).Add(i.Mul(g))
	hNext := o.Mul(cNext.Tanh())
	return tree.Node(leaf(hNext), tree.Node(leaf(hNext), leaf(cNext))), p.NonTrainables, nil
}

// ZeroCarry returns the initial Node(h, c) for inputs whose leading (batch)
// axes are batch.
func ZeroCarry(batch tensor.Shape, hiddenSize int) layer.Value {
	shape := append(batch.Clone(), hiddenSize)
	return tree.Node(leaf(tensor.Zeros(shape)), leaf(tensor.Zeros(shape)))
}

// CarryDesc describes ZeroCarry(batch, hiddenSize).
func CarryDesc(batch tensor.Shape, hiddenSize int) layer.Desc {
	shape := append(batch.Clone(), hiddenSize)
	return layer.NodeDesc(layer.LeafDesc(shape), layer.LeafDesc(shape))
}
