package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/sequence"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// BiLSTMConfig configures a bidirectional LSTM block.
type BiLSTMConfig struct {
	HiddenSize  int
	DropoutRate float64
	Cell        LSTMConfig // HiddenSize is taken from the block
	ProjInit    Initializer
}

// DefaultBiLSTMConfig returns a block with dropout 0.1.
func DefaultBiLSTMConfig(hiddenSize int) BiLSTMConfig {
	return BiLSTMConfig{
		HiddenSize:  hiddenSize,
		DropoutRate: 0.1,
		Cell:        DefaultLSTMConfig(hiddenSize),
		ProjInit:    GlorotUniform(),
	}
}

// BiLSTMHyperparams is the frozen configuration of a BiLSTM block.
type BiLSTMHyperparams struct {
	HiddenSize int
	Forward    layer.Hyperparams
	Backward   layer.Hyperparams
	Dropout    layer.Hyperparams
	Projection layer.Hyperparams
}

// Name implements layer.Hyperparams.
func (BiLSTMHyperparams) Name() string { return "BiLSTM" }

// BiLSTM runs a forward and a reverse LSTM over right-padded sequences.
//
// Input:  Node(xs, mask) with xs [M, E] and mask [M], or xs [B, M, E] and
// mask [B, M]. Mask entries are 1 for valid positions, 0 for padding.
// Output: Node(ys, mask) with ys [..., M, hidden_size].
//
// The reverse direction must start at the last valid token, not at the
// padding. Each sequence is left-aligned before the reverse scan and the scan
// output is right-aligned back, so padding never leaks into valid outputs in
// either direction. The two directions are concatenated, padded positions
// are zeroed, dropout is applied in training mode, and a Linear projection
// maps 2*hidden_size features back to hidden_size.
//
// Trainables and non-trainables are Node(forward, backward, dropout,
// projection), initialized with key.FoldIn(0..3). Only dropout consumes the
// forward key.
type BiLSTM struct {
	descs
	hp       BiLSTMHyperparams
	batched  bool
	fwd, bwd layer.Layer
	dropout  layer.Layer
	proj     layer.Layer
}

// NewBiLSTM creates a BiLSTM blueprint.
func NewBiLSTM(cfg BiLSTMConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		l, err := setupBiLSTM(cfg, in)
		if err != nil {
			return nil, err
		}
		return l, nil
	})
}

func setupBiLSTM(cfg BiLSTMConfig, in layer.Desc) (*BiLSTM, error) {
	if cfg.HiddenSize <= 0 {
		return nil, fmt.Errorf("bilstm: %w: hidden_size must be positive, got %d", layer.ErrInvalidConfig, cfg.HiddenSize)
	}
	if !in.IsNode() || in.Len() != 2 {
		return nil, fmt.Errorf("bilstm: %w: want Node(xs, mask), got %s", layer.ErrInvalidDesc, in)
	}
	xs, err := leafShape("bilstm", in.Child(0), 2)
	if err != nil {
		return nil, err
	}
	mask, err := leafShape("bilstm mask", in.Child(1), 1)
	if err != nil {
		return nil, err
	}
	if len(xs) > 3 || !mask.Equal(xs[:len(xs)-1]) {
		return nil, fmt.Errorf("bilstm: %w: xs %v and mask %v must be [M, E]/[M] or [B, M, E]/[B, M]",
			layer.ErrInvalidDesc, xs, mask)
	}
	batched := len(xs) == 3

	// Scans run time-major: [M, (B,) E] with carry [(B,) H].
	timeMajor := xs.Clone()
	var batch tensor.Shape
	if batched {
		timeMajor = tensor.Shape{xs[1], xs[0], xs[2]}
		batch = tensor.Shape{xs[0]}
	}
	scanIn := layer.NodeDesc(layer.LeafDesc(timeMajor), CarryDesc(batch, cfg.HiddenSize))

	cellCfg := cfg.Cell
	cellCfg.HiddenSize = cfg.HiddenSize
	fwd, err := layer.Recurrent(NewLSTMCell(cellCfg), false).Setup(scanIn)
	if err != nil {
		return nil, fmt.Errorf("bilstm: forward: %w", err)
	}
	bwd, err := layer.Recurrent(NewLSTMCell(cellCfg), true).Setup(scanIn)
	if err != nil {
		return nil, fmt.Errorf("bilstm: backward: %w", err)
	}

	combined := layer.LeafDesc(withLast(xs, 2*cfg.HiddenSize))
	dropout, err := NewDropout(DropoutConfig{Rate: cfg.DropoutRate}).Setup(combined)
	if err != nil {
		return nil, fmt.Errorf("bilstm: %w", err)
	}
	proj, err := NewLinear(LinearConfig{OutFeatures: cfg.HiddenSize, KernelInit: cfg.ProjInit}).Setup(combined)
	if err != nil {
		return nil, fmt.Errorf("bilstm: projection: %w", err)
	}

	return &BiLSTM{
		descs: descs{in: in, out: layer.NodeDesc(proj.OutDesc(), in.Child(1))},
		hp: BiLSTMHyperparams{
			HiddenSize: cfg.HiddenSize,
			Forward:    fwd.Hyperparams(),
			Backward:   bwd.Hyperparams(),
			Dropout:    dropout.Hyperparams(),
			Projection: proj.Hyperparams(),
		},
		batched: batched,
		fwd:     fwd,
		bwd:     bwd,
		dropout: dropout,
		proj:    proj,
	}, nil
}

// Hyperparams implements layer.Layer.
func (b *BiLSTM) Hyperparams() layer.Hyperparams { return b.hp }

// NeedsKey reports true: dropout needs a key in training mode.
func (b *BiLSTM) NeedsKey() bool { return true }

func (b *BiLSTM) parts() []layer.Layer {
	return []layer.Layer{b.fwd, b.bwd, b.dropout, b.proj}
}

// Init initialises the four sub-layers.
func (b *BiLSTM) Init(key rng.Key) (layer.Params, error) {
	parts := b.parts()
	trainables := make([]layer.Value, len(parts))
	nonTrainables := make([]layer.Value, len(parts))
	for i, l := range parts {
		p, err := l.Init(key.FoldIn(i))
		if err != nil {
			return layer.Params{}, fmt.Errorf("bilstm: init %s: %w", l.Hyperparams().Name(), err)
		}
		trainables[i] = p.Trainables
		nonTrainables[i] = p.NonTrainables
	}
	return layer.Params{Trainables: tree.Node(trainables...), NonTrainables: tree.Node(nonTrainables...)}, nil
}

// Forward runs both directions and combines them.
func (b *BiLSTM) Forward(x layer.Value, p layer.Params, key rng.Key, inference bool) (layer.Value, layer.Value, error) {
	fail := func(err error) (layer.Value, layer.Value, error) {
		return layer.Value{}, layer.Value{}, fmt.Errorf("bilstm: %w", err)
	}
	parts := b.parts()
	if !p.Trainables.IsNode() || p.Trainables.Len() != len(parts) ||
		!p.NonTrainables.IsNode() || p.NonTrainables.Len() != len(parts) {
		return fail(fmt.Errorf("%w: want %d sub-layer slots", layer.ErrParamsMismatch, len(parts)))
	}
	if !x.IsNode() || x.Len() != 2 {
		return fail(fmt.Errorf("%w: want Node(xs, mask)", layer.ErrInputMismatch))
	}
	xs, err := layer.LeafInput(x.Child(0))
	if err != nil {
		return fail(err)
	}
	mask, err := layer.LeafInput(x.Child(1))
	if err != nil {
		return fail(err)
	}
	if !xs.Shape().Equal(b.in.Child(0).Value()) || !mask.Shape().Equal(b.in.Child(1).Value()) {
		return fail(fmt.Errorf("%w: xs %v mask %v, set up for %s",
			layer.ErrInputMismatch, xs.Shape(), mask.Shape(), b.in))
	}
	lengths, err := sequence.ValidLengths(mask)
	if err != nil {
		return fail(err)
	}

	ys1, ntr1, err := b.scan(b.fwd, xs, p.Child(0), inference)
	if err != nil {
		return fail(fmt.Errorf("forward: %w", err))
	}

	rev, err := b.align(xs, lengths, sequence.LeftAlign, sequence.LeftAlignBatch)
	if err != nil {
		return fail(err)
	}
	ys2, ntr2, err := b.scan(b.bwd, rev, p.Child(1), inference)
	if err != nil {
		return fail(fmt.Errorf("backward: %w", err))
	}
	ys2, err = b.align(ys2, lengths, sequence.RightAlign, sequence.RightAlignBatch)
	if err != nil {
		return fail(err)
	}

	combined, err := sequence.ApplyMask(tensor.Concat(-1, ys1, ys2), mask)
	if err != nil {
		return fail(err)
	}
	dropped, ntr3, err := b.dropout.Forward(leaf(combined), p.Child(2), key, inference)
	if err != nil {
		return fail(err)
	}
	y, ntr4, err := b.proj.Forward(dropped, p.Child(3), rng.None, inference)
	if err != nil {
		return fail(err)
	}
	return tree.Node(y, x.Child(1)), tree.Node(ntr1, ntr2, ntr3, ntr4), nil
}

// scan runs a recurrent direction over batch-major xs and returns batch-major
// outputs.
func (b *BiLSTM) scan(r layer.Layer, xs *tensor.Tensor, p layer.Params, inference bool) (*tensor.Tensor, layer.Value, error) {
	tm := xs
	var batch tensor.Shape
	if b.batched {
		tm = xs.SwapAxes(0, 1)
		batch = tensor.Shape{xs.Shape()[0]}
	}
	out, ntr, err := r.Forward(tree.Node(leaf(tm), ZeroCarry(batch, b.hp.HiddenSize)), p, rng.None, inference)
	if err != nil {
		return nil, layer.Value{}, err
	}
	ys := out.Child(0).Value()
	if b.batched {
		ys = ys.SwapAxes(0, 1)
	}
	return ys, ntr, nil
}

func (b *BiLSTM) align(
	xs *tensor.Tensor,
	lengths []int,
	single func(*tensor.Tensor, int) (*tensor.Tensor, error),
	batch func(*tensor.Tensor, []int) (*tensor.Tensor, error),
) (*tensor.Tensor, error) {
	if b.batched {
		return batch(xs, lengths)
	}
	return single(xs, lengths[0])
}
