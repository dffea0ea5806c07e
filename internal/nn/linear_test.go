package nn_test

import (
	"testing"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/nn"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinear_Forward(t *testing.T) {
	cfg := nn.LinearConfig{OutFeatures: 3, KernelInit: nn.Ones()}
	l, p := setup(t, nn.NewLinear(cfg), tensor.Shape{2, 4}, 0)

	assert.Equal(t, nn.LinearHyperparams{InFeatures: 4, OutFeatures: 3}, l.Hyperparams())
	assert.True(t, layer.DescEqual(layer.LeafDesc(tensor.Shape{2, 3}), l.OutDesc()))
	assert.False(t, l.NeedsKey())

	y := run(t, l, tensor.Ones(tensor.Shape{2, 4}), p, rng.None, false)
	assert.Equal(t, tensor.Shape{2, 3}, y.Shape())
	for _, v := range y.Data() {
		assert.Equal(t, 4.0, v)
	}
}

func TestLinear_Transposed(t *testing.T) {
	// Kernel stored [out, in]: rows (1, 0), (0, 1), (1, 1).
	cfg := nn.LinearConfig{OutFeatures: 3, Transposed: true, KernelInit: fixed(1, 0, 0, 1, 1, 1)}
	l, p := setup(t, nn.NewLinear(cfg), tensor.Shape{1, 2}, 0)
	assert.Equal(t, tensor.Shape{3, 2}, p.Trainables.Value().Shape())

	y := run(t, l, tensor.MustFromSlice([]float64{1, 2}, tensor.Shape{1, 2}), p, rng.None, false)
	assert.Equal(t, []float64{1, 2, 3}, y.Data())
}

func TestLinear_Init(t *testing.T) {
	bp := nn.NewLinear(nn.DefaultLinearConfig(5))
	_, p1 := setup(t, bp, tensor.Shape{3, 4}, 7)
	_, p2 := setup(t, bp, tensor.Shape{3, 4}, 7)
	_, p3 := setup(t, bp, tensor.Shape{3, 4}, 8)

	assert.True(t, valuesEqual(p1.Trainables, p2.Trainables))
	assert.False(t, valuesEqual(p1.Trainables, p3.Trainables))
	assert.True(t, p1.NonTrainables.IsNone())
}

func TestLinear_Errors(t *testing.T) {
	_, err := nn.NewLinear(nn.LinearConfig{}).Setup(layer.LeafDesc(tensor.Shape{2, 4}))
	assert.ErrorIs(t, err, layer.ErrInvalidConfig)

	_, err = nn.NewLinear(nn.DefaultLinearConfig(3)).Setup(layer.LeafDesc(tensor.Shape{}))
	assert.ErrorIs(t, err, layer.ErrInvalidDesc)

	l, p := setup(t, nn.NewLinear(nn.DefaultLinearConfig(3)), tensor.Shape{2, 4}, 0)

	_, _, err = l.Forward(tree.Leaf(tensor.Ones(tensor.Shape{2, 5})), p, rng.None, false)
	assert.ErrorIs(t, err, layer.ErrInputMismatch)

	wrong := layer.Params{Trainables: tree.Leaf(tensor.Ones(tensor.Shape{3, 4})), NonTrainables: p.NonTrainables}
	_, _, err = l.Forward(tree.Leaf(tensor.Ones(tensor.Shape{2, 4})), wrong, rng.None, false)
	assert.ErrorIs(t, err, layer.ErrParamsMismatch)
}

func TestBias(t *testing.T) {
	l, p := setup(t, nn.NewBias(nn.BiasConfig{Axes: []int{1}, Init: fixed(1, 2, 3)}), tensor.Shape{2, 3, 2}, 0)
	assert.Equal(t, nn.BiasHyperparams{Shape: tensor.Shape{3}, Axes: []int{-2}}, l.Hyperparams())

	y := run(t, l, tensor.Zeros(tensor.Shape{2, 3, 2}), p, rng.None, false)
	for b := 0; b < 2; b++ {
		for c := 0; c < 3; c++ {
			for w := 0; w < 2; w++ {
				assert.Equal(t, float64(c+1), y.At(b, c, w))
			}
		}
	}

	// Default: last axis, zero-initialized.
	l, p = setup(t, nn.NewBias(nn.DefaultBiasConfig()), tensor.Shape{2, 4}, 0)
	assert.Equal(t, tensor.Shape{4}, p.Trainables.Value().Shape())
	x := tensor.Full(tensor.Shape{2, 4}, 3)
	assert.True(t, run(t, l, x, p, rng.None, false).Equal(x))
}

func TestBias_Errors(t *testing.T) {
	in := layer.LeafDesc(tensor.Shape{2, 3})
	_, err := nn.NewBias(nn.BiasConfig{Axes: []int{2}}).Setup(in)
	assert.ErrorIs(t, err, layer.ErrInvalidConfig)
	_, err = nn.NewBias(nn.BiasConfig{Axes: []int{1, -1}}).Setup(in)
	assert.ErrorIs(t, err, layer.ErrInvalidConfig)

	l, p := setup(t, nn.NewBias(nn.DefaultBiasConfig()), tensor.Shape{2, 3}, 0)
	_, _, err = l.Forward(tree.Leaf(tensor.Ones(tensor.Shape{2, 4})), p, rng.None, false)
	assert.ErrorIs(t, err, layer.ErrInputMismatch)
	_, _, err = l.Forward(tree.Node(tree.Leaf(tensor.Ones(tensor.Shape{2, 3}))), p, rng.None, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, layer.ErrInputMismatch)
}
