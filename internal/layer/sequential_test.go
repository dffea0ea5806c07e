package layer_test

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

func affine() []layer.Blueprint {
	return []layer.Blueprint{
		nn.NewLinear(nn.LinearConfig{OutFeatures: 3, KernelInit: nn.Ones()}),
		nn.NewBias(nn.BiasConfig{Axes: []int{-1}, Init: nn.Ones()}),
	}
}

func TestSequential_Series(t *testing.T) {
	x := tree.Leaf(tensor.Ones(tensor.Shape{2, 4}))

	l, p, err := layer.Setup(layer.Sequential(affine()...), leaf(2, 4), rng.New(0))
	require.NoError(t, err)
	assert.True(t, layer.DescEqual(leaf(2, 3), l.OutDesc()))

	y, _, err := l.Forward(x, p, rng.None, false)
	require.NoError(t, err)
	assert.True(t, y.Value().Equal(tensor.Full(tensor.Shape{2, 3}, 5)))

	double := nn.F("double",
		nn.OnLeaves(func(t *tensor.Tensor) *tensor.Tensor { return t }),
		nn.OnLeaves(func(t *tensor.Tensor) *tensor.Tensor { return t.MulScalar(2) }))
	l, p, err = layer.Setup(layer.Sequential(append(affine(), double)...), leaf(2, 4), rng.New(0))
	require.NoError(t, err)

	y, _, err = l.Forward(x, p, rng.None, false)
	require.NoError(t, err)
	assert.True(t, y.Value().Equal(tensor.Full(tensor.Shape{2, 3}, 5)))

	y, _, err = l.Forward(x, p, rng.None, true)
	require.NoError(t, err)
	assert.True(t, y.Value().Equal(tensor.Full(tensor.Shape{2, 3}, 10)))
}

func TestSequential_Order(t *testing.T) {
	l, p, err := layer.Setup(layer.Sequential(addOne(), timesTwo()), leaf(1), rng.New(0))
	require.NoError(t, err)
	y, _, err := l.Forward(tree.Leaf(tensor.Ones(tensor.Shape{1})), p, rng.None, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, y.Value().Data(), "(1+1)*2, not 1*2+1")

	seq := l.(*layer.SequentialLayer)
	assert.Equal(t, 2, seq.Len())
	assert.Equal(t, "add_one", seq.Layer(0).Hyperparams().Name())
	assert.Equal(t, "times_two", seq.Layer(1).Hyperparams().Name())
}

func TestSequential_InitFoldsIn(t *testing.T) {
	lin := nn.NewLinear(nn.DefaultLinearConfig(4))
	l, p, err := layer.Setup(layer.Sequential(lin, lin), leaf(2, 4), rng.New(1))
	require.NoError(t, err)

	seq := l.(*layer.SequentialLayer)
	for i := 0; i < 2; i++ {
		want, err := seq.Layer(i).Init(rng.New(1).FoldIn(i))
		require.NoError(t, err)
		assert.True(t, valuesEqual(want.Trainables, p.Trainables.Child(i)), "layer %d", i)
	}
	assert.False(t, valuesEqual(p.Trainables.Child(0), p.Trainables.Child(1)))
}

func TestSequential_NonTrainablesPerChild(t *testing.T) {
	l, p, err := layer.Setup(layer.Sequential(
		nn.NewLinear(nn.DefaultLinearConfig(3)),
		nn.NewBatchNorm(nn.BatchNormConfig{Axis: -1, Momentum: 0.5, Epsilon: 1e-5}),
		nn.ReLU(),
	), leaf(4, 2), rng.New(0))
	require.NoError(t, err)

	_, ntr, err := l.Forward(tree.Leaf(rng.Normal(rng.New(1), tensor.Shape{4, 2}, 1)), p, rng.None, false)
	require.NoError(t, err)
	require.Equal(t, 3, ntr.Len())
	assert.True(t, ntr.Child(0).IsNone())
	assert.Equal(t, 2, ntr.Child(1).Len())
	assert.True(t, ntr.Child(2).IsNone())
}

func TestSequential_KeyFanOut(t *testing.T) {
	root := rng.New(7)
	split := root.Split(2)
	x := tree.Leaf(tensor.Ones(tensor.Shape{2}))

	var a, c rng.Key
	for _, bp := range []layer.Blueprint{
		layer.Sequential(recorder(&a), addOne(), recorder(&c)),
		layer.Sequential(recorder(&a), recorder(&c)),
		layer.Sequential(addOne(), recorder(&a), timesTwo(), recorder(&c), addOne()),
	} {
		l, p, err := layer.Setup(bp, leaf(2), rng.New(0))
		require.NoError(t, err)
		assert.True(t, l.NeedsKey())
		_, _, err = l.Forward(x, p, root, false)
		require.NoError(t, err)

		// Only the ordered set of stochastic children decides their streams.
		assert.Equal(t, split[0], a)
		assert.Equal(t, split[1], c)
	}
}

func TestSequential_SingleStochasticChild(t *testing.T) {
	root := rng.New(7)
	var seen rng.Key
	l, p, err := layer.Setup(layer.Sequential(addOne(), recorder(&seen)), leaf(2), rng.New(0))
	require.NoError(t, err)
	_, _, err = l.Forward(tree.Leaf(tensor.Ones(tensor.Shape{2})), p, root, false)
	require.NoError(t, err)
	assert.Equal(t, root, seen)

	l, _, err = layer.Setup(layer.Sequential(addOne(), timesTwo()), leaf(2), rng.New(0))
	require.NoError(t, err)
	assert.False(t, l.NeedsKey())
}

func TestSequential_Errors(t *testing.T) {
	_, err := layer.Sequential(nn.NewLinear(nn.LinearConfig{})).Setup(leaf(2, 4))
	assert.ErrorIs(t, err, layer.ErrInvalidConfig)

	l, p, err := layer.Setup(layer.Sequential(affine()...), leaf(2, 4), rng.New(0))
	require.NoError(t, err)
	x := tree.Leaf(tensor.Ones(tensor.Shape{2, 4}))

	short := layer.Params{Trainables: tree.Node(p.Trainables.Child(0)), NonTrainables: p.NonTrainables}
	_, _, err = l.Forward(x, short, rng.None, false)
	assert.ErrorIs(t, err, layer.ErrParamsMismatch)

	swapped := layer.Params{
		Trainables:    tree.Node(p.Trainables.Child(1), p.Trainables.Child(0)),
		NonTrainables: p.NonTrainables,
	}
	_, _, err = l.Forward(x, swapped, rng.None, false)
	assert.ErrorIs(t, err, layer.ErrParamsMismatch)

	// A stochastic child without a key fails, and the error carries position context.
	l, p, err = layer.Setup(layer.Sequential(addOne(), nn.NewDropout(nn.DropoutConfig{Rate: 0.5})), leaf(2), rng.New(0))
	require.NoError(t, err)
	_, _, err = l.Forward(tree.Leaf(tensor.Ones(tensor.Shape{2})), p, rng.None, false)
	assert.ErrorIs(t, err, layer.ErrMissingKey)
	assert.Contains(t, err.Error(), "layer 1 (Dropout)")
}

func TestSequential_Empty(t *testing.T) {
	l, p, err := layer.Setup(layer.Sequential(), leaf(3), rng.New(0))
	require.NoError(t, err)
	x := tree.Leaf(tensor.Ones(tensor.Shape{3}))
	y, ntr, err := l.Forward(x, p, rng.New(1), false)
	require.NoError(t, err)
	assert.True(t, valuesEqual(x, y))
	assert.Equal(t, 0, ntr.Len())
}
