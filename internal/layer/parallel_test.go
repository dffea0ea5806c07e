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

func TestParallel_Forward(t *testing.T) {
	in := layer.NodeDesc(leaf(2), leaf(2, 4))
	l, p, err := layer.Setup(layer.Parallel(addOne(), nn.NewLinear(nn.LinearConfig{OutFeatures: 3, KernelInit: nn.Ones()})),
		in, rng.New(0))
	require.NoError(t, err)
	assert.True(t, layer.DescEqual(layer.NodeDesc(leaf(2), leaf(2, 3)), l.OutDesc()))

	x := tree.Node(tree.Leaf(tensor.Ones(tensor.Shape{2})), tree.Leaf(tensor.Ones(tensor.Shape{2, 4})))
	y, ntr, err := l.Forward(x, p, rng.None, false)
	require.NoError(t, err)
	require.Equal(t, 2, y.Len())
	assert.Equal(t, []float64{2, 2}, y.Child(0).Value().Data())
	assert.True(t, y.Child(1).Value().Equal(tensor.Full(tensor.Shape{2, 3}, 4)))
	assert.Equal(t, 2, ntr.Len())
}

func TestParallel_ChildCount(t *testing.T) {
	_, err := layer.Parallel(addOne(), addOne()).Setup(layer.NodeDesc(leaf(1), leaf(1), leaf(1)))
	assert.ErrorIs(t, err, layer.ErrChildCount)

	_, err = layer.Parallel(addOne()).Setup(leaf(1))
	assert.ErrorIs(t, err, layer.ErrChildCount)

	l, p, err := layer.Setup(layer.Parallel(addOne(), addOne()), layer.NodeDesc(leaf(1), leaf(1)), rng.New(0))
	require.NoError(t, err)
	_, _, err = l.Forward(tree.Node(tree.Leaf(tensor.Ones(tensor.Shape{1}))), p, rng.None, false)
	assert.ErrorIs(t, err, layer.ErrInputMismatch)
}

func TestParallel_KeyFanOut(t *testing.T) {
	root := rng.New(3)
	split := root.Split(2)
	var a, c rng.Key

	in := layer.NodeDesc(leaf(1), leaf(1), leaf(1))
	l, p, err := layer.Setup(layer.Parallel(recorder(&a), addOne(), recorder(&c)), in, rng.New(0))
	require.NoError(t, err)

	x := tree.Node(tree.Leaf(tensor.Ones(tensor.Shape{1})), tree.Leaf(tensor.Ones(tensor.Shape{1})),
		tree.Leaf(tensor.Ones(tensor.Shape{1})))
	_, _, err = l.Forward(x, p, root, false)
	require.NoError(t, err)
	assert.Equal(t, split[0], a)
	assert.Equal(t, split[1], c)

	var only rng.Key
	l, p, err = layer.Setup(layer.Parallel(addOne(), recorder(&only)), layer.NodeDesc(leaf(1), leaf(1)), rng.New(0))
	require.NoError(t, err)
	_, _, err = l.Forward(tree.Node(tree.Leaf(tensor.Ones(tensor.Shape{1})), tree.Leaf(tensor.Ones(tensor.Shape{1}))),
		p, root, false)
	require.NoError(t, err)
	assert.Equal(t, root, only)
}

func TestParallel_InitFoldsIn(t *testing.T) {
	lin := nn.NewLinear(nn.DefaultLinearConfig(2))
	l, p, err := layer.Setup(layer.Parallel(lin, lin), layer.NodeDesc(leaf(1, 3), leaf(1, 3)), rng.New(9))
	require.NoError(t, err)

	par := l.(*layer.ParallelLayer)
	require.Equal(t, 2, par.Len())
	for i := 0; i < 2; i++ {
		want, err := par.Layer(i).Init(rng.New(9).FoldIn(i))
		require.NoError(t, err)
		assert.True(t, valuesEqual(want.Trainables, p.Trainables.Child(i)))
	}
}
