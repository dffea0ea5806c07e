// Package nn implements the leaf layers and recurrent blocks of the framework.
//
// Every constructor returns a layer.Blueprint. Blueprints are configured with
// an XxxConfig struct and become layers once Setup sees the input descriptor:
//   - Linear, Bias: affine building blocks
//   - Conv: 2-D convolution (channel-first)
//   - BatchNorm, LayerNorm: normalization
//   - Dropout: the stochastic layer
//   - Embedding: integer ids to vectors
//   - F, FRng: wrap plain functions as layers; ReLU, Tanh and Sigmoid use F
//   - MultiHeadAttention plus the functional attention helpers
//   - LSTMCell and BiLSTM: recurrent blocks built on layer.Recurrent
//
// Layers hold no numeric state. Params come from Init and are passed back to
// every Forward:
//
//	lin, params, err := layer.Setup(nn.NewLinear(nn.DefaultLinearConfig(128)),
//	    layer.LeafDesc(tensor.Shape{32, 784}), rng.New(0))
//	y, _, err := lin.Forward(tree.Leaf(x), params, rng.None, false)
package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// descs holds the input and output descriptors fixed at Setup.
type descs struct {
	in, out layer.Desc
}

// InDesc implements layer.Layer.
func (d descs) InDesc() layer.Desc { return d.in }

// OutDesc implements layer.Layer.
func (d descs) OutDesc() layer.Desc { return d.out }

// deterministic marks layers that never consume a key.
type deterministic struct{}

// NeedsKey implements layer.Layer.
func (deterministic) NeedsKey() bool { return false }

func none() layer.Value {
	return tree.None[*tensor.Tensor]()
}

func noParams() layer.Params {
	return layer.Params{Trainables: none(), NonTrainables: none()}
}

func leaf(t *tensor.Tensor) layer.Value {
	return tree.Leaf(t)
}

// leafShape reads a single-tensor descriptor and checks its rank.
func leafShape(name string, in layer.Desc, minRank int) (tensor.Shape, error) {
	shape, err := layer.LeafShape(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(shape) < minRank {
		return nil, fmt.Errorf("%s: %w: input %v has rank %d, want at least %d",
			name, layer.ErrInvalidDesc, shape, len(shape), minRank)
	}
	return shape, nil
}

// leafInput reads a single-tensor input and checks its trailing dimensions
// against the shape the layer was set up for.
func leafInput(name string, x layer.Value, want tensor.Shape, trailing int) (*tensor.Tensor, error) {
	t, err := layer.LeafInput(x)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	got := t.Shape()
	if len(got) < trailing || !got[len(got)-trailing:].Equal(want[len(want)-trailing:]) {
		return nil, fmt.Errorf("%s: %w: input shape %v incompatible with %v", name, layer.ErrInputMismatch, got, want)
	}
	return t, nil
}

func withLast(shape tensor.Shape, last int) tensor.Shape {
	out := shape.Clone()
	out[len(out)-1] = last
	return out
}
