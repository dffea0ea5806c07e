// Package layer defines the contract every layer satisfies and the
// combinators that compose layers into models.
//
// Construction is two-phase. A Blueprint describes a layer before its input
// is known; Setup receives an input descriptor and returns a Layer whose
// hyperparameters and output descriptor are fixed for the rest of its life.
// A Layer then only initialises and evaluates:
//
//	model, err := layer.Sequential(
//	    nn.NewLinear(nn.LinearConfig{OutFeatures: 3}),
//	    nn.NewBias(nn.DefaultBiasConfig()),
//	).Setup(layer.LeafDesc(tensor.Shape{2, 4}))
//	params, err := model.Init(rng.New(0))
//	y, nonTrainables, err := model.Forward(x, params, rng.None, false)
//
// All state is explicit. Init returns trainables and non-trainables; Forward
// returns the output and a new non-trainable state and never touches
// trainables. Randomness enters only through the key argument.
package layer

import (
	"fmt"
	"reflect"

	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// Value is a tree of tensors: activations, trainables or non-trainables.
type Value = tree.Tree[*tensor.Tensor]

// Desc is a tree of shapes describing a Value without holding data.
type Desc = tree.Tree[tensor.Shape]

// Hyperparams is the frozen structural configuration bound to a Layer.
// Implementations are plain value records; composites embed the records of
// their children.
type Hyperparams interface {
	Name() string
}

// Layer is a fully configured layer.
type Layer interface {
	// Hyperparams returns the layer's frozen configuration.
	Hyperparams() Hyperparams

	// InDesc and OutDesc describe the input the layer was set up for and the
	// output it produces.
	InDesc() Desc
	OutDesc() Desc

	// NeedsKey declares whether Forward consumes randomness. Composites hand
	// rng.None to children that return false.
	NeedsKey() bool

	// Init creates trainables and non-trainables. The same key always yields
	// bit-identical params.
	Init(key rng.Key) (Params, error)

	// Forward evaluates the layer and returns its output and updated
	// non-trainables. In inference mode non-trainables are returned unchanged.
	Forward(x Value, p Params, key rng.Key, inference bool) (Value, Value, error)
}

// Blueprint is a layer awaiting shape inference.
type Blueprint interface {
	Setup(in Desc) (Layer, error)
}

// BlueprintFunc adapts a function to the Blueprint interface.
type BlueprintFunc func(in Desc) (Layer, error)

// Setup calls f(in).
func (f BlueprintFunc) Setup(in Desc) (Layer, error) {
	return f(in)
}

// Params holds the two kinds of numeric state a layer owns.
type Params struct {
	Trainables    Value // updated only by an external optimizer
	NonTrainables Value // updated by Forward, never differentiated
}

// Child returns the params of the i-th child of a composite.
func (p Params) Child(i int) Params {
	return Params{Trainables: p.Trainables.Child(i), NonTrainables: p.NonTrainables.Child(i)}
}

// WithTrainables returns p with its trainables replaced. The new value must
// match the old one leaf for leaf in structure and shape; this is how an
// optimizer hands updated weights back for the next Forward.
func (p Params) WithTrainables(trainables Value) (Params, error) {
	if !DescEqual(DescOf(p.Trainables), DescOf(trainables)) {
		return p, fmt.Errorf("%w: trainables %s, want %s",
			ErrParamsMismatch, DescOf(trainables), DescOf(p.Trainables))
	}
	return Params{Trainables: trainables, NonTrainables: p.NonTrainables}, nil
}

// LeafDesc describes a single tensor.
func LeafDesc(shape tensor.Shape) Desc {
	return tree.Leaf(shape.Clone())
}

// NodeDesc describes a collection.
func NodeDesc(children ...Desc) Desc {
	return tree.Node(children...)
}

// DescOf returns the descriptor of a value.
func DescOf(v Value) Desc {
	return tree.Map(v, func(t *tensor.Tensor) tensor.Shape {
		if t == nil {
			return nil
		}
		return t.Shape().Clone()
	})
}

// DescEqual reports whether two descriptors match in structure and shapes.
func DescEqual(a, b Desc) bool {
	return tree.Equal(a, b, func(x, y tensor.Shape) bool { return x.Equal(y) })
}

// SameHyperparams reports whether two hyperparameter records are structurally
// identical.
func SameHyperparams(a, b Hyperparams) bool {
	return reflect.DeepEqual(a, b)
}

// Setup is shorthand for bp.Setup followed by Init.
func Setup(bp Blueprint, in Desc, key rng.Key) (Layer, Params, error) {
	l, err := bp.Setup(in)
	if err != nil {
		return nil, Params{}, err
	}
	p, err := l.Init(key)
	if err != nil {
		return nil, Params{}, err
	}
	return l, p, nil
}

// Apply runs Forward and folds the new non-trainables back into the params,
// ready for the next call.
func Apply(l Layer, x Value, p Params, key rng.Key, inference bool) (Value, Params, error) {
	y, ntr, err := l.Forward(x, p, key, inference)
	if err != nil {
		return Value{}, p, err
	}
	return y, Params{Trainables: p.Trainables, NonTrainables: ntr}, nil
}

// LeafInput extracts the tensor of a single-tensor input.
func LeafInput(x Value) (*tensor.Tensor, error) {
	if !x.IsLeaf() || x.Value() == nil {
		return nil, fmt.Errorf("%w: expected a single tensor, got %s", ErrInputMismatch, x.Kind())
	}
	return x.Value(), nil
}

// LeafShape extracts the shape of a single-tensor descriptor.
func LeafShape(in Desc) (tensor.Shape, error) {
	if !in.IsLeaf() {
		return nil, fmt.Errorf("%w: expected a single tensor, got %s", ErrInvalidDesc, in.Kind())
	}
	return in.Value(), nil
}

// LeafParam extracts a tensor param and checks its shape.
func LeafParam(v Value, shape tensor.Shape, what string) (*tensor.Tensor, error) {
	if !v.IsLeaf() || v.Value() == nil {
		return nil, fmt.Errorf("%w: %s: expected a tensor, got %s", ErrParamsMismatch, what, v.Kind())
	}
	t := v.Value()
	if !t.Shape().Equal(shape) {
		return nil, fmt.Errorf("%w: %s has shape %v, want %v", ErrParamsMismatch, what, t.Shape(), shape)
	}
	return t, nil
}

func checkComposite(p Params, n int) error {
	if !p.Trainables.IsNode() || p.Trainables.Len() != n {
		return fmt.Errorf("%w: trainables %s, want %d children", ErrParamsMismatch, p.Trainables.Kind(), n)
	}
	if !p.NonTrainables.IsNode() || p.NonTrainables.Len() != n {
		return fmt.Errorf("%w: non-trainables %s, want %d children", ErrParamsMismatch, p.NonTrainables.Kind(), n)
	}
	return nil
}
