package layer

import (
	"fmt"

	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tree"
)

// SequentialHyperparams records the ordered hyperparameters of a chain.
type SequentialHyperparams struct {
	Layers []Hyperparams
}

// Name implements Hyperparams.
func (SequentialHyperparams) Name() string { return "Sequential" }

// Sequential chains blueprints: the output of each layer becomes the input
// of the next.
//
//	model := layer.Sequential(linear, bias, relu)
//
// is equivalent to relu(bias(linear(x))), with one params slot per child.
func Sequential(children ...Blueprint) Blueprint {
	c := make([]Blueprint, len(children))
	copy(c, children)
	return BlueprintFunc(func(in Desc) (Layer, error) {
		l, err := setupSequential(c, in)
		if err != nil {
			return nil, err
		}
		return l, nil
	})
}

// SequentialLayer is a configured chain of layers.
type SequentialLayer struct {
	layers   []Layer
	needs    []bool
	needsKey bool
	in, out  Desc
}

func setupSequential(children []Blueprint, in Desc) (*SequentialLayer, error) {
	layers := make([]Layer, len(children))
	desc := in
	for i, bp := range children {
		l, err := bp.Setup(desc)
		if err != nil {
			return nil, fmt.Errorf("sequential: layer %d: %w", i, err)
		}
		layers[i] = l
		desc = l.OutDesc()
	}
	needs, needsKey := needsOf(layers)
	return &SequentialLayer{
		layers:   layers,
		needs:    needs,
		needsKey: needsKey,
		in:       in,
		out:      desc,
	}, nil
}

// Len returns the number of layers in the chain.
func (s *SequentialLayer) Len() int {
	return len(s.layers)
}

// Layer returns the i-th layer.
//
// Panics if index is out of bounds.
func (s *SequentialLayer) Layer(i int) Layer {
	if i < 0 || i >= len(s.layers) {
		panic("SequentialLayer.Layer: index out of bounds")
	}
	return s.layers[i]
}

// Hyperparams implements Layer.
func (s *SequentialLayer) Hyperparams() Hyperparams {
	hp := SequentialHyperparams{Layers: make([]Hyperparams, len(s.layers))}
	for i, l := range s.layers {
		hp.Layers[i] = l.Hyperparams()
	}
	return hp
}

// InDesc implements Layer.
func (s *SequentialLayer) InDesc() Desc { return s.in }

// OutDesc implements Layer.
func (s *SequentialLayer) OutDesc() Desc { return s.out }

// NeedsKey reports whether any layer in the chain is stochastic.
func (s *SequentialLayer) NeedsKey() bool { return s.needsKey }

// Init initialises layer i with key.FoldIn(i).
func (s *SequentialLayer) Init(key rng.Key) (Params, error) {
	trainables := make([]Value, len(s.layers))
	nonTrainables := make([]Value, len(s.layers))
	for i, l := range s.layers {
		p, err := l.Init(key.FoldIn(i))
		if err != nil {
			return Params{}, fmt.Errorf("sequential: init layer %d: %w", i, err)
		}
		trainables[i] = p.Trainables
		nonTrainables[i] = p.NonTrainables
	}
	return Params{Trainables: tree.Node(trainables...), NonTrainables: tree.Node(nonTrainables...)}, nil
}

// Forward applies the layers in order. Stochastic layers receive their own
// stream, assigned in layer order.
func (s *SequentialLayer) Forward(x Value, p Params, key rng.Key, inference bool) (Value, Value, error) {
	if err := checkComposite(p, len(s.layers)); err != nil {
		return Value{}, Value{}, fmt.Errorf("sequential: %w", err)
	}

	keys := FanOut(key, s.needs)
	nonTrainables := make([]Value, len(s.layers))
	for i, l := range s.layers {
		y, ntr, err := l.Forward(x, p.Child(i), keys[i], inference)
		if err != nil {
			return Value{}, Value{}, fmt.Errorf("sequential: layer %d (%s): %w", i, l.Hyperparams().Name(), err)
		}
		x = y
		nonTrainables[i] = ntr
	}
	return x, tree.Node(nonTrainables...), nil
}
