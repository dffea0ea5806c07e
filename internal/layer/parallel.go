package layer

import (
	"fmt"

	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tree"
)

// ParallelHyperparams records the hyperparameters of each branch.
type ParallelHyperparams struct {
	Layers []Hyperparams
}

// Name implements Hyperparams.
func (ParallelHyperparams) Name() string { return "Parallel" }

// Parallel applies independent layers to the matching elements of a
// collection input. Child i receives input element i; the children never see
// each other's output.
func Parallel(children ...Blueprint) Blueprint {
	c := make([]Blueprint, len(children))
	copy(c, children)
	return BlueprintFunc(func(in Desc) (Layer, error) {
		l, err := setupParallel(c, in)
		if err != nil {
			return nil, err
		}
		return l, nil
	})
}

// ParallelLayer is a configured fan-out of independent layers.
type ParallelLayer struct {
	layers   []Layer
	needs    []bool
	needsKey bool
	in, out  Desc
}

func setupParallel(children []Blueprint, in Desc) (*ParallelLayer, error) {
	if !in.IsNode() {
		return nil, fmt.Errorf("parallel: %w: input is a %s, want a collection of %d",
			ErrChildCount, in.Kind(), len(children))
	}
	if in.Len() != len(children) {
		return nil, fmt.Errorf("parallel: %w: %d layers for %d inputs", ErrChildCount, len(children), in.Len())
	}

	layers := make([]Layer, len(children))
	outs := make([]Desc, len(children))
	for i, bp := range children {
		l, err := bp.Setup(in.Child(i))
		if err != nil {
			return nil, fmt.Errorf("parallel: layer %d: %w", i, err)
		}
		layers[i] = l
		outs[i] = l.OutDesc()
	}
	needs, needsKey := needsOf(layers)
	return &ParallelLayer{
		layers:   layers,
		needs:    needs,
		needsKey: needsKey,
		in:       in,
		out:      tree.Node(outs...),
	}, nil
}

// Len returns the number of branches.
func (p *ParallelLayer) Len() int {
	return len(p.layers)
}

// Layer returns the i-th branch.
//
// Panics if index is out of bounds.
func (p *ParallelLayer) Layer(i int) Layer {
	if i < 0 || i >= len(p.layers) {
		panic("ParallelLayer.Layer: index out of bounds")
	}
	return p.layers[i]
}

// Hyperparams implements Layer.
func (p *ParallelLayer) Hyperparams() Hyperparams {
	hp := ParallelHyperparams{Layers: make([]Hyperparams, len(p.layers))}
	for i, l := range p.layers {
		hp.Layers[i] = l.Hyperparams()
	}
	return hp
}

// InDesc implements Layer.
func (p *ParallelLayer) InDesc() Desc { return p.in }

// OutDesc implements Layer.
func (p *ParallelLayer) OutDesc() Desc { return p.out }

// NeedsKey reports whether any branch is stochastic.
func (p *ParallelLayer) NeedsKey() bool { return p.needsKey }

// Init initialises branch i with key.FoldIn(i).
func (p *ParallelLayer) Init(key rng.Key) (Params, error) {
	trainables := make([]Value, len(p.layers))
	nonTrainables := make([]Value, len(p.layers))
	for i, l := range p.layers {
		params, err := l.Init(key.FoldIn(i))
		if err != nil {
			return Params{}, fmt.Errorf("parallel: init layer %d: %w", i, err)
		}
		trainables[i] = params.Trainables
		nonTrainables[i] = params.NonTrainables
	}
	return Params{Trainables: tree.Node(trainables...), NonTrainables: tree.Node(nonTrainables...)}, nil
}

// Forward applies every branch to its input element.
func (p *ParallelLayer) Forward(x Value, params Params, key rng.Key, inference bool) (Value, Value, error) {
	if !x.IsNode() || x.Len() != len(p.layers) {
		return Value{}, Value{}, fmt.Errorf("parallel: %w: got %s with %d elements, want %d",
			ErrInputMismatch, x.Kind(), x.Len(), len(p.layers))
	}
	if err := checkComposite(params, len(p.layers)); err != nil {
		return Value{}, Value{}, fmt.Errorf("parallel: %w", err)
	}

	keys := FanOut(key, p.needs)
	ys := make([]Value, len(p.layers))
	nonTrainables := make([]Value, len(p.layers))
	for i, l := range p.layers {
		y, ntr, err := l.Forward(x.Child(i), params.Child(i), keys[i], inference)
		if err != nil {
			return Value{}, Value{}, fmt.Errorf("parallel: layer %d (%s): %w", i, l.Hyperparams().Name(), err)
		}
		ys[i] = y
		nonTrainables[i] = ntr
	}
	return tree.Node(ys...), tree.Node(nonTrainables...), nil
}
