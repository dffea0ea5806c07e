package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// Func is a parameter-free transformation of a value.
type Func func(x layer.Value) (layer.Value, error)

// RngFunc is a parameter-free transformation that consumes randomness.
type RngFunc func(key rng.Key, x layer.Value) (layer.Value, error)

// OnLeaves lifts a tensor function to a Func applied to every leaf.
func OnLeaves(fn func(*tensor.Tensor) *tensor.Tensor) Func {
	return func(x layer.Value) (layer.Value, error) {
		return tree.Map(x, fn), nil
	}
}

// FnHyperparams is the frozen configuration of a function layer. Function
// values cannot be compared, so a function layer is identified by its label.
type FnHyperparams struct {
	Label      string
	Stochastic bool
}

// Name implements layer.Hyperparams.
func (h FnHyperparams) Name() string { return h.Label }

// Fn wraps plain functions as a layer with no params.
type Fn struct {
	descs
	hp           FnHyperparams
	train, infer RngFunc
}

// F wraps a deterministic function. infer replaces train in inference mode;
// a nil infer reuses train.
//
// The output descriptor is found by evaluating both functions on zeros of
// the input shape, and the two must agree.
//
// Example:
//
//	// identity while training, doubling at inference
//	double := nn.F("double", nn.OnLeaves(func(t *tensor.Tensor) *tensor.Tensor { return t }),
//	    nn.OnLeaves(func(t *tensor.Tensor) *tensor.Tensor { return t.MulScalar(2) }))
func F(label string, train, infer Func) layer.Blueprint {
	if infer == nil {
		infer = train
	}
	return newFn(FnHyperparams{Label: label}, ignoreKey(train), ignoreKey(infer))
}

// FRng wraps a function that consumes randomness. The layer reports
// NeedsKey and fails with layer.ErrMissingKey in training mode without a key.
func FRng(label string, train, infer RngFunc) layer.Blueprint {
	if infer == nil {
		infer = train
	}
	return newFn(FnHyperparams{Label: label, Stochastic: true}, train, infer)
}

func ignoreKey(fn Func) RngFunc {
	if fn == nil {
		return nil
	}
	return func(_ rng.Key, x layer.Value) (layer.Value, error) {
		return fn(x)
	}
}

func newFn(hp FnHyperparams, train, infer RngFunc) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		if train == nil {
			return nil, fmt.Errorf("%s: %w: nil function", hp.Label, layer.ErrInvalidConfig)
		}
		probe := tree.Map(in, tensor.Zeros)
		probeKey := rng.New(0)
		outTrain, err := train(probeKey, probe)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", hp.Label, layer.ErrInvalidDesc, err)
		}
		outInfer, err := infer(probeKey, probe)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", hp.Label, layer.ErrInvalidDesc, err)
		}
		out := layer.DescOf(outTrain)
		if !layer.DescEqual(out, layer.DescOf(outInfer)) {
			return nil, fmt.Errorf("%s: %w: training output %s differs from inference output %s",
				hp.Label, layer.ErrInvalidConfig, out, layer.DescOf(outInfer))
		}
		return &Fn{descs: descs{in: in, out: out}, hp: hp, train: train, infer: infer}, nil
	})
}

// Hyperparams implements layer.Layer.
func (f *Fn) Hyperparams() layer.Hyperparams { return f.hp }

// NeedsKey implements layer.Layer.
func (f *Fn) NeedsKey() bool { return f.hp.Stochastic }

// Init implements layer.Layer.
func (f *Fn) Init(_ rng.Key) (layer.Params, error) {
	return noParams(), nil
}

// Forward calls the function for the current mode.
func (f *Fn) Forward(x layer.Value, p layer.Params, key rng.Key, inference bool) (layer.Value, layer.Value, error) {
	fn := f.train
	if inference {
		fn = f.infer
	} else if f.hp.Stochastic && !key.Valid() {
		return layer.Value{}, layer.Value{}, fmt.Errorf("%s: %w", f.hp.Label, layer.ErrMissingKey)
	}
	y, err := fn(key, x)
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("%s: %w", f.hp.Label, err)
	}
	return y, p.NonTrainables, nil
}
