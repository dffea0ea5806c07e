package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
)

// DropoutConfig configures a Dropout layer.
type DropoutConfig struct {
	Rate float64 // probability of zeroing an element, in [0, 1)
}

// DropoutHyperparams is the frozen configuration of a Dropout layer.
type DropoutHyperparams struct {
	Rate float64
}

// Name implements layer.Hyperparams.
func (DropoutHyperparams) Name() string { return "Dropout" }

// Dropout zeroes each element with probability Rate during training and
// scales the survivors by 1/(1-Rate). In inference mode it is the identity.
//
// Dropout is the canonical stochastic layer: NeedsKey is true, so composites
// hand it its own stream. A training-mode Forward without a key fails with
// layer.ErrMissingKey.
type Dropout struct {
	descs
	hp DropoutHyperparams
}

// NewDropout creates a Dropout blueprint.
func NewDropout(cfg DropoutConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		if cfg.Rate < 0 || cfg.Rate >= 1 {
			return nil, fmt.Errorf("dropout: %w: rate %g not in [0, 1)", layer.ErrInvalidConfig, cfg.Rate)
		}
		if _, err := leafShape("dropout", in, 0); err != nil {
			return nil, err
		}
		return &Dropout{
			descs: descs{in: in, out: in},
			hp:    DropoutHyperparams(cfg),
		}, nil
	})
}

// Hyperparams implements layer.Layer.
func (d *Dropout) Hyperparams() layer.Hyperparams { return d.hp }

// NeedsKey implements layer.Layer.
func (d *Dropout) NeedsKey() bool { return true }

// Init implements layer.Layer. Dropout has no params.
func (d *Dropout) Init(_ rng.Key) (layer.Params, error) {
	return noParams(), nil
}

// Forward applies the dropout mask drawn from key.
func (d *Dropout) Forward(x layer.Value, p layer.Params, key rng.Key, inference bool) (layer.Value, layer.Value, error) {
	t, err := layer.LeafInput(x)
	if err != nil {
		return layer.Value{}, layer.Value{}, fmt.Errorf("dropout: %w", err)
	}
	if inference || d.hp.Rate == 0 {
		return x, p.NonTrainables, nil
	}
	if !key.Valid() {
		return layer.Value{}, layer.Value{}, fmt.Errorf("dropout: %w", layer.ErrMissingKey)
	}
	keep := 1 - d.hp.Rate
	mask := rng.Bernoulli(key, keep, t.Shape())
	return leaf(t.Mul(mask).MulScalar(1 / keep)), p.NonTrainables, nil
}
