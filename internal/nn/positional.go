package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
)

// PositionalEncodingHyperparams is the frozen configuration of a
// PositionalEncoding layer.
type PositionalEncodingHyperparams struct {
	SeqLen int
	Dim    int
}

// Name implements layer.Hyperparams.
func (PositionalEncodingHyperparams) Name() string { return "PositionalEncoding" }

// PositionalEncoding adds fixed sinusoidal position encodings to its input.
//
// This is the original positional encoding from "Attention is All You Need"
// (Vaswani et al., 2017):
//
//	PE(pos, 2i)   = sin(pos / 10000^(2i/d))
//	PE(pos, 2i+1) = cos(pos / 10000^(2i/d))
//
// Input and output have shape [..., T, d]; the [T, d] encoding is broadcast
// over the leading axes. The encodings are not learned, so there are no params.
type PositionalEncoding struct {
	descs
	deterministic
	hp PositionalEncodingHyperparams
}

// NewPositionalEncoding creates a PositionalEncoding blueprint.
func NewPositionalEncoding() layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		shape, err := leafShape("positional encoding", in, 2)
		if err != nil {
			return nil, err
		}
		return &PositionalEncoding{
			descs: descs{in: in, out: in},
			hp:    PositionalEncodingHyperparams{SeqLen: shape[len(shape)-2], Dim: shape[len(shape)-1]},
		}, nil
	})
}

// Hyperparams implements layer.Layer.
func (p *PositionalEncoding) Hyperparams() layer.Hyperparams { return p.hp }

// Init implements layer.Layer.
func (p *PositionalEncoding) Init(_ rng.Key) (layer.Params, error) {
	return noParams(), nil
}

// Forward adds the encodings for the input's sequence length.
func (p *PositionalEncoding) Forward(x layer.Value, params layer.Params, _ rng.Key, _ bool) (layer.Value, layer.Value, error) {
	t, err := leafInput("positional encoding", x, tensor.Shape{p.hp.Dim}, 1)
	if err != nil {
		return layer.Value{}, layer.Value{}, err
	}
	if t.Rank() < 2 {
		return layer.Value{}, layer.Value{}, fmt.Errorf("positional encoding: %w: input %v has no sequence axis",
			layer.ErrInputMismatch, t.Shape())
	}
	return leaf(t.Add(SinusoidalEncoding(t.Shape()[t.Rank()-2], p.hp.Dim))), params.NonTrainables, nil
}

// SinusoidalEncoding returns the [seqLen, dim] encoding table.
func SinusoidalEncoding(seqLen, dim int) *tensor.Tensor {
	data := make([]float64, seqLen*dim)
	for pos := 0; pos < seqLen; pos++ {
		for i := 0; i < dim; i++ {
			angle := float64(pos) / math.Pow(10000.0, float64(2*(i/2))/float64(dim))
			if i%2 == 0 {
				data[pos*dim+i] = math.Sin(angle)
			} else {
				data[pos*dim+i] = math.Cos(angle)
			}
		}
	}
	return tensor.MustFromSlice(data, tensor.Shape{seqLen, dim})
}
