package nn

import (
	"fmt"

	"github.com/born-ml/fnn/internal/layer"
)

// FFNConfig configures a feed-forward block.
type FFNConfig struct {
	HiddenDim  int
	Activation layer.Blueprint // nil means SiLU
}

// DefaultFFNConfig returns a SiLU block with hiddenDim units.
func DefaultFFNConfig(hiddenDim int) FFNConfig {
	return FFNConfig{HiddenDim: hiddenDim, Activation: SiLU()}
}

// NewFFN creates a Feed-Forward Network (MLP) blueprint.
//
// Architecture:
//
//	FFN(x) = Bias(Linear2(act(Bias(Linear1(x)))))
//
// Where:
//   - Linear1: [embed_dim → hidden_dim] (expansion)
//   - Linear2: [hidden_dim → embed_dim] (projection back)
//
// embed_dim is read from the input's last axis. The block is an ordinary
// layer.Sequential of five children, so its params are the five child slots.
//
// Example:
//
//	ffn := nn.NewFFN(nn.DefaultFFNConfig(3072)) // [..., 768] -> [..., 768]
func NewFFN(cfg FFNConfig) layer.Blueprint {
	return layer.BlueprintFunc(func(in layer.Desc) (layer.Layer, error) {
		if cfg.HiddenDim <= 0 {
			return nil, fmt.Errorf("ffn: %w: hidden_dim must be positive, got %d", layer.ErrInvalidConfig, cfg.HiddenDim)
		}
		shape, err := leafShape("ffn", in, 1)
		if err != nil {
			return nil, err
		}
		act := cfg.Activation
		if act == nil {
			act = SiLU()
		}
		return layer.Sequential(
			NewLinear(DefaultLinearConfig(cfg.HiddenDim)),
			NewBias(DefaultBiasConfig()),
			act,
			NewLinear(DefaultLinearConfig(shape[len(shape)-1])),
			NewBias(DefaultBiasConfig()),
		).Setup(in)
	})
}
