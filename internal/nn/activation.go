package nn

import (
	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/tensor"
)

// ReLU applies f(x) = max(0, x) to every leaf.
func ReLU() layer.Blueprint {
	return F("ReLU", OnLeaves((*tensor.Tensor).ReLU), nil)
}

// Tanh applies the hyperbolic tangent to every leaf.
func Tanh() layer.Blueprint {
	return F("Tanh", OnLeaves((*tensor.Tensor).Tanh), nil)
}

// Sigmoid applies f(x) = 1 / (1 + exp(-x)) to every leaf.
func Sigmoid() layer.Blueprint {
	return F("Sigmoid", OnLeaves((*tensor.Tensor).Sigmoid), nil)
}

// SiLU applies f(x) = x * sigmoid(x) to every leaf.
func SiLU() layer.Blueprint {
	return F("SiLU", OnLeaves(func(t *tensor.Tensor) *tensor.Tensor {
		return t.Mul(t.Sigmoid())
	}), nil)
}
