package nn

import (
	"math"

	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
)

// Initializer creates a parameter tensor of the given shape from a key.
//
// Deterministic initializers ignore the key, so they accept rng.None.
type Initializer func(key rng.Key, shape tensor.Shape) *tensor.Tensor

// Zeros initializes every element to 0. Commonly used for biases.
func Zeros() Initializer {
	return Constant(0)
}

// Ones initializes every element to 1.
func Ones() Initializer {
	return Constant(1)
}

// Constant initializes every element to value.
func Constant(value float64) Initializer {
	return func(_ rng.Key, shape tensor.Shape) *tensor.Tensor {
		return tensor.Full(shape, value)
	}
}

// Uniform draws from U[-scale, scale).
func Uniform(scale float64) Initializer {
	return func(key rng.Key, shape tensor.Shape) *tensor.Tensor {
		return rng.Uniform(key, shape, -scale, scale)
	}
}

// Normal draws from N(0, stddev²).
func Normal(stddev float64) Initializer {
	return func(key rng.Key, shape tensor.Shape) *tensor.Tensor {
		return rng.Normal(key, shape, stddev)
	}
}

// GlorotUniform is Xavier initialization.
//
// Values are drawn from:
//
//	U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// For matrices fan_in and fan_out are the two dimensions. For convolution
// kernels [C_out, C_in, K_h, K_w] both are scaled by the receptive field
// K_h*K_w. This keeps activation variance roughly constant across layers.
func GlorotUniform() Initializer {
	return func(key rng.Key, shape tensor.Shape) *tensor.Tensor {
		fanIn, fanOut := fans(shape)
		bound := math.Sqrt(6.0 / (fanIn + fanOut))
		return rng.Uniform(key, shape, -bound, bound)
	}
}

func fans(shape tensor.Shape) (fanIn, fanOut float64) {
	switch len(shape) {
	case 0:
		return 1, 1
	case 1:
		return float64(shape[0]), float64(shape[0])
	case 2:
		return float64(shape[0]), float64(shape[1])
	default:
		receptive := float64(shape[2:].NumElements())
		return float64(shape[1]) * receptive, float64(shape[0]) * receptive
	}
}
