package rng

import (
	"math/rand/v2"

	"github.com/born-ml/fnn/internal/tensor"
)

// Stream returns a deterministic generator seeded from k.
// Panics if k is None.
func (k Key) Stream() *rand.Rand {
	if !k.valid {
		panic("rng: sampling from None key")
	}
	return rand.New(rand.NewChaCha8(k.seed()))
}

// Uniform draws a tensor with elements from U[low, high).
func Uniform(k Key, shape tensor.Shape, low, high float64) *tensor.Tensor {
	r := k.Stream()
	data := make([]float64, shape.NumElements())
	for i := range data {
		data[i] = low + r.Float64()*(high-low)
	}
	return tensor.MustFromSlice(data, shape)
}

// Normal draws a tensor with elements from N(0, stddev²).
func Normal(k Key, shape tensor.Shape, stddev float64) *tensor.Tensor {
	r := k.Stream()
	data := make([]float64, shape.NumElements())
	for i := range data {
		data[i] = r.NormFloat64() * stddev
	}
	return tensor.MustFromSlice(data, shape)
}

// Bernoulli draws a tensor of ones (with probability p) and zeros.
func Bernoulli(k Key, p float64, shape tensor.Shape) *tensor.Tensor {
	r := k.Stream()
	data := make([]float64, shape.NumElements())
	for i := range data {
		if r.Float64() < p {
			data[i] = 1
		}
	}
	return tensor.MustFromSlice(data, shape)
}
