// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package rng provides splittable PRNG keys.
//
// A Key is an immutable value. Split and FoldIn derive new keys without
// consuming the parent, so the same key always produces the same samples:
//
//	root := rng.New(0)
//	keys := root.Split(2)
//	w := rng.Normal(keys[0], tensor.Shape{4, 4}, 0.02)
package rng

import (
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
)

// Key is a splittable PRNG key. The zero value is None.
type Key = rng.Key

// None is the absent key, passed to layers that need no randomness.
var None = rng.None

// New creates a root key from a seed.
func New(seed uint64) Key { return rng.New(seed) }

// Uniform draws elements from U[low, high).
func Uniform(k Key, shape tensor.Shape, low, high float64) *tensor.Tensor {
	return rng.Uniform(k, shape, low, high)
}

// Normal draws elements from N(0, stddev²).
func Normal(k Key, shape tensor.Shape, stddev float64) *tensor.Tensor {
	return rng.Normal(k, shape, stddev)
}

// Bernoulli draws ones with probability p and zeros otherwise.
func Bernoulli(k Key, p float64, shape tensor.Shape) *tensor.Tensor {
	return rng.Bernoulli(k, p, shape)
}
