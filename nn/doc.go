// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn builds neural networks from pure, composable layers.
//
// # Two-phase construction
//
// A Blueprint holds a layer's configuration. Setup binds it to an input
// descriptor (the shapes of a tree of tensors) and yields a Layer, which can
// create params and run forward passes. A Layer keeps no tensors: params are
// plain values passed in and returned, so the same Layer can be used with
// many param sets.
//
//	model := nn.Sequential(
//	    nn.NewLinear(nn.DefaultLinearConfig(128)),
//	    nn.NewBias(nn.DefaultBiasConfig()),
//	    nn.ReLU(),
//	    nn.NewDropout(nn.DropoutConfig{Rate: 0.1}),
//	)
//	l, params, err := nn.Setup(model, nn.LeafDesc(tensor.Shape{32, 784}), rng.New(0))
//	y, params, err := nn.Apply(l, tree.Leaf(x), params, rng.New(1), false)
//
// # Params
//
// Params pair trainables (updated by an optimizer) with non-trainables
// (state a forward pass updates, such as BatchNorm running statistics).
// Forward returns the new non-trainables; Apply folds them back into the
// params.
//
// # Randomness
//
// Stochastic layers take an explicit rng.Key and report NeedsKey. Combinators
// fan one key out to their stochastic children, so the same key, params and
// input always give the same output.
package nn
