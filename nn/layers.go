// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/fnn/internal/nn"
	"github.com/born-ml/fnn/internal/tensor"
)

// Initializer creates a param tensor from a key and a shape.
type Initializer = nn.Initializer

// Initializers.
var (
	Zeros         = nn.Zeros
	Ones          = nn.Ones
	Constant      = nn.Constant
	Uniform       = nn.Uniform
	Normal        = nn.Normal
	GlorotUniform = nn.GlorotUniform
)

// Layer configurations.
type (
	LinearConfig             = nn.LinearConfig
	BiasConfig               = nn.BiasConfig
	ConvConfig               = nn.ConvConfig
	Padding                  = nn.Padding
	BatchNormConfig          = nn.BatchNormConfig
	LayerNormConfig          = nn.LayerNormConfig
	DropoutConfig            = nn.DropoutConfig
	EmbeddingConfig          = nn.EmbeddingConfig
	MaxPoolConfig            = nn.MaxPoolConfig
	LSTMConfig               = nn.LSTMConfig
	BiLSTMConfig             = nn.BiLSTMConfig
	MultiHeadAttentionConfig = nn.MultiHeadAttentionConfig
	FFNConfig                = nn.FFNConfig
)

// Hyperparams of the built-in layers.
type (
	LinearHyperparams             = nn.LinearHyperparams
	BiasHyperparams               = nn.BiasHyperparams
	ConvHyperparams               = nn.ConvHyperparams
	BatchNormHyperparams          = nn.BatchNormHyperparams
	LayerNormHyperparams          = nn.LayerNormHyperparams
	DropoutHyperparams            = nn.DropoutHyperparams
	EmbeddingHyperparams          = nn.EmbeddingHyperparams
	MaxPoolHyperparams            = nn.MaxPoolHyperparams
	LSTMHyperparams               = nn.LSTMHyperparams
	BiLSTMHyperparams             = nn.BiLSTMHyperparams
	MultiHeadAttentionHyperparams = nn.MultiHeadAttentionHyperparams
	FnHyperparams                 = nn.FnHyperparams
)

// Convolution padding modes.
const (
	PaddingValid    = nn.PaddingValid
	PaddingSame     = nn.PaddingSame
	PaddingExplicit = nn.PaddingExplicit
)

// Default configurations.
var (
	DefaultLinearConfig             = nn.DefaultLinearConfig
	DefaultBiasConfig               = nn.DefaultBiasConfig
	DefaultConvConfig               = nn.DefaultConvConfig
	DefaultBatchNormConfig          = nn.DefaultBatchNormConfig
	DefaultLayerNormConfig          = nn.DefaultLayerNormConfig
	DefaultEmbeddingConfig          = nn.DefaultEmbeddingConfig
	DefaultMaxPoolConfig            = nn.DefaultMaxPoolConfig
	DefaultLSTMConfig               = nn.DefaultLSTMConfig
	DefaultBiLSTMConfig             = nn.DefaultBiLSTMConfig
	DefaultMultiHeadAttentionConfig = nn.DefaultMultiHeadAttentionConfig
	DefaultFFNConfig                = nn.DefaultFFNConfig
)

// Layer constructors.
var (
	NewLinear             = nn.NewLinear
	NewBias               = nn.NewBias
	NewConv               = nn.NewConv
	NewBatchNorm          = nn.NewBatchNorm
	NewLayerNorm          = nn.NewLayerNorm
	NewDropout            = nn.NewDropout
	NewEmbedding          = nn.NewEmbedding
	NewMaxPool            = nn.NewMaxPool
	NewLSTMCell           = nn.NewLSTMCell
	NewBiLSTM             = nn.NewBiLSTM
	NewMultiHeadAttention = nn.NewMultiHeadAttention
	NewPositionalEncoding = nn.NewPositionalEncoding
	NewFFN                = nn.NewFFN
)

// Function layers.
type (
	// Func is a deterministic function over values.
	Func = nn.Func
	// RngFunc is a function over values that consumes a key.
	RngFunc = nn.RngFunc
)

// F lifts train and infer functions into a parameterless layer. A nil infer
// reuses train.
func F(label string, train, infer Func) Blueprint { return nn.F(label, train, infer) }

// FRng is F for stochastic functions.
func FRng(label string, train, infer RngFunc) Blueprint { return nn.FRng(label, train, infer) }

// OnLeaves lifts a tensor function to every leaf of a value.
func OnLeaves(fn func(*tensor.Tensor) *tensor.Tensor) Func { return nn.OnLeaves(fn) }

// Activations.
var (
	ReLU    = nn.ReLU
	Tanh    = nn.Tanh
	Sigmoid = nn.Sigmoid
	SiLU    = nn.SiLU
)

// ZeroCarry returns a zero LSTM carry Node(h, c) with leading axes batch.
func ZeroCarry(batch tensor.Shape, hiddenSize int) Value { return nn.ZeroCarry(batch, hiddenSize) }

// CarryDesc describes ZeroCarry(batch, hiddenSize).
func CarryDesc(batch tensor.Shape, hiddenSize int) Desc { return nn.CarryDesc(batch, hiddenSize) }

// IDs converts token ids into an Embedding input of the given shape.
func IDs[T ~int | ~int32 | ~int64](ids []T, shape tensor.Shape) (*tensor.Tensor, error) {
	return nn.IDs(ids, shape)
}

// SinusoidalEncoding returns the [seqLen, dim] sinusoidal position table.
func SinusoidalEncoding(seqLen, dim int) *tensor.Tensor { return nn.SinusoidalEncoding(seqLen, dim) }
