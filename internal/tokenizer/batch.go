package tokenizer

import (
	"errors"
	"fmt"

	"github.com/born-ml/fnn/internal/sequence"
	"github.com/born-ml/fnn/internal/tensor"
)

// ErrVocab is returned for a non-positive vocabulary size or a negative id.
var ErrVocab = errors.New("tokenizer: invalid vocabulary")

// Batch is a right-padded batch of token sequences.
type Batch struct {
	IDs     *tensor.Tensor // [B, M], padding holds id 0
	Mask    *tensor.Tensor // [B, M], 1 for tokens, 0 for padding
	Lengths []int          // tokens per sequence after truncation
}

// Pad folds ids into [0, vocab) and right-pads the sequences to a common
// length. maxLen truncates longer sequences; 0 pads to the longest one.
func Pad(seqs [][]int32, maxLen, vocab int) (Batch, error) {
	if vocab <= 0 {
		return Batch{}, fmt.Errorf("%w: size %d", ErrVocab, vocab)
	}
	if maxLen < 0 {
		return Batch{}, fmt.Errorf("tokenizer: negative max length %d", maxLen)
	}
	width := maxLen
	if width == 0 {
		for _, s := range seqs {
			width = max(width, len(s))
		}
	}

	lengths := make([]int, len(seqs))
	data := make([]float64, len(seqs)*width)
	for b, s := range seqs {
		n := min(len(s), width)
		for i, id := range s[:n] {
			if id < 0 {
				return Batch{}, fmt.Errorf("%w: sequence %d has id %d", ErrVocab, b, id)
			}
			data[b*width+i] = float64(int(id) % vocab)
		}
		lengths[b] = n
	}

	ids, err := tensor.FromSlice(data, tensor.Shape{len(seqs), width})
	if err != nil {
		return Batch{}, fmt.Errorf("tokenizer: %w", err)
	}
	mask, err := sequence.FromLengths(lengths, width)
	if err != nil {
		return Batch{}, fmt.Errorf("tokenizer: %w", err)
	}
	return Batch{IDs: ids, Mask: mask, Lengths: lengths}, nil
}

// EncodeBatch encodes each text and pads the results with Pad.
func EncodeBatch(enc Encoder, texts []string, maxLen, vocab int) (Batch, error) {
	seqs := make([][]int32, len(texts))
	for i, text := range texts {
		ids, err := enc.Encode(text)
		if err != nil {
			return Batch{}, fmt.Errorf("tokenizer: encode text %d: %w", i, err)
		}
		seqs[i] = ids
	}
	return Pad(seqs, maxLen, vocab)
}
