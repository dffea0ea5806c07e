package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Encoder converts text to token ids.
type Encoder interface {
	Encode(text string) ([]int32, error)
}

// TikToken wraps the pkoukk/tiktoken-go BPE encodings.
//
// Supported encodings:
//   - cl100k_base: GPT-4, GPT-3.5-turbo, text-embedding-ada-002
//   - p50k_base: GPT-3, Codex
//   - r50k_base: GPT-3, davinci-002, babbage-002
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken loads the named encoding.
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: load encoding %q: %w", encodingName, err)
	}
	return &TikToken{encoding: encoding, name: encodingName}, nil
}

// Encode converts text to token ids. Special-token markers are encoded as
// ordinary text.
func (t *TikToken) Encode(text string) ([]int32, error) {
	tokens := t.encoding.Encode(text, nil, nil)
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = int32(tok) //nolint:gosec // G115: vocab size < 2^31.
	}
	return ids, nil
}

// Decode converts token ids back to text.
func (t *TikToken) Decode(ids []int32) (string, error) {
	tokens := make([]int, len(ids))
	for i, id := range ids {
		tokens[i] = int(id)
	}
	return t.encoding.Decode(tokens), nil
}

// Name returns the encoding name.
func (t *TikToken) Name() string {
	return t.name
}
