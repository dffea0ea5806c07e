// Package rng derives independent, reproducible randomness streams from a
// single root seed.
//
// A Key is an immutable value. Split and FoldIn derive children with the
// Threefry-2x32 block cipher, so derivation is a pure function of the parent
// key and the index: the same key and the same index always give the same
// child, and nothing is consumed or mutated along the way.
package rng

import (
	"fmt"
	"math/bits"
)

// Domain words mixed into the counter so that split and fold-in children never
// coincide for the same index.
const (
	splitDomain uint32 = 0x53504c54 // "SPLT"
	foldDomain  uint32 = 0x464f4c44 // "FOLD"
	seedDomain  uint32 = 0x53454544 // "SEED"
)

// Key is an opaque handle to a randomness stream.
//
// The zero value is None, the absent key handed to layers that declare no
// need for randomness.
type Key struct {
	words [2]uint32
	valid bool
}

// None is the absent key.
var None Key

// New creates a root key from a seed.
func New(seed uint64) Key {
	return Key{words: [2]uint32{uint32(seed >> 32), uint32(seed)}, valid: true}
}

// Valid reports whether k is a real key rather than None.
func (k Key) Valid() bool {
	return k.valid
}

// Split derives n independent keys. Splitting None yields n copies of None.
func (k Key) Split(n int) []Key {
	if n < 0 {
		panic(fmt.Sprintf("rng: cannot split into %d keys", n))
	}
	keys := make([]Key, n)
	if !k.valid {
		return keys
	}
	for i := range keys {
		keys[i] = Key{words: threefry2x32(k.words, [2]uint32{uint32(i), splitDomain}), valid: true}
	}
	return keys
}

// FoldIn derives a key from k and an integer tag. Folding into None yields
// None.
func (k Key) FoldIn(tag int) Key {
	if !k.valid {
		return None
	}
	return Key{words: threefry2x32(k.words, [2]uint32{uint32(tag), foldDomain}), valid: true}
}

// String returns the key words in hex, or "None".
func (k Key) String() string {
	if !k.valid {
		return "None"
	}
	return fmt.Sprintf("Key(%08x,%08x)", k.words[0], k.words[1])
}

// seed expands k into 32 bytes for seeding a sampling stream.
func (k Key) seed() [32]byte {
	var out [32]byte
	for i := 0; i < 4; i++ {
		w := threefry2x32(k.words, [2]uint32{uint32(i), seedDomain})
		for j, word := range w {
			base := i*8 + j*4
			out[base] = byte(word)
			out[base+1] = byte(word >> 8)
			out[base+2] = byte(word >> 16)
			out[base+3] = byte(word >> 24)
		}
	}
	return out
}

var rotations = [2][4]int{{13, 15, 26, 6}, {17, 29, 16, 24}}

// threefry2x32 is the 20-round Threefry-2x32 block cipher keyed by key and
// applied to counter.
func threefry2x32(key, counter [2]uint32) [2]uint32 {
	ks := [3]uint32{key[0], key[1], 0x1BD11BDA ^ key[0] ^ key[1]}
	x0 := counter[0] + ks[0]
	x1 := counter[1] + ks[1]

	for i := 0; i < 5; i++ {
		for _, r := range rotations[i%2] {
			x0 += x1
			x1 = bits.RotateLeft32(x1, r)
			x1 ^= x0
		}
		x0 += ks[(i+1)%3]
		x1 += ks[(i+2)%3] + uint32(i+1)
	}
	return [2]uint32{x0, x1}
}
