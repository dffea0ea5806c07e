package layer

import "github.com/born-ml/fnn/internal/rng"

// FanOut assigns one independent stream to every position flagged in needs,
// in order, and rng.None to the rest.
//
// No flagged position allocates nothing. A single flagged position receives
// key itself. Otherwise key is split once into as many streams as there are
// flagged positions. The stream a position receives therefore depends only on
// the ordered set of flagged positions.
func FanOut(key rng.Key, needs []bool) []rng.Key {
	keys := make([]rng.Key, len(needs))
	n := 0
	for _, need := range needs {
		if need {
			n++
		}
	}

	var streams []rng.Key
	switch n {
	case 0:
		return keys
	case 1:
		streams = []rng.Key{key}
	default:
		streams = key.Split(n)
	}

	next := 0
	for i, need := range needs {
		if need {
			keys[i] = streams[next]
			next++
		}
	}
	return keys
}

func needsOf(layers []Layer) ([]bool, bool) {
	needs := make([]bool, len(layers))
	some := false
	for i, l := range layers {
		needs[i] = l.NeedsKey()
		some = some || needs[i]
	}
	return needs, some
}
