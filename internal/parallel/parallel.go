// Package parallel splits independent index ranges across goroutines.
//
// The tensor engine uses it for kernels whose iterations write disjoint
// output regions, so results do not depend on scheduling.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Workers int // Number of goroutines; values <= 1 run inline.
	Grain   int // Minimum iterations per goroutine.
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	return Config{
		Workers: runtime.NumCPU(),
		Grain:   1,
	}
}

// Sequential returns a configuration that always runs inline.
func Sequential() Config {
	return Config{Workers: 1, Grain: 1}
}

// Range calls fn over disjoint half-open chunks [start, end) covering [0, n).
func Range(n int, cfg Config, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	grain := max(cfg.Grain, 1)
	if cfg.Workers <= 1 || n <= grain {
		fn(0, n)
		return
	}

	chunk := max((n+cfg.Workers-1)/cfg.Workers, grain)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// For executes f(i) for every i in [0, n).
func For(n int, cfg Config, f func(i int)) {
	Range(n, cfg, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	})
}
