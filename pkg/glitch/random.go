package glitch

import (
	"math/rand/v2"
	"time"
)

// Source supplies uniformly distributed values in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a PCG-backed Source. A zero seed seeds from the clock.
func NewSource(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// intn returns floor(src.Float64() * n), an integer in [0, n).
func intn(src Source, n float64) int {
	return int(src.Float64() * n)
}
