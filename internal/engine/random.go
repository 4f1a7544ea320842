package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource is everything the orchestrator draws from. *rand.Rand
// satisfies it.
type RandomSource interface {
	IntN(n int) int
	Float64() float64
	Uint64() uint64
}

const pcgStream = 0xda3e39cb94b95bdb

func NewRandomSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}

// NewSeed returns a seed from the operating system's entropy source.
func NewSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.Uint64()
	}
	return binary.LittleEndian.Uint64(b[:])
}

// between returns a uniform float in [lo, hi).
func between(rng RandomSource, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// inclusive returns a uniform int in [lo, hi].
func inclusive(rng RandomSource, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}
