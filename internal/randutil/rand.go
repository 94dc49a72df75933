package randutil

import (
	rand "math/rand/v2"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided
// int64. Deck shuffles and the CPU policy both take their randomness
// from here so that a seed reproduces an entire hand.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// NewFromTime returns a source seeded from the wall clock, for
// production use where reproducibility is not needed.
func NewFromTime() *rand.Rand {
	return New(time.Now().UnixNano())
}

// mix is a splitmix64-style finalizer that spreads low-entropy seeds
// across the full 64-bit space.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
