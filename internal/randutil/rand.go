// Package randutil builds the deterministic RNGs used for shuffling.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed. Both PCG
// words are derived from it so equal seeds always give equal shoes.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seed returns the configured seed, or a time-based one when none was given.
// The second result reports whether the seed was explicit.
func Seed(configured *int64) (int64, bool) {
	if configured != nil {
		return *configured, true
	}
	return time.Now().UnixNano(), false
}

// Derive returns the seed for the n-th independent stream of a run, so that
// parallel workers get distinct but reproducible shoes.
func Derive(seed int64, n int) int64 {
	return int64(mix(uint64(seed) + uint64(n+1)*goldenRatio64))
}

// splitmix64 finaliser
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
