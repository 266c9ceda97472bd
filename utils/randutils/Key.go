// Package randutils implements explicit random sources. A Key is an
// immutable value from which all randomness of a single operation is
// derived, so that every stochastic function in this module is a pure
// function of the Key it is given.
package randutils

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Key is an explicit random source value. Keys should never be reused
// across two different stochastic operations; use Split to derive
// independent keys instead.
type Key uint64

// NewKey returns a new Key from a seed
func NewKey(seed uint64) Key {
	return Key(seed)
}

// Split deterministically derives n new keys from k. The derived keys
// are different from k and from each other with overwhelming
// probability.
func (k Key) Split(n int) []Key {
	if n < 0 {
		panic("split: cannot split into a negative number of keys")
	}

	src := rand.NewSource(uint64(k))
	keys := make([]Key, n)
	for i := range keys {
		keys[i] = Key(src.Uint64())
	}
	return keys
}

// Split2 is a convenience function for splitting a Key into two
func (k Key) Split2() (Key, Key) {
	keys := k.Split(2)
	return keys[0], keys[1]
}

// Source returns a new random source seeded by the Key. Each call
// returns a fresh source in the same starting state.
func (k Key) Source() rand.Source {
	return rand.NewSource(uint64(k))
}

// Uniform returns a single sample from U[min, max)
func (k Key) Uniform(min, max float64) float64 {
	if min == max {
		return min
	}
	return distuv.Uniform{Min: min, Max: max, Src: k.Source()}.Rand()
}

// Bernoulli returns true with probability p. Probabilities outside of
// [0, 1] are clipped.
func (k Key) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return distuv.Bernoulli{P: p, Src: k.Source()}.Rand() == 1.0
}
