package training

import (
	"math/rand/v2"
	"slices"
)

// Rand is a source of uniformly distributed integers. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the process-wide math/rand/v2 source.
var DefaultRand Rand = globalRand{}

// Shuffle permutes s in place with the Fisher–Yates algorithm: walking from
// the last element down to the second, each element is swapped with a
// uniformly chosen element at or before it.
func Shuffle[T any](r Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Shuffled returns a shuffled copy of s, leaving s untouched.
func Shuffled[T any](r Rand, s []T) []T {
	c := slices.Clone(s)
	Shuffle(r, c)
	return c
}
