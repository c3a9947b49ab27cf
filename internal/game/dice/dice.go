// Package dice provides the randomness abstraction used by autonomous actor
// decisions. Every random choice made by the behavior engine goes through a
// Source so that scenario tests can replay a fixed sequence.
package dice

import "math/rand"

// Source is the randomness provider.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// chanceResolution is the granularity used by Chance.
const chanceResolution = 1_000_000

// Chance reports whether an event with probability p fires.
//
// Postcondition: p <= 0 never fires and consumes no randomness; p >= 1 always
// fires and consumes no randomness.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Intn(chanceResolution) < int(p*chanceResolution)
}

// seededSource is a deterministic Source backed by math/rand.
//
// Invariant: not safe for concurrent use; owned by a single simulation loop.
type seededSource struct {
	rng *rand.Rand
}

// NewSeededSource returns a deterministic Source. Two sources with the same
// seed produce identical sequences.
func NewSeededSource(seed int64) Source {
	return &seededSource{rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a pseudo-random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" otherwise.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return s.rng.Intn(n)
}

// Sequence is a Source that replays fixed values modulo n. Useful in tests
// that need to force a specific branch.
type Sequence struct {
	Values []int
	next   int
}

// Intn returns the next replayed value reduced into [0, n). An empty sequence
// always yields 0.
func (s *Sequence) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
