package companion

import "math/rand"

// Random is the source of every probability roll a companion makes.
// *rand.Rand satisfies it; tests substitute a scripted source.
type Random interface {
	Float64() float64
	Intn(n int) int
}

// NewRandom returns a seeded source for the frame loop goroutine.
func NewRandom(seed int64) Random {
	return rand.New(rand.NewSource(seed))
}

// between draws from [lo, hi). Returns lo when the range is empty.
func between(r Random, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo)
}
