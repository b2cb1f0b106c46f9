package prng

import (
	"math/rand"
	"time"
)

// MathRand adapts math/rand.Rand to the Source contract — the same
// generator choice the teacher repo (mattkeenan/zerocopyskiplist)
// makes for its own level assignment. Its output is masked to 31
// bits so the skip list's "< RandMax/2" fair-coin test behaves
// identically regardless of which Source is plugged in.
type MathRand struct {
	r *rand.Rand
}

// NewMathRand wraps an existing *rand.Rand.
func NewMathRand(r *rand.Rand) *MathRand {
	return &MathRand{r: r}
}

// NewDefaultMathRand constructs a MathRand seeded from the process
// clock, mirroring the teacher's own
// rand.New(rand.NewSource(time.Now().UnixNano())) construction.
func NewDefaultMathRand() *MathRand {
	return &MathRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Uint32 returns a value in [0, RandMax].
func (m *MathRand) Uint32() uint32 {
	return m.r.Uint32() & RandMax
}
