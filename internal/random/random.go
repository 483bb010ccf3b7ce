// Package random supplies the unbiased randomness behind shuffles, dice
// rolls, wheel spins and slot reels. The server is authoritative: sources
// are seeded from crypto/rand at construction and clients can never replay
// an outcome.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

type Source interface {
	// Shuffle permutes n elements uniformly via the swap function.
	Shuffle(n int, swap func(i, j int))
	// Roll returns a uniform value in 1..sides.
	Roll(sides int) int
	// Spin returns a uniform value in 0..size-1.
	Spin(size int) int
}

type source struct {
	rng *mrand.Rand
}

// New returns a Source backed by ChaCha8 with a fresh crypto/rand seed.
func New() Source {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand failing means the platform is broken; fall back
		// to a best-effort seed rather than refuse to start.
		binary.LittleEndian.PutUint64(seed[:8], mrand.Uint64())
	}
	return &source{rng: mrand.New(mrand.NewChaCha8(seed))}
}

// NewSeeded returns a deterministic Source for tests.
func NewSeeded(seed uint64) Source {
	return &source{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *source) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}

func (s *source) Roll(sides int) int {
	return s.rng.IntN(sides) + 1
}

func (s *source) Spin(size int) int {
	return s.rng.IntN(size)
}
