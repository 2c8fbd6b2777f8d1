package service

import (
	"math/rand/v2"
	"sync"
	"time"
)

// RNG is the randomness source for every draw the agents make.
// Tests inject a seeded or scripted implementation.
type RNG interface {
	// IntRange returns a uniform integer in [lo, hi]; hi < lo returns lo.
	IntRange(lo, hi int) int
	// FloatRange returns a uniform float in [lo, hi).
	FloatRange(lo, hi float64) float64
}

// PCGSource is a mutex-guarded math/rand/v2 PCG generator.
type PCGSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRNG seeds a PCG generator. Seed 0 derives one from the clock.
func NewRNG(seed uint64) *PCGSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &PCGSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *PCGSource) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.r.IntN(hi-lo+1)
}

func (s *PCGSource) FloatRange(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.r.Float64()*(hi-lo)
}
