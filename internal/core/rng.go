package core

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// RNG is the deterministic random source threaded through stochastic rules.
// Each run or replicate owns exactly one; there is no process-wide state.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG from the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 { return r.r.Float64() }

// IntN returns a uniform value in [0, n).
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Bernoulli draws a success flag with probability p.
func (r *RNG) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.r.Float64() < p
}

// poissonSource adapts the run's rand.Rand to the source interface gonum's
// distributions expect (Uint64 plus a Seed method rand/v2 dropped).
type poissonSource struct{ r *rand.Rand }

func (s poissonSource) Uint64() uint64 { return s.r.Uint64() }
func (s poissonSource) Seed(uint64)   {}

// Poisson draws a count with the given mean.
func (r *RNG) Poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: mean, Src: poissonSource{r.r}}.Rand())
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }
