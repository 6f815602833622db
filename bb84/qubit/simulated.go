package qubit

import (
	"math/rand"
)

// A Simulator is a pRNG-backed Backend implementing ideal (noiseless)
// measurement statistics. It is not safe for concurrent use; give each
// goroutine its own Simulator wrapping its own rand.Rand.
type Simulator struct {
	rng *rand.Rand
}

// NewSimulator returns a Backend whose conjugate-basis coin flips are drawn
// from rng. Fixing the seed of rng fixes the outcome of every measurement.
func NewSimulator(rng *rand.Rand) *Simulator {
	return &Simulator{rng: rng}
}

// Measure implements the Backend interface.
func (sim *Simulator) Measure(s State, basis Basis) (Bit, State) {
	if basis == s.basis {
		return s.bit, Prepare(s.bit, basis)
	}
	b := Bit(sim.rng.Intn(2))
	return b, Prepare(b, basis)
}
