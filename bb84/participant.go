package bb84

import (
	"math/rand"

	"github.com/quantalab/qkdsim/bb84/bitarray"
	"github.com/quantalab/qkdsim/bb84/qubit"
)

// A sender is the transmitting participant. It draws the run's bit and basis
// streams and materializes the initial qubit states.
type sender struct {
	rng *rand.Rand
}

// generate draws n independent uniform (bit, basis) pairs.
func (s *sender) generate(n int) (bits, bases bitarray.Dense) {
	bitBuf := make([]byte, bitarray.BytesFor(n))
	s.rng.Read(bitBuf)
	basisBuf := make([]byte, bitarray.BytesFor(n))
	s.rng.Read(basisBuf)
	return bitarray.NewDense(bitBuf, n), bitarray.NewDense(basisBuf, n)
}

// transmit prepares one qubit per (bit, basis) pair. Preparation is
// deterministic, so transmission consumes no randomness.
func (s *sender) transmit(bits, bases bitarray.Dense) []qubit.State {
	states := make([]qubit.State, bits.Size())
	for i := range states {
		states[i] = qubit.Prepare(bitAt(bits, i), basisAt(bases, i))
	}
	return states
}

// An eavesdropper performs an intercept-resend attack: it measures each
// passing qubit in a basis of its own choosing and forwards the
// post-measurement state. It never sees the sender's bit or basis, only what
// its own measurements reveal.
type eavesdropper struct {
	rng     *rand.Rand
	backend qubit.Backend
}

// intercept measures and replaces states[i] for every i, returning the bases
// used. The measured values are deliberately discarded: for detection
// purposes only the disturbance matters.
func (e *eavesdropper) intercept(states []qubit.State) bitarray.Dense {
	var bases bitarray.Dense
	for i := range states {
		basis := randomBasis(e.rng)
		_, replaced := e.backend.Measure(states[i], basis)
		states[i] = replaced
		bases.AppendBit(basis == qubit.Diagonal)
	}
	return bases
}

// A receiver is the terminal participant. It measures each arriving qubit in
// a basis of its own choosing and records the outcome; nothing is re-emitted.
type receiver struct {
	rng     *rand.Rand
	backend qubit.Backend
}

// receive measures every state, returning the observed bits and the bases
// they were observed in.
func (r *receiver) receive(states []qubit.State) (bits, bases bitarray.Dense) {
	for i := range states {
		basis := randomBasis(r.rng)
		bit, _ := r.backend.Measure(states[i], basis)
		bits.AppendBit(bit == 1)
		bases.AppendBit(basis == qubit.Diagonal)
	}
	return bits, bases
}

// randomBasis draws one of the two bases uniformly.
func randomBasis(rng *rand.Rand) qubit.Basis {
	if rng.Intn(2) == 1 {
		return qubit.Diagonal
	}
	return qubit.Rectilinear
}

func bitAt(d bitarray.Dense, i int) qubit.Bit {
	if d.Get(i) {
		return 1
	}
	return 0
}

func basisAt(d bitarray.Dense, i int) qubit.Basis {
	if d.Get(i) {
		return qubit.Diagonal
	}
	return qubit.Rectilinear
}
