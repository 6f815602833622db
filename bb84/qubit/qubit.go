// Package qubit models single polarization-encoded quantum bits: their
// preparation in one of two conjugate bases, and the collapse rule governing
// their measurement.
package qubit

// A Bit is a classical bit value, 0 or 1.
type Bit uint8

// A Basis is one of the two mutually conjugate preparation/measurement frames
// for a qubit. Two bases are either equal or conjugate; there is no partial
// overlap.
type Basis uint8

const (
	// Rectilinear is the computational (horizontal/vertical) basis.
	Rectilinear Basis = iota
	// Diagonal is the Hadamard-rotated (+45/-45 degree) basis.
	Diagonal
)

// String returns a short name for b.
func (b Basis) String() string {
	if b == Rectilinear {
		return "+"
	}
	return "x"
}

// A State is the hidden physical state of one in-transit qubit: the bit value
// and basis it was most recently prepared in. States are immutable; measuring
// one in a conjugate basis yields a replacement State rather than mutating
// the original. There is deliberately no way to duplicate the hidden value of
// a State without measuring it.
type State struct {
	bit   Bit
	basis Basis
}

// Prepare encodes a classical bit in the given basis, returning the resulting
// qubit state. Preparation is deterministic.
func Prepare(bit Bit, basis Basis) State {
	return State{bit: bit, basis: basis}
}

// Basis returns the basis s was last prepared in. The preparing party knows
// this; an interceptor does not, which is the entire point of the protocol.
func (s State) Basis() Basis {
	return s.basis
}

// A Backend performs single-qubit measurements. It is the only capability the
// protocol engine requires from a physical or simulated quantum layer.
type Backend interface {
	// Measure observes s in the given basis. It returns the observed bit and
	// the post-measurement state, which always carries the observed bit
	// prepared in the measurement basis.
	//
	// If basis equals the basis s was prepared in, the observed bit equals
	// the prepared bit with probability 1. If the bases are conjugate, each
	// of {0, 1} is observed with probability 1/2, independent of the
	// prepared bit, and the original value is destroyed.
	Measure(s State, basis Basis) (Bit, State)
}
