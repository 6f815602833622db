// Package bb84 simulates the BB84 quantum key distribution protocol between
// two honest parties and an optional intercept-resend eavesdropper, producing
// a shared secret bit sequence and a statistical verdict on whether the
// channel was tapped.
package bb84

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/quantalab/qkdsim/bb84/batch"
	"github.com/quantalab/qkdsim/bb84/bitarray"
	"github.com/quantalab/qkdsim/bb84/qubit"
)

// DefaultSampleLimit is the maximum number of sifted key bits disclosed for
// eavesdropper detection when Opts.SampleLimit is left zero.
var DefaultSampleLimit = 5

// ErrInvalidConfig is returned, possibly wrapped, for configurations that can
// be rejected before any random draw is made.
var ErrInvalidConfig = errors.New("bb84: invalid configuration")

// A Phase names a stage of the protocol state machine. Runs advance linearly
// through the phases; the intercept phase is skipped when no eavesdropper is
// configured.
type Phase string

const (
	PhaseGenerate    Phase = "generate"
	PhaseIntercept   Phase = "intercept"
	PhaseReceive     Phase = "receive"
	PhaseReconcile   Phase = "reconcile"
	PhaseSampleCheck Phase = "sample-check"
)

// Opts packages together the arguments necessary to construct a Protocol.
type Opts struct {
	// NBits is the number of qubits to transmit. Must be positive.
	NBits int

	// Eavesdrop routes every qubit through an intercept-resend eavesdropper
	// on its way to the receiver.
	Eavesdrop bool

	// SampleLimit caps the number of sifted key bits disclosed for detection.
	// Defaults to DefaultSampleLimit. Must not be negative.
	SampleLimit int

	// Workers is the number of goroutines the transmission fan-out runs on.
	// Defaults to GOMAXPROCS. Runs are reproducible for a fixed (Rand seed,
	// Workers) pair. Must not be negative.
	Workers int

	// Rand provides the run's root source of randomness. Child generators
	// for the transmission workers are seeded from it. This may use pRNG for
	// experimentation and testing; for a run whose key matters, it must be
	// truly random. Must be non-nil.
	Rand *rand.Rand

	// NewBackend constructs the quantum measurement backend used by one
	// transmission worker. Defaults to qubit.NewSimulator.
	NewBackend func(*rand.Rand) qubit.Backend
}

// Stats packages together a collection of potentially interesting metrics
// pertaining to one protocol run.
type Stats struct {
	// QBER is the empirical quantum bit error rate observed over the sampled
	// positions. Zero when nothing was sampled.
	QBER float64
	// Sifted is the number of key bits retained by basis reconciliation.
	Sifted int
	// Sampled is the number of sifted bits disclosed for detection.
	Sampled int
	// KeyBits is the length of the final secret key, after the sampled
	// positions have been discarded.
	KeyBits int
}

// A Verdict is the terminal result of a run's detection check.
type Verdict struct {
	// Accepted is true when every sampled position agreed. An empty sifted
	// key is vacuously accepted with SampleSize 0.
	Accepted bool
	// Mismatches is the number of sampled positions that disagreed.
	Mismatches int
	// SampleSize is the number of sifted key positions compared.
	SampleSize int
	// EvasionProb is the a priori probability that an intercept-resend
	// attack on every qubit would survive a sample of this size undetected.
	EvasionProb float64
}

// A RunReport carries everything observable about one completed run. All bit
// and basis arrays are index-aligned to the original NBits transmission
// positions, except the key material, which is indexed by sifted position.
type RunReport struct {
	SenderBits    bitarray.Dense
	SenderBases   bitarray.Dense
	ReceiverBits  bitarray.Dense
	ReceiverBases bitarray.Dense

	// EveBases holds the eavesdropper's measurement bases, for diagnostics
	// only; it plays no part in reconciliation. Zero-length when the run had
	// no eavesdropper.
	EveBases bitarray.Dense

	// SiftedKey is the sender's bits at positions where both bases agreed.
	SiftedKey bitarray.Dense
	// KeyIndices maps each sifted key position to its original transmission
	// index, so both parties' raw streams can be addressed consistently.
	KeyIndices []int
	// Sampled lists, in ascending order, the sifted key positions disclosed
	// during detection. Disclosed bits are public and excluded from SecretKey.
	Sampled []int
	// SecretKey is SiftedKey minus the sampled positions.
	SecretKey bitarray.Dense

	Verdict Verdict
	Stats   Stats
}

// A Protocol drives complete BB84 rounds for one fixed configuration.
type Protocol struct {
	nBits       int
	eavesdrop   bool
	sampleLimit int
	rng         *rand.Rand
	newBackend  func(*rand.Rand) qubit.Backend
	pool        *batch.Pool
}

// NewProtocol returns a Protocol configured per opts, or an error if the
// options are nonsensical. No randomness is consumed until Run.
func NewProtocol(opts Opts) (*Protocol, error) {
	if opts.NBits <= 0 {
		return nil, fmt.Errorf("%w: NBits must be positive, got %d", ErrInvalidConfig, opts.NBits)
	}
	if opts.SampleLimit < 0 {
		return nil, fmt.Errorf("%w: SampleLimit must not be negative, got %d", ErrInvalidConfig, opts.SampleLimit)
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("%w: Workers must not be negative, got %d", ErrInvalidConfig, opts.Workers)
	}
	if opts.Rand == nil {
		return nil, fmt.Errorf("%w: must provide Rand", ErrInvalidConfig)
	}
	sampleLimit := opts.SampleLimit
	if sampleLimit == 0 {
		sampleLimit = DefaultSampleLimit
	}
	newBackend := opts.NewBackend
	if newBackend == nil {
		newBackend = func(rng *rand.Rand) qubit.Backend { return qubit.NewSimulator(rng) }
	}
	return &Protocol{
		nBits:       opts.NBits,
		eavesdrop:   opts.Eavesdrop,
		sampleLimit: sampleLimit,
		rng:         opts.Rand,
		newBackend:  newBackend,
		pool:        batch.New(opts.Workers),
	}, nil
}

// Run executes a single round with a fresh, time-seeded generator and default
// settings. Callers wanting reproducibility or an explicit backend should
// build a Protocol themselves.
func Run(nBits int, withEavesdropper bool) (*RunReport, error) {
	p, err := NewProtocol(Opts{
		NBits:     nBits,
		Eavesdrop: withEavesdropper,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		return nil, err
	}
	return p.Run(context.Background())
}
