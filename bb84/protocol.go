package bb84

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/quantalab/qkdsim/bb84/batch"
	"github.com/quantalab/qkdsim/bb84/bitarray"
)

// transit accumulates one worker's share of the transmission phase. Workers
// only ever touch their own entry, so the merge below needs no locking.
type transit struct {
	eveBases bitarray.Dense
	bits     bitarray.Dense
	bases    bitarray.Dense
}

// Run executes one complete protocol round:
//
//	generate -> [intercept] -> receive -> reconcile -> sample-check
//
// Each qubit's path through the channel is independent of every other's, so
// the intercept/receive hop is fanned out across the configured workers; the
// pool wait is the barrier before reconciliation. The returned report is
// self-contained and shares no mutable state with the Protocol.
func (p *Protocol) Run(ctx context.Context) (*RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alice := &sender{rng: p.rng}
	bits, bases := alice.generate(p.nBits)
	states := alice.transmit(bits, bases)

	// Seed one child generator per worker up front, so that the fan-out
	// consumes the root generator in a deterministic order.
	seeds := make([]int64, p.pool.Workers())
	for i := range seeds {
		seeds[i] = p.rng.Int63()
	}

	results := make([]transit, p.pool.Workers())
	err := p.pool.Map(ctx, p.nBits, func(ctx context.Context, c batch.Chunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rng := rand.New(rand.NewSource(seeds[c.Worker]))
		backend := p.newBackend(rng)
		span := states[c.Start:c.End]
		res := &results[c.Worker]
		if p.eavesdrop {
			eve := &eavesdropper{rng: rng, backend: backend}
			res.eveBases = eve.intercept(span)
		}
		bob := &receiver{rng: rng, backend: backend}
		res.bits, res.bases = bob.receive(span)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", PhaseReceive, err)
	}

	var eveBases, rBits, rBases bitarray.Dense
	for i := range results {
		eveBases.Append(results[i].eveBases)
		rBits.Append(results[i].bits)
		rBases.Append(results[i].bases)
	}

	key, keyIdx := sift(bits, bases, rBases)
	check := sampleCheck(key, keyIdx, rBits, p.sampleLimit, p.rng)

	return &RunReport{
		SenderBits:    bits,
		SenderBases:   bases,
		ReceiverBits:  rBits,
		ReceiverBases: rBases,
		EveBases:      eveBases,
		SiftedKey:     key,
		KeyIndices:    keyIdx,
		Sampled:       check.sampled,
		SecretKey:     check.secret,
		Verdict:       check.verdict,
		Stats: Stats{
			QBER:    check.qber,
			Sifted:  key.Size(),
			Sampled: check.verdict.SampleSize,
			KeyBits: check.secret.Size(),
		},
	}, nil
}
