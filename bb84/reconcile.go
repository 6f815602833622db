package bb84

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantalab/qkdsim/bb84/bitarray"
)

// interceptQBER is the bit error rate an intercept-resend attack induces on
// sifted positions of a noiseless channel: the attacker guesses the wrong
// basis half the time, and a wrongly measured qubit then flips on the
// receiver's matched-basis measurement half the time.
const interceptQBER = 0.25

// sift retains the sender's bits at the positions where both parties chose
// the same basis. Bases are compared publicly; bit values are not. Alongside
// the key, sift returns each retained bit's original transmission index, so
// that later comparisons against either party's raw stream stay aligned.
func sift(senderBits, senderBases, receiverBases bitarray.Dense) (bitarray.Dense, []int) {
	mask := senderBases.XNor(receiverBases)
	return senderBits.Select(mask), mask.Indices()
}

// A checkResult carries everything the sample-check phase decides.
type checkResult struct {
	verdict Verdict
	// sampled holds the disclosed sifted-key positions, ascending.
	sampled []int
	// secret is the sifted key with the disclosed positions removed.
	secret bitarray.Dense
	// qber is the mismatch rate over the sampled positions.
	qber float64
}

// sampleCheck compares min(key length, limit) sifted key positions, chosen
// uniformly without replacement, against the receiver's bits at the
// corresponding transmission indices. Any mismatch on a noiseless channel
// means the qubit was disturbed in flight, i.e. eavesdropping. Disclosed
// positions become public and are dropped from the secret key.
//
// A degenerate (empty) sifted key is vacuously accepted with sample size 0.
func sampleCheck(key bitarray.Dense, keyIdx []int, receiverBits bitarray.Dense, limit int, rng *rand.Rand) checkResult {
	n := key.Size()
	s := limit
	if n < s {
		s = n
	}
	sampled := rng.Perm(n)[:s]
	sort.Ints(sampled)

	mismatches := 0
	for _, kpos := range sampled {
		if key.Get(kpos) != receiverBits.Get(keyIdx[kpos]) {
			mismatches++
		}
	}

	var secret bitarray.Dense
	next := 0
	for i := 0; i < n; i++ {
		if next < len(sampled) && sampled[next] == i {
			next++
			continue
		}
		secret.AppendBit(key.Get(i))
	}

	var qber float64
	if s > 0 {
		qber = float64(mismatches) / float64(s)
	}
	return checkResult{
		verdict: Verdict{
			Accepted:    mismatches == 0,
			Mismatches:  mismatches,
			SampleSize:  s,
			EvasionProb: evasionProb(s),
		},
		sampled: sampled,
		secret:  secret,
		qber:    qber,
	}
}

// evasionProb returns the probability that an attacker intercepting every
// qubit induces zero mismatches across s sampled positions.
func evasionProb(s int) float64 {
	b := distuv.Binomial{N: float64(s), P: interceptQBER}
	return b.Prob(0)
}
