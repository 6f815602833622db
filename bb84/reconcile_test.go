package bb84

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/quantalab/qkdsim/bb84/bitarray"
)

func TestSift(t *testing.T) {
	senderBits := bitarray.NewDense([]byte{0b10110100}, 8)
	senderBases := bitarray.NewDense([]byte{0b11001010}, 8)
	receiverBases := bitarray.NewDense([]byte{0b01101010}, 8)

	key, idx := sift(senderBits, senderBases, receiverBases)

	wantIdx := []int{0, 1, 2, 3, 4, 6}
	if !reflect.DeepEqual(idx, wantIdx) {
		t.Errorf("sift indices == %v, want %v", idx, wantIdx)
	}
	want := bitarray.NewDense([]byte{0b010100}, 6)
	if !key.Equal(want) {
		t.Errorf("sifted key == %v, want %v", key, want)
	}
	if key.Size() != len(idx) {
		t.Errorf("key length %d != retained index count %d", key.Size(), len(idx))
	}
}

func TestSampleCheckCleanChannel(t *testing.T) {
	// Receiver bits identical to sender bits at every retained index: the
	// verdict must accept regardless of which positions get sampled.
	senderBits := bitarray.NewDense([]byte{0b11011000, 0b101}, 12)
	bases := bitarray.NewDense([]byte{0b01100110, 0b110}, 12)
	key, idx := sift(senderBits, bases, bases)
	if key.Size() != 12 {
		t.Fatalf("identical bases must retain every position, got %d", key.Size())
	}

	res := sampleCheck(key, idx, senderBits, 5, rand.New(rand.NewSource(3)))
	if !res.verdict.Accepted {
		t.Errorf("clean channel rejected: %+v", res.verdict)
	}
	if res.verdict.SampleSize != 5 || res.verdict.Mismatches != 0 {
		t.Errorf("verdict == %+v, want 5 samples, 0 mismatches", res.verdict)
	}
	if res.qber != 0 {
		t.Errorf("qber == %v, want 0", res.qber)
	}
	if res.secret.Size() != key.Size()-5 {
		t.Errorf("secret key has %d bits, want %d", res.secret.Size(), key.Size()-5)
	}
}

func TestSampleCheckDetectsTamper(t *testing.T) {
	senderBits := bitarray.NewDense([]byte{0b11011000}, 8)
	bases := bitarray.NewDense([]byte{0b01100110}, 8)
	key, idx := sift(senderBits, bases, bases)

	// Corrupt one in-flight bit and sample every position: the mismatch
	// cannot hide.
	receiverBits := bitarray.NewDense(senderBits.Data(), senderBits.Size())
	receiverBits.Flip(3)
	res := sampleCheck(key, idx, receiverBits, key.Size(), rand.New(rand.NewSource(3)))
	if res.verdict.Accepted {
		t.Errorf("tampered channel accepted: %+v", res.verdict)
	}
	if res.verdict.Mismatches != 1 {
		t.Errorf("Mismatches == %d, want 1", res.verdict.Mismatches)
	}
	if res.verdict.SampleSize != key.Size() {
		t.Errorf("SampleSize == %d, want %d", res.verdict.SampleSize, key.Size())
	}
	if res.secret.Size() != 0 {
		t.Errorf("sampling everything must leave no secret bits, got %d", res.secret.Size())
	}
}

func TestSampleCheckDegenerateKey(t *testing.T) {
	// All bases conjugate: nothing survives the sift.
	senderBits := bitarray.NewDense([]byte{0b1111}, 4)
	senderBases := bitarray.NewDense(nil, 4)
	receiverBases := bitarray.NewDense([]byte{0b1111}, 4)
	key, idx := sift(senderBits, senderBases, receiverBases)
	if key.Size() != 0 {
		t.Fatalf("conjugate bases must retain nothing, got %d bits", key.Size())
	}

	res := sampleCheck(key, idx, senderBits, 5, rand.New(rand.NewSource(3)))
	if !res.verdict.Accepted {
		t.Errorf("degenerate key must be vacuously accepted: %+v", res.verdict)
	}
	if res.verdict.SampleSize != 0 {
		t.Errorf("SampleSize == %d, want 0", res.verdict.SampleSize)
	}
	if res.verdict.EvasionProb != 1 {
		t.Errorf("EvasionProb == %v, want 1 for an empty sample", res.verdict.EvasionProb)
	}
}

func TestSampleWithoutReplacement(t *testing.T) {
	senderBits := bitarray.NewDense([]byte{0b1010}, 4)
	bases := bitarray.NewDense([]byte{0b0101}, 4)
	key, idx := sift(senderBits, bases, bases)

	res := sampleCheck(key, idx, senderBits, 100, rand.New(rand.NewSource(9)))
	if got, want := res.sampled, []int{0, 1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("sampling past the key length must disclose each position once: got %v, want %v", got, want)
	}
}

func TestEvasionProb(t *testing.T) {
	if got, want := evasionProb(5), math.Pow(0.75, 5); math.Abs(got-want) > 1e-12 {
		t.Errorf("evasionProb(5) == %v, want %v", got, want)
	}
	if got := evasionProb(0); got != 1 {
		t.Errorf("evasionProb(0) == %v, want 1", got)
	}
}
