// Package bitarray provides utilities for operating on densely-packed arrays
// of bits, as used for bit streams, basis streams, and key material.
package bitarray

import (
	"math/bits"
)

// TODO: operations work a byte at a time where they can, but Append and
//   Select still walk bit-by-bit; revisit if profiles ever show them hot.

const blockSize = 8

// A Dense is a bit array where every bit is explicitly represented.
type Dense struct {
	bits []byte
	len  int
}

// NewDense returns a new Dense whose data is a copy of data, and whose length
// is bitLen. If bitLen is longer than data, then trailing zeros are added. If
// bitLen is negative, then it is inferred from data.
func NewDense(data []byte, bitLen int) Dense {
	if bitLen < 0 {
		bitLen = len(data) * blockSize
	}
	b := make([]byte, BytesFor(bitLen))
	copy(b, data)
	d := Dense{bits: b, len: bitLen}
	d.clearTail()
	return d
}

// Empty returns an empty, dense bit array.
func Empty() Dense {
	return Dense{}
}

// Size returns the number of bits in d.
func (d Dense) Size() int {
	return d.len
}

// ByteSize returns the number of bytes necessary to represent d.
func (d Dense) ByteSize() int {
	return BytesFor(d.len)
}

// Data returns a copy of the bytes underlying d.
func (d Dense) Data() []byte {
	b := make([]byte, len(d.bits))
	copy(b, d.bits)
	return b
}

// Get returns the bit at idx. Reads past the end of d return false.
func (d Dense) Get(idx int) bool {
	if idx < 0 || idx >= d.len {
		return false
	}
	return 0 < d.bits[idx/blockSize]&(1<<(idx%blockSize))
}

// Set assigns the bit at idx.
func (d *Dense) Set(idx int, bit bool) {
	j, pos := idx/blockSize, idx%blockSize
	if bit {
		d.bits[j] |= 1 << pos
	} else {
		d.bits[j] &^= 1 << pos
	}
}

// Flip inverts the bit at idx.
func (d *Dense) Flip(idx int) {
	d.bits[idx/blockSize] ^= 1 << (idx % blockSize)
}

// AppendBit adds a single bit to the end of d.
func (d *Dense) AppendBit(bit bool) {
	pos := d.len % blockSize
	d.len++
	if pos == 0 {
		d.bits = append(d.bits, 0)
	}
	if bit {
		d.bits[len(d.bits)-1] |= 1 << pos
	}
}

// Append adds the contents of other to the end of d.
func (d *Dense) Append(other Dense) {
	for i := 0; i < other.len; i++ {
		d.AppendBit(other.Get(i))
	}
}

// And computes a bitwise AND operation between d and other. If one of the two
// is shorter than the other, then trailing 0s are implicitly added to make
// the sizes match.
func (d Dense) And(other Dense) Dense {
	short := other
	if d.len < other.len {
		short = d
	}
	r := Dense{bits: make([]byte, BytesFor(short.len)), len: short.len}
	for i := range r.bits {
		r.bits[i] = d.byteAt(i) & other.byteAt(i)
	}
	r.clearTail()
	return r
}

// XOr computes a bitwise XOR operation between d and other. If one of the two
// is shorter than the other, then trailing 0s are implicitly added to make
// the sizes match.
func (d Dense) XOr(other Dense) Dense {
	long := d
	if d.len < other.len {
		long = other
	}
	r := Dense{bits: make([]byte, BytesFor(long.len)), len: long.len}
	for i := range r.bits {
		r.bits[i] = d.byteAt(i) ^ other.byteAt(i)
	}
	return r
}

// XNor computes a bitwise equality operation between d and other. If one of
// the two is shorter than the other, then trailing 0s are implicitly added to
// make the sizes match.
func (d Dense) XNor(other Dense) Dense {
	long := d
	if d.len < other.len {
		long = other
	}
	r := Dense{bits: make([]byte, BytesFor(long.len)), len: long.len}
	for i := range r.bits {
		r.bits[i] = ^(d.byteAt(i) ^ other.byteAt(i))
	}
	r.clearTail()
	return r
}

// CountOnes returns the total number of bits set in d.
func (d Dense) CountOnes() int {
	var sum int
	for i := range d.bits {
		sum += bits.OnesCount8(d.bits[i])
	}
	return sum
}

// Select selects the subset of bits from d at positions where mask is set.
func (d Dense) Select(mask Dense) Dense {
	var r Dense
	for i := 0; i < d.len; i++ {
		if !mask.Get(i) {
			continue
		}
		r.AppendBit(d.Get(i))
	}
	return r
}

// Indices returns, in ascending order, the positions of the set bits in d.
func (d Dense) Indices() []int {
	r := make([]int, 0, d.CountOnes())
	for i := 0; i < d.len; i++ {
		if d.Get(i) {
			r = append(r, i)
		}
	}
	return r
}

// Equal reports whether d and other have the same length and contents.
func (d Dense) Equal(other Dense) bool {
	if d.len != other.len {
		return false
	}
	for i := range d.bits {
		if d.bits[i] != other.bits[i] {
			return false
		}
	}
	return true
}

// String renders d as a 0/1 string, position 0 first.
func (d Dense) String() string {
	b := make([]byte, d.len)
	for i := 0; i < d.len; i++ {
		b[i] = '0'
		if d.Get(i) {
			b[i] = '1'
		}
	}
	return string(b)
}

// BytesFor returns the number of bytes needed to hold bitLen bits.
func BytesFor(bitLen int) int {
	return (bitLen + blockSize - 1) / blockSize
}

func (d Dense) byteAt(i int) byte {
	if i >= len(d.bits) {
		return 0
	}
	return d.bits[i]
}

// clearTail zeroes the spare high bits of the final block, so byte-wise
// operations never see garbage past len.
func (d *Dense) clearTail() {
	if d.len%blockSize == 0 || len(d.bits) == 0 {
		return
	}
	d.bits[len(d.bits)-1] &= 0xFF >> (blockSize - d.len%blockSize)
}
