// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import (
	"errors"
	mathbits "math/bits"
)

// 错误定义
var (
	// ErrOutOfRange a read crossed the end of the buffer.
	ErrOutOfRange = errors.New("bits: read out of range")
	// ErrGolombTooLong the Exp-Golomb code exceeds 31 bits (value > 65534).
	ErrGolombTooLong = errors.New("bits: exp-golomb code longer than 31 bits")
)

// Reader reads bits in most-significant-bit first order from a byte slice.
//
// The reader keeps up to 64 bits in a cache word and refills it from the
// buffer on demand. Every refill is bounded by the real end of the buffer;
// a read that would cross it sets a sticky error (retrievable via Err) and
// yields zero values from then on, so callers may issue a run of reads and
// check the error once.
type Reader struct {
	buf   []byte
	pos   int    // next byte of buf to load
	cache uint64 // valid bits kept in the low n bits
	n     uint   // number of valid bits in cache, [0,64]
	err   error
}

// NewReader retruns a new Reader reading buf.
func NewReader(buf []byte) *Reader {
	r := &Reader{buf: buf}
	r.load()
	r.err = nil // an empty buffer only fails once a bit is requested
	return r
}

// load refills the cache with up to 8 bytes.
func (r *Reader) load() {
	m := len(r.buf) - r.pos
	if m <= 0 {
		r.err = ErrOutOfRange
		return
	}
	if m > 8 {
		m = 8
	}
	var v uint64
	for _, b := range r.buf[r.pos : r.pos+m] {
		v = v<<8 | uint64(b)
	}
	r.pos += m
	r.cache = v
	r.n = uint(m) * 8
}

// fill appends up to 4 more bytes to the cache. Only called while n < 32,
// so the cache can always hold the extra bits.
func (r *Reader) fill() {
	m := len(r.buf) - r.pos
	if m <= 0 {
		return // nothing left; the caller decides whether that is fatal
	}
	if m > 4 {
		m = 4
	}
	var v uint64
	for _, b := range r.buf[r.pos : r.pos+m] {
		v = v<<8 | uint64(b)
	}
	r.pos += m
	r.cache = r.cache<<(uint(m)*8) | v
	r.n += uint(m) * 8
}

// take consumes the k top-most cached bits. The caller guarantees k <= n.
func (r *Reader) take(k uint) uint64 {
	r.n -= k
	code := r.cache >> r.n
	r.cache ^= code << r.n
	return code
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() uint8 {
	if r.err != nil {
		return 0
	}
	if r.n == 0 {
		r.load()
		if r.err != nil {
			return 0
		}
	}
	return uint8(r.take(1))
}

// ReadBool reads a single bit as a bool.
func (r *Reader) ReadBool() bool { return r.ReadBit() == 1 }

// ReadBits reads n (<= 16) bits.
func (r *Reader) ReadBits(n int) uint32 {
	return r.read(n, 16)
}

// ReadBitsLong reads n (<= 32) bits.
func (r *Reader) ReadBitsLong(n int) uint32 {
	return r.read(n, 32)
}

func (r *Reader) read(n, max int) uint32 {
	if r.err != nil {
		return 0
	}
	if n <= 0 || n > max {
		return 0
	}
	k := uint(n)
	if r.n < k {
		r.fill()
		if r.n < k {
			r.err = ErrOutOfRange
			return 0
		}
	}
	return uint32(r.take(k))
}

// ReadUint8 reads the uint8 of n bits.
func (r *Reader) ReadUint8(n int) uint8 { return uint8(r.ReadBits(n)) }

// ReadUint16 reads the uint16 of n bits.
func (r *Reader) ReadUint16(n int) uint16 { return uint16(r.ReadBits(n)) }

// ReadUint32 reads the uint32 of n bits.
func (r *Reader) ReadUint32(n int) uint32 { return r.ReadBitsLong(n) }

// ReadUe reads one unsigned Exp-Golomb code (Rec. ITU-T H.265 section 9.2)
// and returns its value. A code is leadingZeroBits zero bits, a one bit and
// leadingZeroBits suffix bits; the value is 2^leadingZeroBits - 1 + suffix.
// Codes longer than 31 bits (values above 65534) are rejected.
func (r *Reader) ReadUe() uint32 {
	if r.err != nil {
		return 0
	}
	if r.n < 32 {
		r.fill()
	}
	if r.n == 0 {
		r.err = ErrOutOfRange
		return 0
	}
	// Count the leading zeros of the cached window to find the codeword
	// length in one step. The window is padded with zeros past the end of
	// the buffer, so the end-of-buffer check must come first: a zero run
	// continuing into the padding is an exhausted buffer, not a long code.
	window := r.cache << (64 - r.n)
	lz := uint(mathbits.LeadingZeros64(window))
	codeLen := lz*2 + 1
	if codeLen > r.n {
		r.err = ErrOutOfRange
		return 0
	}
	if lz > 15 {
		r.err = ErrGolombTooLong
		return 0
	}
	return uint32(r.take(codeLen)) - 1
}

// ReadUe8 reads the unsigned Exp-Golomb code as uint8.
func (r *Reader) ReadUe8() uint8 { return uint8(r.ReadUe()) }

// ReadUe16 reads the unsigned Exp-Golomb code as uint16.
func (r *Reader) ReadUe16() uint16 { return uint16(r.ReadUe()) }

// SkipUe skips one unsigned Exp-Golomb code.
func (r *Reader) SkipUe() { r.ReadUe() }

// Skip skips n bits.
func (r *Reader) Skip(n int) {
	if r.err != nil || n <= 0 {
		return
	}
	k := uint(n)
	for k > r.n {
		k -= r.n
		r.n = 0
		r.load()
		if r.err != nil {
			return
		}
	}
	r.take(k)
}

// SkipToByteBoundary discards cached bits up to the next byte boundary.
func (r *Reader) SkipToByteBoundary() {
	if r.err != nil {
		return
	}
	r.n &^= 7
	r.cache ^= (r.cache >> r.n) << r.n
}

// BitsLeft returns the number of unread bits.
func (r *Reader) BitsLeft() int {
	return (len(r.buf)-r.pos)*8 + int(r.n)
}

// Err returns the first error encountered by the reader, if any.
func (r *Reader) Err() error { return r.err }
