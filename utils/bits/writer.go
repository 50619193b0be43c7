// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

// Writer writes bits in most-significant-bit first order into a growing
// byte slice. It is the counterpart of Reader, used to assemble bit-exact
// headers and Exp-Golomb codes.
type Writer struct {
	buf []byte
	n   uint // bits used in the last byte, [0,8)
}

// NewWriter retruns a new empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(bit uint8) {
	if w.n == 0 {
		w.buf = append(w.buf, 0)
	}
	if bit&1 != 0 {
		w.buf[len(w.buf)-1] |= 1 << (7 - w.n)
	}
	w.n = (w.n + 1) & 7
}

// WriteBits writes the n low bits of v, most significant first.
func (w *Writer) WriteBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		w.WriteBit(uint8(v >> uint(i)))
	}
}

// WriteUe writes v as an unsigned Exp-Golomb code.
func (w *Writer) WriteUe(v uint32) {
	lz := 0
	for (uint64(v)+1)>>uint(lz+1) != 0 {
		lz++
	}
	w.WriteBits(0, lz)
	w.WriteBits(v+1, lz+1)
}

// WriteBytes writes whole bytes. The writer must be byte aligned.
func (w *Writer) WriteBytes(b []byte) {
	for _, v := range b {
		w.WriteBits(uint32(v), 8)
	}
}

// AlignByte pads with zero bits up to the next byte boundary.
func (w *Writer) AlignByte() {
	for w.n != 0 {
		w.WriteBit(0)
	}
}

// Len returns the number of bits written.
func (w *Writer) Len() int {
	if w.n == 0 {
		return len(w.buf) * 8
	}
	return (len(w.buf)-1)*8 + int(w.n)
}

// Bytes returns the written bytes, zero padded to a byte boundary.
func (w *Writer) Bytes() []byte {
	return w.buf
}
