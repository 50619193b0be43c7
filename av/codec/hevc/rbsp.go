// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"encoding/binary"
	mathbits "math/bits"
)

// RBSPCapacity is the scratch size for extracted RBSPs. Parameter-set and
// SEI NAL units of an HEVC-with-Alpha stream fit well below it; a NAL unit
// that does not fit fails with ErrCapacity.
const RBSPCapacity = 256

// rbspHeadroom is the extra scratch space that lets ExtractRBSP store full
// words without bounding every store.
const rbspHeadroom = 8

const lowBytes = 0x0101010101010101

// newRBSPScratch allocates a scratch buffer for ExtractRBSP.
func newRBSPScratch() []byte {
	return make([]byte, RBSPCapacity+rbspHeadroom)
}

// loadWordLE loads up to 8 bytes little-endian, zero-filling past the end
// of b.
func loadWordLE(b []byte) uint64 {
	if len(b) >= 8 {
		return binary.LittleEndian.Uint64(b)
	}
	var w uint64
	for i := len(b) - 1; i >= 0; i-- {
		w = w<<8 | uint64(b[i])
	}
	return w
}

// ExtractRBSP copies data into rbsp while removing the third byte of every
// `0x00 0x00 0x03` emulation-prevention triplet (Section 7.3.1.1) and
// returns the extracted length. It processes 8 bytes per step: each word is
// reduced to two per-byte bit masks (byte == 0 and byte <= 3), and the
// third-byte positions are the conjunction of both masks with the zero
// mask shifted by one and two bytes, carrying the previous word's zero
// mask across the boundary. rbsp must hold len(data)+8 bytes so whole
// words can be stored; output length never exceeds len(data).
func ExtractRBSP(data, rbsp []byte) (int, error) {
	if len(rbsp) < len(data)+rbspHeadroom {
		return 0, ErrCapacity
	}
	if len(data) == 0 {
		return 0, nil
	}
	var lastMaskEq00 uint64
	src, dst := 0, 0
	for src < len(data) {
		word := loadWordLE(data[src:])
		n := len(data) - src
		if n > 8 {
			n = 8
		}

		// Fold the bits of each byte into its bit 0.
		maskEq00 := word | word>>1
		maskLe03 := maskEq00 &^ lowBytes
		maskEq00 |= maskEq00 >> 2
		maskLe03 |= maskLe03 >> 2
		maskEq00 |= maskEq00 >> 4
		maskLe03 |= maskLe03 >> 4
		maskEq00 = ^maskEq00
		maskLe03 = ^maskLe03

		// A byte is the third of a triplet when the two preceding bytes
		// are zero; the zero mask of the previous word supplies the two
		// bytes before this word.
		mask := (maskEq00<<16 | lastMaskEq00>>48) &
			(maskEq00<<8 | lastMaskEq00>>56) &
			maskLe03 & lowBytes
		if n < 8 {
			mask &= 1<<(uint(n)*8) - 1
		}
		src += n
		lastMaskEq00 = maskEq00

		if mask == 0 {
			binary.LittleEndian.PutUint64(rbsp[dst:], word)
			dst += n
			continue
		}
		// Store the word piecewise, dropping each flagged byte.
		size := n
		for {
			index := mathbits.TrailingZeros64(mask) >> 3
			binary.LittleEndian.PutUint64(rbsp[dst:], word)
			dst += index
			shift := uint(index) << 3
			mask = mask >> shift >> 8
			word = word >> shift >> 8
			size -= index + 1
			if mask == 0 {
				break
			}
		}
		if size > 0 {
			binary.LittleEndian.PutUint64(rbsp[dst:], word)
			dst += size
		}
	}
	return dst, nil
}
