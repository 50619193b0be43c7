// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"encoding/binary"
	"fmt"
	mathbits "math/bits"
)

// AlphaChannelInformation is a decoded alpha channel information SEI
// message (Section F.14.2.8).
type AlphaChannelInformation struct {
	Alpha_channel_cancel_flag      uint8
	Alpha_channel_use_idc          uint8
	Alpha_channel_bit_depth_minus8 uint8
	Alpha_transparent_value        uint16
	Alpha_opaque_value             uint16
	Alpha_channel_incr_flag        uint8
	Alpha_channel_clip_flag        uint8
}

// IsPremultiplied reports whether alpha pixels are premultiplied
// (alpha_channel_use_idc == 1).
func (alpha *AlphaChannelInformation) IsPremultiplied() bool {
	return alpha.Alpha_channel_use_idc == 1
}

// decode unpacks the 32-bit packed alpha record of an alpha-channel SEI
// payload. Only an 8-bit alpha channel (bit_depth_minus8 == 0) is
// supported.
//
//	+--------------------------------+------+
//	| field                          | size |
//	+--------------------------------+------+
//	| alpha_channel_cancel_flag      | 1    |
//	| alpha_channel_use_idc          | 3    |
//	| alpha_channel_bit_depth_minus8 | 3    |
//	| alpha_transparent_value        | 9    |
//	| alpha_opaque_value             | 9    |
//	| alpha_channel_incr_flag        | 1    |
//	| alpha_channel_clip_flag        | 1    |
//	+--------------------------------+------+
func (alpha *AlphaChannelInformation) decode(payload []byte) error {
	if len(payload) < 4 {
		return fmt.Errorf("%w: truncated alpha-channel SEI payload", ErrUnsupported)
	}
	data0 := binary.BigEndian.Uint32(payload)
	alpha.Alpha_channel_cancel_flag = uint8(data0 >> 31)
	alpha.Alpha_channel_use_idc = uint8(data0>>28) & 0x7
	alpha.Alpha_channel_bit_depth_minus8 = uint8(data0>>25) & 0x7
	if alpha.Alpha_channel_bit_depth_minus8 != 0 {
		return fmt.Errorf("%w: alpha bit depth %d", ErrUnsupported,
			alpha.Alpha_channel_bit_depth_minus8+8)
	}
	alpha.Alpha_transparent_value = uint16(data0>>16) & 0x1ff
	alpha.Alpha_opaque_value = uint16(data0>>7) & 0x1ff
	alpha.Alpha_channel_incr_flag = uint8(data0>>6) & 1
	alpha.Alpha_channel_clip_flag = uint8(data0>>5) & 1
	return nil
}

// decodeSEI scans the SEI messages in a prefix-SEI RBSP for an
// alpha-channel-info message; the last one wins. payload_type and
// payload_size are treated as one-byte fields (sufficient for streams
// produced by Apple encoders; the full variable-length syntax of Section
// 7.3.5 is not supported), except that a 0xff payload_size is extended by
// scanning the following 0xff bytes a word at a time.
func (d *Decoder) decodeSEI(rbsp []byte) error {
	if len(rbsp) < 2 {
		return fmt.Errorf("%w: truncated SEI", ErrUnsupported)
	}
	top := 2
	for len(rbsp)-top >= 2 {
		payloadType := int(rbsp[top])
		if payloadType == 0xff {
			return fmt.Errorf("%w: extended SEI payload type", ErrUnsupported)
		}
		payloadSize := int(rbsp[top+1])
		payloadStart := top + 2
		if payloadSize == 0xff {
			// Accumulate the remaining bytes of this payload-size field,
			// eight bytes at a time, until a non-0xff byte terminates it.
			var word uint64
			for {
				if len(rbsp)-payloadStart >= 8 {
					word = ^binary.LittleEndian.Uint64(rbsp[payloadStart:])
					if word != 0 {
						break
					}
					payloadSize += 0xff * 8
					payloadStart += 8
					continue
				}
				word = ^loadWordLE(rbsp[payloadStart:])
				word &= 1<<(uint(len(rbsp)-payloadStart)*8) - 1
				if word == 0 {
					return fmt.Errorf("%w: unterminated SEI payload size", ErrUnsupported)
				}
				break
			}
			index := mathbits.TrailingZeros64(word) >> 3
			payloadSize += 0xff * index
			payloadSize += int(^word>>(uint(index)*8)) & 0xff
			payloadStart += index + 1
		}
		top = payloadStart + payloadSize
		if top >= len(rbsp) {
			return nil
		}
		if payloadType == SeiTypeAlphaChannelInfo {
			if err := d.alpha.decode(rbsp[payloadStart:]); err != nil {
				return err
			}
		}
	}
	return nil
}
