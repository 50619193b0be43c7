// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"encoding/binary"
	"fmt"
	mathbits "math/bits"
)

// H265RawProfileTierLevel holds the general profile of a PTL structure
// (Section 7.3.3). Sub-layer profiles are not represented; a PTL carrying
// them is rejected as unsupported.
type H265RawProfileTierLevel struct {
	General_profile_space uint8
	General_tier_flag     uint8
	General_profile_idc   uint8

	GeneralProfileCompatibilityFlags uint32

	General_progressive_source_flag    uint8
	General_interlaced_source_flag     uint8
	General_non_packed_constraint_flag uint8
	General_frame_only_constraint_flag uint8

	General_inbld_flag uint8
	General_level_idc  uint8
}

// decode parses a 12-byte PTL at the head of data and retruns the rest of
// data. A PTL with sub-layer profiles (max_sub_layers_minus1 > 0) is not
// supported.
//
//	+-------+------+-------------------------------------+
//	| index | size | field                               |
//	+-------+------+-------------------------------------+
//	| 0     | 2    | general_profile_space               |
//	|       | 1    | general_tier_flag                   |
//	|       | 5    | general_profile_idc                 |
//	+-------+------+-------------------------------------+
//	| 8     | 32   | general_profile_compatibility_flags |
//	+-------+------+-------------------------------------+
//	| 40    | 1    | general_progressive_source_flag     |
//	|       | 1    | general_interlaced_source_flag      |
//	|       | 1    | general_non_packed_constraint_flag  |
//	|       | 1    | general_frame_only_constraint_flag  |
//	+-------+------+-------------------------------------+
//	| 44    | 43   | general_reserved_zero_43bits        |
//	+-------+------+-------------------------------------+
//	| 87    | 1    | general_inbld_flag                  |
//	+-------+------+-------------------------------------+
//	| 88    | 8    | general_level_idc                   |
//	+-------+------+-------------------------------------+
func (ptl *H265RawProfileTierLevel) decode(data []byte, maxSubLayersMinus1 uint8) ([]byte, error) {
	if maxSubLayersMinus1 > 0 {
		return nil, fmt.Errorf("%w: multi-sub-layer profile_tier_level", ErrUnsupported)
	}
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: truncated profile_tier_level", ErrUnsupported)
	}
	ptl.General_profile_space = data[0] >> 6
	ptl.General_tier_flag = (data[0] >> 5) & 1
	ptl.General_profile_idc = data[0] & 0x1f

	ptl.GeneralProfileCompatibilityFlags = binary.BigEndian.Uint32(data[1:])
	if ptl.General_profile_idc == 0 && ptl.GeneralProfileCompatibilityFlags != 0 {
		// Some encoders leave general_profile_idc zero; the first set
		// compatibility flag supplies the profile.
		ptl.General_profile_idc = uint8(mathbits.LeadingZeros32(ptl.GeneralProfileCompatibilityFlags))
	}

	ptl.General_progressive_source_flag = data[5] >> 7
	ptl.General_interlaced_source_flag = (data[5] >> 6) & 1
	ptl.General_non_packed_constraint_flag = (data[5] >> 5) & 1
	ptl.General_frame_only_constraint_flag = (data[5] >> 4) & 1

	ptl.General_inbld_flag = data[10] & 1
	ptl.General_level_idc = data[11]

	return data[12:], nil
}
