// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"fmt"
	mathbits "math/bits"

	"github.com/cnotch/hevcmov/utils/bits"
)

// H265RawVPSExtension holds the layer topology of a VPS extension
// (Annex F.7.3.2.1) as far as needed to identify an alpha auxiliary layer.
type H265RawVPSExtension struct {
	General_level_idc uint8
	Layer_id_in_nuh   [MaxLayers + 1]uint8
	Dimension_id      [MaxLayers + 1][16]uint8
}

// H265RawVPS is an H.265 video parameter set (Section 7.3.2.1) reduced to
// the fields an HEVC-with-Alpha stream needs. Ordering info, timing info
// and HRD parameters are skipped, not represented.
type H265RawVPS struct {
	Vps_video_parameter_set_id uint8
	Vps_max_layers_minus1      uint8
	Vps_max_sub_layers_minus1  uint8

	Ptl H265RawProfileTierLevel

	Vps_max_layer_id             uint8
	Vps_num_layer_sets_minus1    uint8
	Vps_timing_info_present_flag uint8
	Vps_extension_flag           uint8

	Extension H265RawVPSExtension
}

// Decode parses a VPS RBSP (emulation-prevention bytes already removed)
// and validates that the stream carries exactly one alpha auxiliary layer.
// A VPS with multiple sub-layers, sub-layer ordering info, HRD parameters,
// a splitting flag, or any other layer topology is rejected.
//
// An H.265 VPS starts with an 18-byte fixed header:
//
//	+-------+------+-------------------------------+
//	| index | size | field                         |
//	+-------+------+-------------------------------+
//	| 0     | 1    | 0                             |
//	|       | 6    | nal_unit_type                 |
//	|       | 6    | nuh_layer_id                  |
//	|       | 3    | nuh_temporal_id_plus1         |
//	+-------+------+-------------------------------+
//	| 16    | 4    | vps_video_parameter_set_id    |
//	|       | 1    | vps_base_layer_internal_flag  |
//	|       | 1    | vps_base_layer_available_flag |
//	|       | 6    | vps_max_layers_minus1         |
//	|       | 3    | vps_max_sub_layers_minus1     |
//	|       | 1    | vps_temporal_id_nesting_flag  |
//	|       | 16   | vps_reserved_0xffff_16bits    |
//	+-------+------+-------------------------------+
//	| 48    | 96   | profile_tier_level            |
//	+-------+------+-------------------------------+
func (vps *H265RawVPS) Decode(rbsp []byte) error {
	if len(rbsp) < 2+4+12 {
		return fmt.Errorf("%w: truncated VPS", ErrUnsupported)
	}
	data2 := uint16(rbsp[2])<<8 | uint16(rbsp[3])
	vps.Vps_video_parameter_set_id = uint8(data2 >> 12)
	vps.Vps_max_layers_minus1 = uint8(data2>>4) & 0x3f
	vps.Vps_max_sub_layers_minus1 = uint8(data2>>1) & 0x7
	if vps.Vps_max_sub_layers_minus1 > 0 {
		return fmt.Errorf("%w: multi-sub-layer VPS", ErrUnsupported)
	}
	rest, err := vps.Ptl.decode(rbsp[6:], vps.Vps_max_sub_layers_minus1)
	if err != nil {
		return err
	}

	r := bits.NewReader(rest)
	if r.ReadBool() { // vps_sub_layer_ordering_info_present_flag
		return fmt.Errorf("%w: VPS sub-layer ordering info", ErrUnsupported)
	}
	r.SkipUe() // vps_max_dec_pic_buffering_minus1[0]
	r.SkipUe() // vps_num_reorder_pics[0]
	r.SkipUe() // vps_max_latency_increase_plus1[0]

	vps.Vps_max_layer_id = r.ReadUint8(6)
	vps.Vps_num_layer_sets_minus1 = r.ReadUe8()
	if skip := int(vps.Vps_num_layer_sets_minus1) * int(vps.Vps_max_layer_id); skip > 0 {
		r.Skip(skip) // layer_id_included_flag[][]
	}
	vps.Vps_timing_info_present_flag = r.ReadBit()
	if vps.Vps_timing_info_present_flag == 1 {
		r.Skip(32) // vps_num_units_in_tick
		r.Skip(32) // vps_time_scale
		if r.ReadBool() { // vps_poc_proportional_to_timing_flag
			r.SkipUe() // vps_num_ticks_poc_diff_one_minus1
		}
		if r.ReadUe() != 0 { // vps_num_hrd_parameters
			return fmt.Errorf("%w: VPS HRD parameters", ErrUnsupported)
		}
	}
	vps.Vps_extension_flag = r.ReadBit()
	if vps.Vps_extension_flag == 0 {
		return fmt.Errorf("%w: VPS without an alpha layer extension", ErrUnsupported)
	}
	r.SkipToByteBoundary() // vps_extension_alignment_bit_equal_to_one

	// An extension PTL consists only of a general_level_idc field when
	// vps_max_sub_layers_minus1 is zero.
	ext := &vps.Extension
	ext.General_level_idc = r.ReadUint8(8)

	if r.ReadBool() { // splitting_flag
		return fmt.Errorf("%w: VPS splitting flag", ErrUnsupported)
	}

	// The scalability mask is read most-significant-bit first, so bit 15
	// of the mask word is scalability_mask_flag[0].
	var dimensionIDLen [16]uint8
	scalabilityMaskFlags := r.ReadBits(16)
	for maskFlags := scalabilityMaskFlags; maskFlags != 0; {
		index := mathbits.TrailingZeros32(maskFlags)
		dimensionIDLen[index] = r.ReadUint8(3) + 1
		maskFlags ^= 1 << uint(index)
	}

	nuhLayerIDPresent := r.ReadBool()
	for i := 1; i <= int(vps.Vps_max_layers_minus1); i++ {
		if nuhLayerIDPresent {
			ext.Layer_id_in_nuh[i] = r.ReadUint8(6)
		} else {
			ext.Layer_id_in_nuh[i] = uint8(i)
		}
		for maskFlags := scalabilityMaskFlags; maskFlags != 0; {
			index := mathbits.TrailingZeros32(maskFlags)
			ext.Dimension_id[i][index] = r.ReadUint8(int(dimensionIDLen[index]))
			maskFlags ^= 1 << uint(index)
		}
	}
	if err := r.Err(); err != nil {
		return err
	}

	// The stream must have exactly one auxiliary layer and it must be an
	// alpha layer.
	alphaLayerID := ext.Layer_id_in_nuh[1]
	if alphaLayerID > 1 || ext.Dimension_id[alphaLayerID][auxID] != AuxAlpha {
		return fmt.Errorf("%w: no alpha layers", ErrUnsupported)
	}
	return nil
}
