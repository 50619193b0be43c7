// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"fmt"

	"github.com/cnotch/hevcmov/utils/bits"
)

// H265RawSPS is an H.265 sequence parameter set (Section 7.3.2.2) reduced
// to the fields consumed by slice-header decoding and decoder
// configuration. Scaling lists, AMP, SAO and PCM flags are not
// represented.
type H265RawSPS struct {
	Sps_video_parameter_set_id uint8
	Sps_max_sub_layers_minus1  uint8

	Ptl H265RawProfileTierLevel

	Sps_seq_parameter_set_id   uint8
	Chroma_format_idc          uint8
	Separate_colour_plane_flag uint8
	Pic_width_in_luma_samples  uint16
	Pic_height_in_luma_samples uint16
	Bit_depth_luma             uint8
	Bit_depth_chroma           uint8
	Log2_max_pic_order_cnt_lsb uint8
}

// Decode parses an SPS RBSP (emulation-prevention bytes already removed).
// An H.265 SPS starts with a fixed header of a NAL header, one byte of
// IDs, and a profile_tier_level:
//
//	+-------+------+------------------------------+
//	| index | size | field                        |
//	+-------+------+------------------------------+
//	| 0     | 16   | nal_unit_header              |
//	+-------+------+------------------------------+
//	| 16    | 4    | sps_video_parameter_set_id   |
//	|       | 3    | sps_max_sub_layers_minus1    |
//	|       | 1    | sps_temporal_id_nesting_flag |
//	+-------+------+------------------------------+
//	| 24    | 96   | profile_tier_level           |
//	+-------+------+------------------------------+
func (sps *H265RawSPS) Decode(rbsp []byte) error {
	if len(rbsp) < 2+1+12 {
		return fmt.Errorf("%w: truncated SPS", ErrUnsupported)
	}
	data2 := rbsp[2]
	sps.Sps_video_parameter_set_id = data2 >> 4
	sps.Sps_max_sub_layers_minus1 = (data2 >> 1) & 0x7
	rest, err := sps.Ptl.decode(rbsp[3:], sps.Sps_max_sub_layers_minus1)
	if err != nil {
		return err
	}

	r := bits.NewReader(rest)
	sps.Sps_seq_parameter_set_id = r.ReadUe8()
	sps.Chroma_format_idc = r.ReadUe8()
	if sps.Chroma_format_idc == 3 {
		sps.Separate_colour_plane_flag = r.ReadBit()
		if sps.Separate_colour_plane_flag == 1 {
			sps.Chroma_format_idc = 0
		}
	}
	sps.Pic_width_in_luma_samples = r.ReadUe16()
	sps.Pic_height_in_luma_samples = r.ReadUe16()
	if r.ReadBool() { // conformance_window_flag
		r.SkipUe() // conf_win_left_offset
		r.SkipUe() // conf_win_right_offset
		r.SkipUe() // conf_win_top_offset
		r.SkipUe() // conf_win_bottom_offset
	}
	sps.Bit_depth_luma = r.ReadUe8() + 8
	sps.Bit_depth_chroma = r.ReadUe8() + 8
	log2MaxPicOrderCntLsbMinus4 := r.ReadUe()
	if err := r.Err(); err != nil {
		return err
	}
	if log2MaxPicOrderCntLsbMinus4 > 12 {
		return fmt.Errorf("%w: log2_max_pic_order_cnt_lsb_minus4 %d",
			ErrUnsupported, log2MaxPicOrderCntLsbMinus4)
	}
	sps.Log2_max_pic_order_cnt_lsb = uint8(log2MaxPicOrderCntLsbMinus4) + 4
	return nil
}

// Width retruns the picture width in luma samples.
func (sps *H265RawSPS) Width() int {
	return int(sps.Pic_width_in_luma_samples)
}

// Height retruns the picture height in luma samples.
func (sps *H265RawSPS) Height() int {
	return int(sps.Pic_height_in_luma_samples)
}
