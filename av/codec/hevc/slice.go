// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"fmt"

	"github.com/cnotch/hevcmov/utils/bits"
)

// DecodeSliceHeader reads the picture order count of a sample. packet is
// one coded sample: a 4-byte NAL length, a 2-byte NAL header, and the
// slice header (Section 7.3.6).
//
// The returned count is the raw picture_order_count_lsb: streams this
// package targets always encode a zero picture_order_count_msb, so the
// MSB derivation of Section 8.3.1 is omitted. IDR slices and non-first
// slice segments both yield 0; the caller cannot distinguish an
// undetermined count from a legitimate zero.
func (d *Decoder) DecodeSliceHeader(packet []byte) (uint32, error) {
	if len(packet) < 4+2 {
		return 0, fmt.Errorf("%w: truncated sample packet", ErrUnsupported)
	}
	nalUnitType := NalType(packet[4])

	r := bits.NewReader(packet[6:])
	firstSliceSegmentInPic := r.ReadBool()
	if IsIRAP(nalUnitType) {
		r.Skip(1) // no_output_of_prior_pics_flag
	}
	ppsID := r.ReadUe8()
	if err := r.Err(); err != nil {
		return 0, err
	}
	if int(ppsID) >= len(d.pps) {
		return 0, fmt.Errorf("%w: slice_pic_parameter_set_id %d", ErrUnsupported, ppsID)
	}
	pps := &d.pps[ppsID]
	if int(pps.Pps_seq_parameter_set_id) >= len(d.sps) {
		return 0, fmt.Errorf("%w: pps_seq_parameter_set_id %d", ErrUnsupported,
			pps.Pps_seq_parameter_set_id)
	}
	sps := &d.sps[pps.Pps_seq_parameter_set_id]

	if !firstSliceSegmentInPic {
		// Dependent and non-first slice segments are not supported; their
		// count degenerates to 0.
		return 0, nil
	}
	var pictureOrderCount uint32
	r.Skip(int(pps.Num_extra_slice_header_bits)) // slice_reserved_flag[i]
	r.SkipUe()                                   // slice_type
	if pps.Output_flag_present_flag == 1 {
		r.Skip(1) // pic_output_flag
	}
	if sps.Separate_colour_plane_flag == 1 {
		r.Skip(2) // colour_plane_id
	}
	if !IsIDR(nalUnitType) {
		pictureOrderCount = r.ReadBits(int(sps.Log2_max_pic_order_cnt_lsb))
	}
	if err := r.Err(); err != nil {
		return 0, err
	}
	return pictureOrderCount, nil
}
