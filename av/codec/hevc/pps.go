// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"fmt"

	"github.com/cnotch/hevcmov/utils/bits"
)

// H265RawPPS is an H.265 picture parameter set (Section 7.3.2.3) reduced
// to the fields slice-header decoding consumes. The remainder of the PPS
// is not represented.
type H265RawPPS struct {
	Pps_pic_parameter_set_id              uint8
	Pps_seq_parameter_set_id              uint8
	Dependent_slice_segments_enabled_flag uint8
	Output_flag_present_flag              uint8
	Num_extra_slice_header_bits           uint8
}

// Decode parses a PPS RBSP (emulation-prevention bytes already removed).
func (pps *H265RawPPS) Decode(rbsp []byte) error {
	if len(rbsp) < 2+1 {
		return fmt.Errorf("%w: truncated PPS", ErrUnsupported)
	}
	r := bits.NewReader(rbsp[2:])
	pps.Pps_pic_parameter_set_id = r.ReadUe8()
	pps.Pps_seq_parameter_set_id = r.ReadUe8()
	pps.Dependent_slice_segments_enabled_flag = r.ReadBit()
	pps.Output_flag_present_flag = r.ReadBit()
	pps.Num_extra_slice_header_bits = r.ReadUint8(3)
	return r.Err()
}
