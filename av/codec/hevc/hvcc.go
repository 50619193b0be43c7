// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"encoding/binary"
	"fmt"
)

// hvccHeaderSize is the fixed part of an HEVCDecoderConfigurationRecord
// before numOfArrays (ISO/IEC 14496-15 section 8.3.3.1).
const hvccHeaderSize = 22

// decodeHEVCDecoderConfiguration walks the NAL-unit arrays of an `hvcC`
// configuration and decodes every VPS, SPS, PPS and prefix-SEI NAL unit
// found in them. An HEVC-with-Alpha configuration carries at least three
// arrays (VPS, SPS, PPS); other NAL unit types are skipped.
//
//	+-------+------+-------------------------------------+
//	| bit   | size | field                               |
//	+-------+------+-------------------------------------+
//	| 0     | 8    | configuration_version               |
//	| 8     | 2+1+5| general_profile_space/tier/idc      |
//	| 16    | 32   | general_profile_compatibility_flags |
//	| 48    | 48   | general_constraint_indicator_flags  |
//	| 96    | 8    | general_level_idc                   |
//	| 104   | 4+12 | min_spatial_segmentation_idc        |
//	| 120   | 6+2  | parallelism_type                    |
//	| 128   | 6+2  | chroma_format                       |
//	| 136   | 5+3  | bit_depth_luma_minus_8              |
//	| 144   | 5+3  | bit_depth_chroma_minus_8            |
//	| 152   | 16   | average_frame_rate                  |
//	| 168   | 2+3+1| constant_frame_rate et al.          |
//	| 176   | 8    | number_of_arrays                    |
//	+-------+------+-------------------------------------+
//
// Each array is a 3-byte header (completeness, NAL unit type, a 16-bit
// unit count) followed by length-prefixed NAL units.
func (d *Decoder) decodeHEVCDecoderConfiguration(hvcc []byte) error {
	if len(hvcc) < hvccHeaderSize+1 {
		return fmt.Errorf("%w: truncated hvcC configuration", ErrUnsupported)
	}
	numberOfArrays := int(hvcc[hvccHeaderSize])
	if numberOfArrays < 3 {
		return fmt.Errorf("%w: hvcC with %d NAL unit arrays", ErrUnsupported, numberOfArrays)
	}
	scratch := newRBSPScratch()
	arrayStart := hvccHeaderSize + 1
	for ; numberOfArrays > 0; numberOfArrays-- {
		if len(hvcc)-arrayStart < 1+2 {
			return fmt.Errorf("%w: truncated hvcC NAL unit array", ErrUnsupported)
		}
		nalUnitType := hvcc[arrayStart] & 0x3f
		numberOfNalUnits := int(binary.BigEndian.Uint16(hvcc[arrayStart+1:]))
		nalUnitStart := arrayStart + 3
		for i := 0; i < numberOfNalUnits; i++ {
			if len(hvcc)-nalUnitStart < 2 {
				return fmt.Errorf("%w: truncated hvcC NAL unit", ErrUnsupported)
			}
			nalUnitSize := int(binary.BigEndian.Uint16(hvcc[nalUnitStart:]))
			if len(hvcc)-nalUnitStart-2 < nalUnitSize {
				return fmt.Errorf("%w: hvcC NAL unit size %d overruns the configuration",
					ErrUnsupported, nalUnitSize)
			}
			if err := d.decodeNALUnit(nalUnitType,
				hvcc[nalUnitStart+2:nalUnitStart+2+nalUnitSize], scratch); err != nil {
				return err
			}
			nalUnitStart += 2 + nalUnitSize
		}
		arrayStart = nalUnitStart
	}
	return nil
}

// decodeNALUnit extracts the RBSP of one configuration NAL unit and
// dispatches it by type. SPS and PPS land in the slot their own ID names,
// so the base layer and the alpha layer each keep their parameter sets.
func (d *Decoder) decodeNALUnit(nalUnitType uint8, nalUnit, scratch []byte) error {
	switch nalUnitType {
	case NalVps, NalSps, NalPps, NalSeiPrefix:
	default:
		return nil
	}
	if len(nalUnit) >= RBSPCapacity {
		return fmt.Errorf("%w: %d-byte NAL unit", ErrCapacity, len(nalUnit))
	}
	n, err := ExtractRBSP(nalUnit, scratch)
	if err != nil {
		return err
	}
	rbsp := scratch[:n]
	switch nalUnitType {
	case NalVps:
		return d.vps.Decode(rbsp)
	case NalSps:
		var sps H265RawSPS
		if err := sps.Decode(rbsp); err != nil {
			return err
		}
		if int(sps.Sps_seq_parameter_set_id) >= len(d.sps) {
			return fmt.Errorf("%w: sps_seq_parameter_set_id %d",
				ErrUnsupported, sps.Sps_seq_parameter_set_id)
		}
		d.sps[sps.Sps_seq_parameter_set_id] = sps
	case NalPps:
		var pps H265RawPPS
		if err := pps.Decode(rbsp); err != nil {
			return err
		}
		if int(pps.Pps_pic_parameter_set_id) >= len(d.pps) {
			return fmt.Errorf("%w: pps_pic_parameter_set_id %d",
				ErrUnsupported, pps.Pps_pic_parameter_set_id)
		}
		d.pps[pps.Pps_pic_parameter_set_id] = pps
	case NalSeiPrefix:
		return d.decodeSEI(rbsp)
	}
	return nil
}
