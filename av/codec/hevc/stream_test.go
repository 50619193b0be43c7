// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"encoding/binary"

	"github.com/cnotch/hevcmov/utils/bits"
)

// Builders for the synthetic HEVC-with-Alpha bitstreams the tests decode.

// escapeRBSP inserts an emulation-prevention byte before every byte <= 3
// that follows two zero bytes, the inverse of ExtractRBSP.
func escapeRBSP(rbsp []byte) []byte {
	escaped := make([]byte, 0, len(rbsp)+4)
	zeros := 0
	for _, b := range rbsp {
		if zeros == 2 && b <= 3 {
			escaped = append(escaped, 3)
			zeros = 0
		}
		escaped = append(escaped, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return escaped
}

// writeNALHeader writes the 2-byte NAL unit header.
func writeNALHeader(w *bits.Writer, nalUnitType uint8, layerID uint8) {
	w.WriteBit(0) // forbidden_zero_bit
	w.WriteBits(uint32(nalUnitType), 6)
	w.WriteBits(uint32(layerID), 6)
	w.WriteBits(1, 3) // nuh_temporal_id_plus1
}

// writePTL writes a 12-byte single-layer profile_tier_level.
func writePTL(w *bits.Writer, profileIDC uint8, levelIDC uint8) {
	w.WriteBits(0, 2)                      // general_profile_space
	w.WriteBit(0)                          // general_tier_flag
	w.WriteBits(uint32(profileIDC), 5)     // general_profile_idc
	w.WriteBits(uint32(1)<<(31-uint(profileIDC)), 32) // compatibility flags
	w.WriteBit(1)                          // general_progressive_source_flag
	w.WriteBit(0)                          // general_interlaced_source_flag
	w.WriteBit(0)                          // general_non_packed_constraint_flag
	w.WriteBit(1)                          // general_frame_only_constraint_flag
	w.WriteBits(0, 43)                     // general_reserved_zero_43bits
	w.WriteBit(0)                          // general_inbld_flag
	w.WriteBits(uint32(levelIDC), 8)       // general_level_idc
}

// writeTrailingBits writes the rbsp_stop_one_bit and pads to a byte.
func writeTrailingBits(w *bits.Writer) {
	w.WriteBit(1)
	w.AlignByte()
}

// buildVPS builds the RBSP of a VPS declaring one alpha auxiliary layer.
func buildVPS(alpha bool) []byte {
	w := bits.NewWriter()
	writeNALHeader(w, NalVps, 0)
	w.WriteBits(0, 4)      // vps_video_parameter_set_id
	w.WriteBit(1)          // vps_base_layer_internal_flag
	w.WriteBit(1)          // vps_base_layer_available_flag
	w.WriteBits(1, 6)      // vps_max_layers_minus1
	w.WriteBits(0, 3)      // vps_max_sub_layers_minus1
	w.WriteBit(0)          // vps_temporal_id_nesting_flag
	w.WriteBits(0xffff, 16)
	writePTL(w, 1, 120)
	w.WriteBit(0)   // vps_sub_layer_ordering_info_present_flag
	w.WriteUe(3)    // vps_max_dec_pic_buffering_minus1[0]
	w.WriteUe(2)    // vps_num_reorder_pics[0]
	w.WriteUe(0)    // vps_max_latency_increase_plus1[0]
	w.WriteBits(1, 6) // vps_max_layer_id
	w.WriteUe(0)    // vps_num_layer_sets_minus1
	w.WriteBit(0)   // vps_timing_info_present_flag
	w.WriteBit(1)   // vps_extension_flag
	w.AlignByte()   // vps_extension_alignment_bit_equal_to_one
	w.WriteBits(120, 8) // general_level_idc
	w.WriteBit(0)       // splitting_flag
	w.WriteBits(1<<uint(auxID), 16) // scalability_mask: AuxId only
	w.WriteBits(0, 3)   // dimension_id_len_minus1[AuxId]
	w.WriteBit(1)       // vps_nuh_layer_id_present_flag
	w.WriteBits(1, 6)   // layer_id_in_nuh[1]
	if alpha {
		w.WriteBit(AuxAlpha) // dimension_id[1][AuxId]
	} else {
		w.WriteBit(0)
	}
	writeTrailingBits(w)
	return w.Bytes()
}

// buildSPS builds the RBSP of a single-layer SPS.
func buildSPS(spsID uint32, width, height uint32, log2MaxPocLsbMinus4 uint32) []byte {
	w := bits.NewWriter()
	writeNALHeader(w, NalSps, 0)
	w.WriteBits(0, 4) // sps_video_parameter_set_id
	w.WriteBits(0, 3) // sps_max_sub_layers_minus1
	w.WriteBit(0)     // sps_temporal_id_nesting_flag
	writePTL(w, 1, 120)
	w.WriteUe(spsID)
	w.WriteUe(1) // chroma_format_idc
	w.WriteUe(width)
	w.WriteUe(height)
	w.WriteBit(0) // conformance_window_flag
	w.WriteUe(0)  // bit_depth_luma_minus8
	w.WriteUe(0)  // bit_depth_chroma_minus8
	w.WriteUe(log2MaxPocLsbMinus4)
	writeTrailingBits(w)
	return w.Bytes()
}

// buildPPS builds the RBSP of a PPS.
func buildPPS(ppsID, spsID uint32) []byte {
	w := bits.NewWriter()
	writeNALHeader(w, NalPps, 0)
	w.WriteUe(ppsID)
	w.WriteUe(spsID)
	w.WriteBit(0)     // dependent_slice_segments_enabled_flag
	w.WriteBit(0)     // output_flag_present_flag
	w.WriteBits(0, 3) // num_extra_slice_header_bits
	writeTrailingBits(w)
	return w.Bytes()
}

// buildAlphaSEI builds the RBSP of a prefix SEI carrying one
// alpha-channel-info message.
func buildAlphaSEI(useIdc uint32, opaque uint32) []byte {
	w := bits.NewWriter()
	writeNALHeader(w, NalSeiPrefix, 0)
	w.WriteBits(SeiTypeAlphaChannelInfo, 8) // payload_type
	w.WriteBits(4, 8)                       // payload_size
	w.WriteBit(0)                           // alpha_channel_cancel_flag
	w.WriteBits(useIdc, 3)
	w.WriteBits(0, 3) // alpha_channel_bit_depth_minus8
	w.WriteBits(0, 9) // alpha_transparent_value
	w.WriteBits(opaque, 9)
	w.WriteBit(0) // alpha_channel_incr_flag
	w.WriteBit(0) // alpha_channel_clip_flag
	w.AlignByte()
	writeTrailingBits(w)
	return w.Bytes()
}

// buildSlicePacket builds one coded sample: a 4-byte length, a NAL
// header, and a slice-header fragment with the given POC.
func buildSlicePacket(nalUnitType uint8, pocLsb uint32, log2MaxPocLsb int) []byte {
	w := bits.NewWriter()
	writeNALHeader(w, nalUnitType, 0)
	w.WriteBit(1) // first_slice_segment_in_pic_flag
	if IsIRAP(nalUnitType) {
		w.WriteBit(0) // no_output_of_prior_pics_flag
	}
	w.WriteUe(0) // slice_pic_parameter_set_id
	w.WriteUe(0) // slice_type
	if !IsIDR(nalUnitType) {
		w.WriteBits(pocLsb, log2MaxPocLsb)
	}
	writeTrailingBits(w)
	slice := w.Bytes()
	packet := make([]byte, 4, 4+len(slice))
	binary.BigEndian.PutUint32(packet, uint32(len(slice)))
	return append(packet, slice...)
}

// buildHVCC assembles an hvcC configuration from escaped NAL units.
func buildHVCC(arrays map[uint8][][]byte, order []uint8) []byte {
	hvcc := make([]byte, hvccHeaderSize)
	hvcc[0] = 1 // configuration_version
	hvcc = append(hvcc, byte(len(order)))
	for _, nalUnitType := range order {
		hvcc = append(hvcc, nalUnitType)
		var count [2]byte
		binary.BigEndian.PutUint16(count[:], uint16(len(arrays[nalUnitType])))
		hvcc = append(hvcc, count[:]...)
		for _, nalUnit := range arrays[nalUnitType] {
			escaped := escapeRBSP(nalUnit)
			var size [2]byte
			binary.BigEndian.PutUint16(size[:], uint16(len(escaped)))
			hvcc = append(hvcc, size[:]...)
			hvcc = append(hvcc, escaped...)
		}
	}
	return hvcc
}

// defaultHVCC builds a complete alpha-stream configuration.
func defaultHVCC(width, height uint32) []byte {
	return buildHVCC(map[uint8][][]byte{
		NalVps:       {buildVPS(true)},
		NalSps:       {buildSPS(0, width, height, 6), buildSPS(1, width, height, 6)},
		NalPps:       {buildPPS(0, 0), buildPPS(1, 1)},
		NalSeiPrefix: {buildAlphaSEI(1, 255)},
	}, []uint8{NalVps, NalSps, NalPps, NalSeiPrefix})
}

// QuickTime atom builders.

func atom(typ string, pieces ...[]byte) []byte {
	size := 8
	for _, p := range pieces {
		size += len(p)
	}
	buf := make([]byte, 8, size)
	binary.BigEndian.PutUint32(buf, uint32(size))
	copy(buf[4:], typ)
	for _, p := range pieces {
		buf = append(buf, p...)
	}
	return buf
}

func u32(vs ...uint32) []byte {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}

func concat(pieces ...[]byte) []byte {
	var buf []byte
	for _, p := range pieces {
		buf = append(buf, p...)
	}
	return buf
}

// videoDescription builds an hvc1 sample description embedding hvcc.
func videoDescription(width, height uint16, hvcc []byte) []byte {
	fixed := make([]byte, 70)
	binary.BigEndian.PutUint16(fixed[16:], width)
	binary.BigEndian.PutUint16(fixed[18:], height)
	return atom("hvc1",
		u32(0, 1), // reserved + data_reference_index
		fixed,
		atom("hvcC", hvcc),
	)
}

// buildQuickTimeStream assembles a playable synthetic stream: ftyp, an
// mdat holding the given sample packets in one chunk, and a moov with the
// sample tables describing them.
func buildQuickTimeStream(width, height uint16, hvcc []byte, packets [][]byte, duration uint32) []byte {
	ftyp := atom("ftyp", []byte("qt  "), u32(0x20050300), []byte("qt  "))
	mdat := atom("mdat", concat(packets...))
	chunkOffset := uint32(len(ftyp) + 8)

	sizes := make([]uint32, 0, len(packets)+2)
	sizes = append(sizes, 0, uint32(len(packets)))
	for _, p := range packets {
		sizes = append(sizes, uint32(len(p)))
	}
	stbl := atom("stbl",
		atom("stsd", u32(0, 1), videoDescription(width, height, hvcc)),
		atom("stts", u32(0, 1, uint32(len(packets)), duration)),
		atom("stsc", u32(0, 1, 1, uint32(len(packets)), 1)),
		atom("stsz", u32(0), u32(sizes...)),
		atom("stco", u32(0, 1, chunkOffset)),
	)
	moov := atom("moov",
		atom("trak",
			atom("mdia",
				atom("mdhd", u32(0, 0, 0, 600, duration*uint32(len(packets))), u32(0)),
				atom("minf", stbl),
			),
		),
	)
	return concat(ftyp, mdat, moov)
}
