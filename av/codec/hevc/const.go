// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import "errors"

// 错误定义
var (
	// ErrUnsupported the stream uses an H.265 feature outside the
	// HEVC-with-Alpha profile this package decodes.
	ErrUnsupported = errors.New("hevc: unsupported stream feature")
	// ErrCapacity an extracted RBSP does not fit in the decoding scratch.
	ErrCapacity = errors.New("hevc: rbsp exceeds scratch capacity")
)

/**
 * Table 7-1 – NAL unit type codes and NAL unit type classes in
 * T-REC-H.265-201802
 */
const (
	NalTrailN    = 0
	NalTrailR    = 1
	NalTsaN      = 2
	NalTsaR      = 3
	NalStsaN     = 4
	NalStsaR     = 5
	NalRadlN     = 6
	NalRadlR     = 7
	NalRaslN     = 8
	NalRaslR     = 9
	NalVclN10    = 10
	NalVclR11    = 11
	NalVclN12    = 12
	NalVclR13    = 13
	NalVclN14    = 14
	NalVclR15    = 15
	NalBlaWLp    = 16
	NalBlaWRadl  = 17
	NalBlaNLp    = 18
	NalIdrWRadl  = 19
	NalIdrNLp    = 20
	NalCraNut    = 21
	NalIrapVcl22 = 22
	NalIrapVcl23 = 23
	NalVps       = 32
	NalSps       = 33
	NalPps       = 34
	NalAud       = 35
	NalEosNut    = 36
	NalEobNut    = 37
	NalFdNut     = 38
	NalSeiPrefix = 39
	NalSeiSuffix = 40
)

// SEI payload types (Section D.2.1).
const (
	SeiTypeBufferingPeriod  = 0
	SeiTypePicTiming        = 1
	SeiTypeFillerPayload    = 3
	SeiTypeAlphaChannelInfo = 165
)

// Annex F scalability dimensions and auxiliary picture types.
const (
	// auxID is the bit index of the AuxId scalability dimension in a
	// 16-bit scalability mask stored most-significant-bit first.
	auxID = 15 - 3

	AuxAlpha = 1
	AuxDepth = 2
)

// Annex A layer limits.
const (
	MaxLayers    = 63
	MaxSubLayers = 7
)

// IsIDR reports whether the NAL unit type is an IDR (Instantaneous
// Decoding Refresh) picture.
func IsIDR(nalUnitType uint8) bool {
	return nalUnitType-NalIdrWRadl <= NalIdrNLp-NalIdrWRadl
}

// IsBLA reports whether the NAL unit type is a BLA (Broken Link Access)
// picture.
func IsBLA(nalUnitType uint8) bool {
	return nalUnitType-NalBlaWLp <= NalBlaWRadl-NalBlaWLp
}

// IsIRAP reports whether the NAL unit type is an IRAP (Intra Random
// Access Point) picture.
func IsIRAP(nalUnitType uint8) bool {
	return nalUnitType-NalBlaWLp <= NalIrapVcl23-NalBlaWLp
}

// NalType retruns the NAL unit type of the first byte of a NAL header.
func NalType(b byte) uint8 {
	return (b >> 1) & 0x3f
}
