// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mov

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrStructure the atom layout of the stream is inconsistent (a child atom
// running past its parent, a truncated header, a table entry out of range).
var ErrStructure = errors.New("mov: structural error")

// FourCC is a QuickTime atom or format type code.
type FourCC uint32

// StringToFourCC converts a 4-character string to a FourCC.
func StringToFourCC(s string) FourCC {
	return FourCC(s[0])<<24 | FourCC(s[1])<<16 | FourCC(s[2])<<8 | FourCC(s[3])
}

func (c FourCC) String() string {
	return string([]byte{byte(c >> 24), byte(c >> 16), byte(c >> 8), byte(c)})
}

// 公共的 atom 类型
var (
	TypeFtyp = StringToFourCC("ftyp")
	TypeMdat = StringToFourCC("mdat")
	TypeMoov = StringToFourCC("moov")
	TypeTrak = StringToFourCC("trak")
	TypeMdia = StringToFourCC("mdia")
	TypeMinf = StringToFourCC("minf")
	TypeStbl = StringToFourCC("stbl")
	TypeMdhd = StringToFourCC("mdhd")
	TypeStsd = StringToFourCC("stsd")
	TypeStts = StringToFourCC("stts")
	TypeStss = StringToFourCC("stss")
	TypeStsc = StringToFourCC("stsc")
	TypeStsz = StringToFourCC("stsz")
	TypeStco = StringToFourCC("stco")

	// BrandQuickTime the QuickTime major brand.
	BrandQuickTime = StringToFourCC("qt  ")

	// FormatHVC1 the sample-description format of an HEVC video track.
	FormatHVC1 = StringToFourCC("hvc1")

	// ExtensionHVCC the HEVC decoder-configuration extension.
	ExtensionHVCC = StringToFourCC("hvcC")
)

// Atom is one QuickTime atom. Data covers the whole atom including its
// 8-byte header and is bounded to the declared size, so accessors can never
// reach outside it. Offset is the atom's position in the enclosing stream.
type Atom struct {
	Type   FourCC
	Offset int
	Data   []byte
}

// Body returns the atom payload after the 8-byte header.
func (a *Atom) Body() []byte { return a.Data[8:] }

// Size returns the declared atom size.
func (a *Atom) Size() int { return len(a.Data) }

// parseAtom reads one atom header at buf[offset:] and returns the bounded
// atom. It fails if the header is truncated or the declared size runs past
// the end of buf.
func parseAtom(buf []byte, offset int) (Atom, error) {
	if len(buf)-offset < 8 {
		return Atom{}, fmt.Errorf("%w: truncated atom header at %d", ErrStructure, offset)
	}
	size := int(binary.BigEndian.Uint32(buf[offset:]))
	typ := FourCC(binary.BigEndian.Uint32(buf[offset+4:]))
	if size < 8 || size > len(buf)-offset {
		return Atom{}, fmt.Errorf("%w: atom %s at %d declares size %d beyond its parent",
			ErrStructure, typ, offset, size)
	}
	return Atom{Type: typ, Offset: offset, Data: buf[offset : offset+size]}, nil
}

// FileTypeAtom is a view of a `ftyp` atom.
type FileTypeAtom struct {
	Atom
}

// Valid reports whether the file type declares a QuickTime stream. The
// major brand must be `qt  ` and must appear again in the compatible-brands
// list; this self-referential check is the only validity criterion applied.
func (a *FileTypeAtom) Valid() bool {
	if a.Type != TypeFtyp || len(a.Data) < 16 {
		return false
	}
	major := FourCC(binary.BigEndian.Uint32(a.Data[8:]))
	if major != BrandQuickTime {
		return false
	}
	for i := 16; i+4 <= len(a.Data); i += 4 {
		if FourCC(binary.BigEndian.Uint32(a.Data[i:])) == major {
			return true
		}
	}
	return false
}

// MediaHeaderAtom is a view of a `mdhd` atom.
type MediaHeaderAtom struct {
	Atom
}

// TimeScale returns the number of time units per second for the media.
func (a *MediaHeaderAtom) TimeScale() (uint32, error) {
	if len(a.Data) < 8+16 {
		return 0, fmt.Errorf("%w: short mdhd", ErrStructure)
	}
	return binary.BigEndian.Uint32(a.Data[8+12:]), nil
}

// TimeToSampleAtom is a view of a `stts` atom.
type TimeToSampleAtom struct {
	Atom
}

// TimeToSampleEntry is one run-length entry of a `stts` atom.
type TimeToSampleEntry struct {
	Count    uint32
	Duration uint32
}

// Count returns the number of entries.
func (a *TimeToSampleAtom) Count() uint32 {
	if len(a.Data) < 16 {
		return 0
	}
	return binary.BigEndian.Uint32(a.Data[12:])
}

// Entry returns the i-th run-length entry.
func (a *TimeToSampleAtom) Entry(i uint32) (TimeToSampleEntry, error) {
	off := 16 + int(i)*8
	if i >= a.Count() || off+8 > len(a.Data) {
		return TimeToSampleEntry{}, fmt.Errorf("%w: stts entry %d out of range", ErrStructure, i)
	}
	return TimeToSampleEntry{
		Count:    binary.BigEndian.Uint32(a.Data[off:]),
		Duration: binary.BigEndian.Uint32(a.Data[off+4:]),
	}, nil
}

// SyncSampleAtom is a view of a `stss` atom.
type SyncSampleAtom struct {
	Atom
}

// Count returns the number of sync-sample entries.
func (a *SyncSampleAtom) Count() uint32 {
	if len(a.Data) < 16 {
		return 0
	}
	return binary.BigEndian.Uint32(a.Data[12:])
}

// SampleNumber returns the i-th sync (key frame) sample number, 1-based.
func (a *SyncSampleAtom) SampleNumber(i uint32) (uint32, error) {
	off := 16 + int(i)*4
	if i >= a.Count() || off+4 > len(a.Data) {
		return 0, fmt.Errorf("%w: stss entry %d out of range", ErrStructure, i)
	}
	return binary.BigEndian.Uint32(a.Data[off:]), nil
}

// SampleToChunkAtom is a view of a `stsc` atom.
type SampleToChunkAtom struct {
	Atom
}

// SampleToChunkEntry is one sparse entry of a `stsc` atom, keyed by the
// 1-based index of the first chunk the entry applies to.
type SampleToChunkEntry struct {
	FirstChunk      uint32
	SamplesPerChunk uint32
	DescriptionID   uint32
}

// Count returns the number of entries.
func (a *SampleToChunkAtom) Count() uint32 {
	if len(a.Data) < 16 {
		return 0
	}
	return binary.BigEndian.Uint32(a.Data[12:])
}

// Entry returns the i-th sparse entry.
func (a *SampleToChunkAtom) Entry(i uint32) (SampleToChunkEntry, error) {
	off := 16 + int(i)*12
	if i >= a.Count() || off+12 > len(a.Data) {
		return SampleToChunkEntry{}, fmt.Errorf("%w: stsc entry %d out of range", ErrStructure, i)
	}
	return SampleToChunkEntry{
		FirstChunk:      binary.BigEndian.Uint32(a.Data[off:]),
		SamplesPerChunk: binary.BigEndian.Uint32(a.Data[off+4:]),
		DescriptionID:   binary.BigEndian.Uint32(a.Data[off+8:]),
	}, nil
}

// SampleSizeAtom is a view of a `stsz` atom.
type SampleSizeAtom struct {
	Atom
}

// SampleSize returns the constant sample size, or 0 for per-sample sizes.
func (a *SampleSizeAtom) SampleSize() uint32 {
	if len(a.Data) < 20 {
		return 0
	}
	return binary.BigEndian.Uint32(a.Data[12:])
}

// Count returns the number of samples.
func (a *SampleSizeAtom) Count() uint32 {
	if len(a.Data) < 20 {
		return 0
	}
	return binary.BigEndian.Uint32(a.Data[16:])
}

// SizeOf returns the size of the i-th sample, 0-based.
func (a *SampleSizeAtom) SizeOf(i uint32) (uint32, error) {
	if s := a.SampleSize(); s != 0 {
		if i >= a.Count() {
			return 0, fmt.Errorf("%w: stsz sample %d out of range", ErrStructure, i)
		}
		return s, nil
	}
	off := 20 + int(i)*4
	if i >= a.Count() || off+4 > len(a.Data) {
		return 0, fmt.Errorf("%w: stsz sample %d out of range", ErrStructure, i)
	}
	return binary.BigEndian.Uint32(a.Data[off:]), nil
}

// ChunkOffsetAtom is a view of a `stco` atom.
type ChunkOffsetAtom struct {
	Atom
}

// Count returns the number of chunks.
func (a *ChunkOffsetAtom) Count() uint32 {
	if len(a.Data) < 16 {
		return 0
	}
	return binary.BigEndian.Uint32(a.Data[12:])
}

// OffsetOf returns the byte offset of the i-th chunk, 0-based.
func (a *ChunkOffsetAtom) OffsetOf(i uint32) (uint32, error) {
	off := 16 + int(i)*4
	if i >= a.Count() || off+4 > len(a.Data) {
		return 0, fmt.Errorf("%w: stco entry %d out of range", ErrStructure, i)
	}
	return binary.BigEndian.Uint32(a.Data[off:]), nil
}
