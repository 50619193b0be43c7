// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mov enumerates the atoms of a QuickTime stream held in memory and
// exposes bounded views of the atoms an HEVC-with-Alpha decoder needs. The
// whole stream is resident before enumeration starts; atoms are slices into
// it, never copies.
package mov

import "fmt"

// AtomID indexes the atoms collected from a stream.
type AtomID int

// 收集的 atom
const (
	IDFtyp AtomID = iota
	IDMdat
	IDMdhd
	IDStsd
	IDStts
	IDStss
	IDStsc
	IDStsz
	IDStco
	idCount
)

// requiredAtoms must all be present for a stream to be usable.
const requiredAtoms = 1<<IDFtyp | 1<<IDMdat | 1<<IDStsd |
	1<<IDStsc | 1<<IDStsz | 1<<IDStco

// durationAtoms are needed to assign sample durations.
const durationAtoms = 1<<IDStts | 1<<IDMdhd

// leafIDs maps recorded leaf atom types to their slot.
var leafIDs = map[FourCC]AtomID{
	TypeFtyp: IDFtyp,
	TypeMdat: IDMdat,
	TypeMdhd: IDMdhd,
	TypeStsd: IDStsd,
	TypeStts: IDStts,
	TypeStss: IDStss,
	TypeStsc: IDStsc,
	TypeStsz: IDStsz,
	TypeStco: IDStco,
}

// containerTypes are descended into; their children land in the same flat
// collection.
var containerTypes = map[FourCC]bool{
	TypeMoov: true,
	TypeTrak: true,
	TypeMdia: true,
	TypeMinf: true,
	TypeStbl: true,
}

// AtomCollection is a flat mapping from AtomID to the first occurrence of
// that atom in a stream. It is filled once by Enumerate and read-only
// afterwards.
type AtomCollection struct {
	atoms [idCount]Atom
	mask  uint32
}

// Enumerate scans the atoms of a QuickTime stream, descending into the
// known container atoms. The first occurrence of each recorded atom wins.
// It fails if any atom oversteps its parent or if one of the mandatory
// atoms (ftyp, mdat, stsd, stsc, stsz, stco) is missing.
func Enumerate(buf []byte) (*AtomCollection, error) {
	c := &AtomCollection{}
	if err := c.enumerateChildren(buf, 0); err != nil {
		return nil, err
	}
	if c.mask&requiredAtoms != requiredAtoms {
		return nil, fmt.Errorf("%w: mandatory atoms missing (mask %#x)", ErrStructure, c.mask)
	}
	return c, nil
}

func (c *AtomCollection) enumerateChildren(buf []byte, offset int) error {
	for offset < len(buf) {
		atom, err := parseAtom(buf, offset)
		if err != nil {
			return err
		}
		if containerTypes[atom.Type] {
			if err := c.enumerateChildren(atom.Data, 8); err != nil {
				return err
			}
		} else if id, ok := leafIDs[atom.Type]; ok {
			if c.mask&(1<<uint(id)) == 0 {
				c.atoms[id] = atom
				c.mask |= 1 << uint(id)
			}
		}
		offset += atom.Size()
	}
	return nil
}

// Has reports whether the collection holds the given atom.
func (c *AtomCollection) Has(id AtomID) bool {
	return c.mask&(1<<uint(id)) != 0
}

// HasSampleDurations reports whether the stream carries the atoms needed
// to compute sample durations (stts and mdhd).
func (c *AtomCollection) HasSampleDurations() bool {
	return c.mask&durationAtoms == durationAtoms
}

// FileType returns the `ftyp` atom.
func (c *AtomCollection) FileType() *FileTypeAtom {
	return &FileTypeAtom{c.atoms[IDFtyp]}
}

// MediaData returns the `mdat` atom.
func (c *AtomCollection) MediaData() *Atom {
	return &c.atoms[IDMdat]
}

// MediaHeader returns the `mdhd` atom.
func (c *AtomCollection) MediaHeader() *MediaHeaderAtom {
	return &MediaHeaderAtom{c.atoms[IDMdhd]}
}

// SampleDescription returns the `stsd` atom.
func (c *AtomCollection) SampleDescription() *SampleDescriptionAtom {
	return &SampleDescriptionAtom{c.atoms[IDStsd]}
}

// TimeToSample returns the `stts` atom.
func (c *AtomCollection) TimeToSample() *TimeToSampleAtom {
	return &TimeToSampleAtom{c.atoms[IDStts]}
}

// SyncSample returns the `stss` atom.
func (c *AtomCollection) SyncSample() *SyncSampleAtom {
	return &SyncSampleAtom{c.atoms[IDStss]}
}

// SampleToChunk returns the `stsc` atom.
func (c *AtomCollection) SampleToChunk() *SampleToChunkAtom {
	return &SampleToChunkAtom{c.atoms[IDStsc]}
}

// SampleSize returns the `stsz` atom.
func (c *AtomCollection) SampleSize() *SampleSizeAtom {
	return &SampleSizeAtom{c.atoms[IDStsz]}
}

// ChunkOffset returns the `stco` atom.
func (c *AtomCollection) ChunkOffset() *ChunkOffsetAtom {
	return &ChunkOffsetAtom{c.atoms[IDStco]}
}
