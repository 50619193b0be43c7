// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mov

import (
	"encoding/binary"
	"fmt"
)

// SampleDescriptionAtom is a view of a `stsd` atom.
type SampleDescriptionAtom struct {
	Atom
}

// Count returns the declared number of sample descriptions.
func (a *SampleDescriptionAtom) Count() uint32 {
	if len(a.Data) < 16 {
		return 0
	}
	return binary.BigEndian.Uint32(a.Data[12:])
}

// Descriptions walks the variable-length description entries and returns
// bounded views of them.
func (a *SampleDescriptionAtom) Descriptions() ([]SampleDescription, error) {
	count := a.Count()
	if count == 0 {
		return nil, fmt.Errorf("%w: stsd without descriptions", ErrStructure)
	}
	descriptions := make([]SampleDescription, 0, count)
	data := a.Data
	offset := 16
	for i := uint32(0); i < count; i++ {
		if len(data)-offset < 16 {
			return nil, fmt.Errorf("%w: truncated sample description %d", ErrStructure, i)
		}
		size := int(binary.BigEndian.Uint32(data[offset:]))
		if size < 16 || size > len(data)-offset {
			return nil, fmt.Errorf("%w: sample description %d declares size %d beyond stsd",
				ErrStructure, i, size)
		}
		descriptions = append(descriptions, SampleDescription{
			Format: FourCC(binary.BigEndian.Uint32(data[offset+4:])),
			data:   data[offset : offset+size],
		})
		offset += size
	}
	return descriptions, nil
}

// SampleDescription is one entry of a `stsd` atom:
// size, format, 6 reserved bytes and a data-reference index, followed by
// format-specific fields.
type SampleDescription struct {
	Format FourCC
	data   []byte
}

// videoSampleDescriptionSize is the fixed part of a video sample
// description after the 16-byte entry header.
const videoSampleDescriptionSize = 70

// Video reinterprets the description as a video sample description.
func (d *SampleDescription) Video() (*VideoSampleDescription, error) {
	if len(d.data) < 16+videoSampleDescriptionSize {
		return nil, fmt.Errorf("%w: short video sample description", ErrStructure)
	}
	return &VideoSampleDescription{data: d.data}, nil
}

// VideoSampleDescription is a video `stsd` entry
// (QTFF "Video sample description").
type VideoSampleDescription struct {
	data []byte
}

// Width returns the display width in pixels.
func (d *VideoSampleDescription) Width() int {
	return int(binary.BigEndian.Uint16(d.data[32:]))
}

// Height returns the display height in pixels.
func (d *VideoSampleDescription) Height() int {
	return int(binary.BigEndian.Uint16(d.data[34:]))
}

// Extension is one video-sample-description extension
// (size and type header plus payload).
type Extension struct {
	Type FourCC
	Data []byte // the whole extension including the 8-byte header
}

// Body returns the extension payload after the 8-byte header.
func (e *Extension) Body() []byte { return e.Data[8:] }

// Extensions walks the extension atoms that follow the fixed fields.
// Apple encoders sometimes append a 4-byte padding after the last
// extension; anything too short to hold an extension header is ignored.
func (d *VideoSampleDescription) Extensions() ([]Extension, error) {
	var extensions []Extension
	data := d.data
	offset := 16 + videoSampleDescriptionSize
	for len(data)-offset >= 8 {
		size := int(binary.BigEndian.Uint32(data[offset:]))
		if size < 8 || size > len(data)-offset {
			return nil, fmt.Errorf("%w: sample-description extension declares size %d beyond its entry",
				ErrStructure, size)
		}
		extensions = append(extensions, Extension{
			Type: FourCC(binary.BigEndian.Uint32(data[offset+4:])),
			Data: data[offset : offset+size],
		})
		offset += size
	}
	return extensions, nil
}
