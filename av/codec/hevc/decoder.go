// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hevc decodes the structural metadata of an HEVC-with-Alpha
// elementary stream packaged in a QuickTime container: the parameter sets
// and alpha-channel SEI carried by its `hvcC` configuration, and a flat
// sample table with per-sample picture order counts. It feeds a video
// decoding engine; it performs no slice-data decoding itself.
package hevc

import (
	"fmt"

	"github.com/cnotch/hevcmov/av/format/mov"
	"github.com/cnotch/xlog"
)

// Sample is one coded access unit of the stream. Offset points into the
// decoder's stream buffer; PictureOrderCount supplies display order
// (samples are stored in decode order).
type Sample struct {
	Offset            uint32
	Size              uint32
	Duration          uint32
	PictureOrderCount uint32
}

// Decoder is one decoding session over a QuickTime stream. It owns a copy
// of the stream; Sample offsets and SampleBytes views point into that
// copy. A Decoder is created by Create and read-only afterwards, so it may
// be shared between goroutines.
type Decoder struct {
	data []byte

	vps   H265RawVPS
	sps   [2]H265RawSPS
	pps   [2]H265RawPPS
	alpha AlphaChannelInformation
	hvcc  []byte

	samples              []Sample
	maxPictureOrderCount uint32
	timeScale            uint32
	frameWidth           int
	frameHeight          int

	logger *xlog.Logger
}

// Create parses the given QuickTime stream and returns a decoding session
// for it. The stream must be a complete file image; it is copied, so the
// caller may release data afterwards. Create fails if the stream is not a
// QuickTime file, carries no hvc1 track with an `hvcC` configuration, or
// uses H.265 features outside the HEVC-with-Alpha profile.
func Create(data []byte) (*Decoder, error) {
	d := &Decoder{
		data:   append([]byte(nil), data...),
		logger: xlog.L().With(xlog.Fields(xlog.F("codec", "hevc-alpha"))),
	}

	collection, err := mov.Enumerate(d.data)
	if err != nil {
		return nil, err
	}
	if !collection.FileType().Valid() {
		return nil, fmt.Errorf("%w: not a QuickTime stream", ErrUnsupported)
	}
	descriptions, err := collection.SampleDescription().Descriptions()
	if err != nil {
		return nil, err
	}
	for _, description := range descriptions {
		if description.Format != mov.FormatHVC1 {
			continue
		}
		video, err := description.Video()
		if err != nil {
			return nil, err
		}
		d.frameWidth = video.Width()
		d.frameHeight = video.Height()
		d.logger.Debugf("hvc1 description: width=%d, height=%d", d.frameWidth, d.frameHeight)

		extensions, err := video.Extensions()
		if err != nil {
			return nil, err
		}
		for _, extension := range extensions {
			if extension.Type != mov.ExtensionHVCC {
				continue
			}
			if err := d.decodeHEVCDecoderConfiguration(extension.Body()); err != nil {
				return nil, err
			}
			if err := d.initializeSamples(collection); err != nil {
				return nil, err
			}
			if err := d.initializeDurations(collection); err != nil {
				return nil, err
			}
			d.hvcc = extension.Body()
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: no hvc1 description with an hvcC configuration", ErrUnsupported)
}

// initializeSamples merges the stsc, stco and stsz tables into the flat
// sample array and decodes the picture order count of every sample.
//
// The stsc table is sparse: each entry names the first chunk the entry
// applies to, so chunks are walked backwards against the entry list to
// give every chunk its sample count.
//
//	+-------+-------------+--------------+-----------------------+
//	| entry | first chunk | sample count | sample description ID |
//	+-------+-------------+--------------+-----------------------+
//	| 0     | 1           | 30           | 1                     |
//	| 1     | 3           | 15           | 2                     |
//	+-------+-------------+--------------+-----------------------+
func (d *Decoder) initializeSamples(collection *mov.AtomCollection) error {
	sampleToChunkAtom := collection.SampleToChunk()
	chunkOffsetAtom := collection.ChunkOffset()
	sampleSizeAtom := collection.SampleSize()
	numberOfEntries := sampleToChunkAtom.Count()
	numberOfChunks := chunkOffsetAtom.Count()
	sampleSize := sampleSizeAtom.SampleSize()
	if numberOfEntries == 0 || numberOfChunks == 0 {
		return fmt.Errorf("%w: empty stsc or stco table", mov.ErrStructure)
	}
	// Declared counts size the tables built below; a count must fit its
	// atom's payload before anything is allocated from it.
	if uint64(numberOfChunks) > uint64(len(chunkOffsetAtom.Data)-16)/4 {
		return fmt.Errorf("%w: stco declares %d chunks beyond its payload",
			mov.ErrStructure, numberOfChunks)
	}

	type chunk struct {
		firstSample     uint32
		numberOfSamples uint32
		offset          uint32
	}
	chunks := make([]chunk, numberOfChunks)

	entryIndex := numberOfEntries - 1
	entry, err := sampleToChunkAtom.Entry(entryIndex)
	if err != nil {
		return err
	}
	var totalSamples uint64
	for i := numberOfChunks; i > 0; i-- {
		for i < entry.FirstChunk {
			if entryIndex == 0 {
				return fmt.Errorf("%w: stsc entries cover no chunk %d", mov.ErrStructure, i)
			}
			entryIndex--
			if entry, err = sampleToChunkAtom.Entry(entryIndex); err != nil {
				return err
			}
		}
		totalSamples += uint64(entry.SamplesPerChunk)
		chunks[i-1].numberOfSamples = entry.SamplesPerChunk
	}
	d.logger.Debugf("sample table: samples=%d, chunks=%d", totalSamples, numberOfChunks)

	if sampleSize == 0 {
		// A VBR stream declares its sample count in the stsz atom; it must
		// agree with the stsc-derived one, and its per-sample size table
		// must really hold that many entries.
		if totalSamples != uint64(sampleSizeAtom.Count()) {
			return fmt.Errorf("%w: stsz declares %d samples, stsc yields %d",
				mov.ErrStructure, sampleSizeAtom.Count(), totalSamples)
		}
		if totalSamples > uint64(len(sampleSizeAtom.Data)-20)/4 {
			return fmt.Errorf("%w: stsz declares %d samples beyond its payload",
				mov.ErrStructure, totalSamples)
		}
	} else if totalSamples*uint64(sampleSize) > uint64(len(d.data)) {
		// CBR: the samples jointly cannot be larger than the stream.
		return fmt.Errorf("%w: %d samples of size %d overrun the stream",
			mov.ErrStructure, totalSamples, sampleSize)
	}
	numberOfSamples := uint32(totalSamples)

	firstSample := uint32(1)
	for i := uint32(0); i < numberOfChunks; i++ {
		offset, err := chunkOffsetAtom.OffsetOf(i)
		if err != nil {
			return err
		}
		chunks[i].firstSample = firstSample
		chunks[i].offset = offset
		firstSample += chunks[i].numberOfSamples
	}

	d.samples = make([]Sample, numberOfSamples)
	d.maxPictureOrderCount = 0
	chunkIndex := 0
	var sampleOffset uint32
	for i := uint32(1); i <= numberOfSamples; i++ {
		for i >= chunks[chunkIndex].firstSample+chunks[chunkIndex].numberOfSamples {
			if chunkIndex >= len(chunks)-1 {
				return fmt.Errorf("%w: sample %d beyond the last chunk", mov.ErrStructure, i)
			}
			chunkIndex++
			sampleOffset = 0
		}
		sampleIndex := i - 1
		sample := &d.samples[sampleIndex]
		size := sampleSize
		if size == 0 {
			if size, err = sampleSizeAtom.SizeOf(sampleIndex); err != nil {
				return err
			}
		}
		sample.Offset = chunks[chunkIndex].offset + sampleOffset
		sample.Size = size
		if uint64(sample.Offset)+uint64(size) > uint64(len(d.data)) {
			return fmt.Errorf("%w: sample %d overruns the stream", mov.ErrStructure, sampleIndex)
		}
		poc, err := d.DecodeSliceHeader(d.data[sample.Offset : sample.Offset+size])
		if err != nil {
			return err
		}
		sample.PictureOrderCount = poc
		if poc > d.maxPictureOrderCount {
			d.maxPictureOrderCount = poc
		}
		sampleOffset += size
	}
	return nil
}

// initializeDurations back-fills sample durations by expanding the
// run-length entries of the stts atom, when both it and the mdhd atom are
// present.
func (d *Decoder) initializeDurations(collection *mov.AtomCollection) error {
	if !collection.HasSampleDurations() {
		return nil
	}
	timeScale, err := collection.MediaHeader().TimeScale()
	if err != nil {
		return err
	}
	d.timeScale = timeScale

	timeToSampleAtom := collection.TimeToSample()
	numberOfEntries := timeToSampleAtom.Count()
	entryStart := uint32(0)
	for i := uint32(0); i < numberOfEntries; i++ {
		entry, err := timeToSampleAtom.Entry(i)
		if err != nil {
			return err
		}
		entryEnd := entryStart + entry.Count
		if entryEnd > uint32(len(d.samples)) {
			return fmt.Errorf("%w: stts run past the last sample", mov.ErrStructure)
		}
		for ; entryStart < entryEnd; entryStart++ {
			d.samples[entryStart].Duration = entry.Duration
		}
	}
	return nil
}

// NumberOfSamples returns the total number of samples in the stream.
func (d *Decoder) NumberOfSamples() int { return len(d.samples) }

// Samples returns the sample table in decode order.
func (d *Decoder) Samples() []Sample { return d.samples }

// SampleAt returns the sample with the given index.
func (d *Decoder) SampleAt(i int) Sample { return d.samples[i] }

// SampleBytes returns the coded bytes of the sample with the given index.
// The returned slice points into the decoder's stream buffer.
func (d *Decoder) SampleBytes(i int) []byte {
	sample := &d.samples[i]
	return d.data[sample.Offset : sample.Offset+sample.Size]
}

// PictureOrderCount returns the picture order count of the sample with
// the given index.
func (d *Decoder) PictureOrderCount(i int) uint32 {
	return d.samples[i].PictureOrderCount
}

// MaxPictureOrderCount returns the maximum picture order count across all
// samples, used by consumers for display reordering.
func (d *Decoder) MaxPictureOrderCount() uint32 { return d.maxPictureOrderCount }

// FrameWidth returns the display width declared by the hvc1 description.
func (d *Decoder) FrameWidth() int { return d.frameWidth }

// FrameHeight returns the display height declared by the hvc1 description.
func (d *Decoder) FrameHeight() int { return d.frameHeight }

// TimeScale returns the media time units per second, or 0 when the stream
// carries no timing atoms.
func (d *Decoder) TimeScale() uint32 { return d.timeScale }

// IsPremultipliedAlpha reports whether the stream premultiplies alpha
// pixels.
func (d *Decoder) IsPremultipliedAlpha() bool { return d.alpha.IsPremultiplied() }

// AlphaChannelInfo returns the decoded alpha-channel SEI record.
func (d *Decoder) AlphaChannelInfo() AlphaChannelInformation { return d.alpha }

// VideoParameterSet returns the decoded VPS.
func (d *Decoder) VideoParameterSet() H265RawVPS { return d.vps }

// SequenceParameterSet returns the decoded SPS in the given slot
// (0 = base layer, 1 = alpha layer).
func (d *Decoder) SequenceParameterSet(i int) H265RawSPS { return d.sps[i] }

// PictureParameterSet returns the decoded PPS in the given slot.
func (d *Decoder) PictureParameterSet(i int) H265RawPPS { return d.pps[i] }

// HVCCConfiguration returns the raw `hvcC` configuration bytes for the
// caller's decoder setup; they are passed through untouched.
func (d *Decoder) HVCCConfiguration() []byte { return d.hvcc }

// FrameAt returns the index of the sample presented at the given time in
// seconds, walking the cumulated sample durations. It returns the last
// sample for times past the end and 0 when the stream carries no timing
// atoms.
func (d *Decoder) FrameAt(seconds float64) int {
	if d.timeScale == 0 || len(d.samples) == 0 || seconds <= 0 {
		return 0
	}
	target := uint64(seconds * float64(d.timeScale))
	var elapsed uint64
	for i := range d.samples {
		elapsed += uint64(d.samples[i].Duration)
		if target < elapsed {
			return i
		}
	}
	return len(d.samples) - 1
}
