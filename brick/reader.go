package brick

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/arloliu/oceanq/compress"
	"github.com/arloliu/oceanq/endian"
	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/format"
	"github.com/arloliu/oceanq/geom"
	"github.com/arloliu/oceanq/internal/hash"
	"github.com/arloliu/oceanq/volume"
)

// Reader decodes regions of one brick file.
//
// A Reader validates the header and level index on Open but decompresses a
// level payload only when Decode needs it. Readers are safe for concurrent
// Decode calls; in the query layer every decode worker opens its own Reader.
type Reader struct {
	path    string
	data    []byte
	header  Header
	entries []LevelEntry
	engine  endian.EndianEngine
	codec   compress.Codec
}

// Open reads and validates the brick file name under dir.
func Open(dir, name string) (*Reader, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open brick file %s: %w", path, err)
	}

	r := &Reader{path: path, data: data}
	if err := r.header.Parse(data); err != nil {
		return nil, fmt.Errorf("parse brick header %s: %w", path, err)
	}
	r.engine = r.header.Engine()

	codec, err := compress.GetCodec(r.header.Compression)
	if err != nil {
		return nil, err
	}
	r.codec = codec

	indexEnd := HeaderSize + r.header.NumLevels*LevelEntrySize
	if len(data) < indexEnd {
		return nil, fmt.Errorf("%w: file %s truncated before level index", errs.ErrInvalidLevelIndex, path)
	}
	r.entries = make([]LevelEntry, r.header.NumLevels)
	for i := range r.entries {
		entryData := data[HeaderSize+i*LevelEntrySize : HeaderSize+(i+1)*LevelEntrySize]
		if err := r.entries[i].Parse(entryData, r.engine); err != nil {
			return nil, fmt.Errorf("parse level %d index of %s: %w", i, path, err)
		}
		end := r.entries[i].Offset + uint64(r.entries[i].Size)
		if r.entries[i].Offset < uint64(indexEnd) || end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: level %d payload outside file %s", errs.ErrInvalidLevelIndex, i, path)
		}
	}

	return r, nil
}

// Dims returns the full-resolution volume dimensions.
func (r *Reader) Dims() geom.V3 {
	return r.header.Dims
}

// SampleType returns the stored element type.
func (r *Reader) SampleType() format.SampleType {
	return r.header.SampleType
}

// Tolerance returns the absolute error bound the file was encoded with.
func (r *Reader) Tolerance() float64 {
	return r.header.Tolerance
}

// NumLevels returns the resolution pyramid depth.
func (r *Reader) NumLevels() int {
	return r.header.NumLevels
}

// Close releases the file image. The Reader must not be used afterwards.
func (r *Reader) Close() error {
	r.data = nil
	r.entries = nil

	return nil
}

// OutputGrid computes the snapped sampling grid a Decode call with the same
// parameters will fill. An empty requested extent means the whole volume.
func (r *Reader) OutputGrid(ext geom.Extent, downsampling geom.V3) (geom.Grid, error) {
	return geom.ComputeGrid(r.header.Dims, downsampling, ext.OrWhole(r.header.Dims))
}

// Decode decodes the requested region into dst and returns the grid the
// samples realize.
//
// The decode reads the stored level matching the smallest per-axis
// downsampling factor (capped at the stored pyramid depth) and subsamples
// it in memory to the requested per-axis strides. accuracy is the caller's
// error tolerance; values finer than the encoding tolerance cannot be
// honored and decode at the stored bound, which Tolerance reports.
//
// dst must hold at least SampleType().Size() * product of the grid dims
// bytes; samples are written little-endian with X varying fastest.
func (r *Reader) Decode(ext geom.Extent, downsampling geom.V3, accuracy float64, dst []byte) (geom.Grid, error) {
	if accuracy < 0 || math.IsNaN(accuracy) {
		return geom.Grid{}, fmt.Errorf("%w: accuracy %v", errs.ErrInvalidRange, accuracy)
	}
	grid, err := r.OutputGrid(ext, downsampling)
	if err != nil {
		return geom.Grid{}, err
	}
	if grid.IsEmpty() {
		return grid, nil
	}

	need := volume.MinBufSize(grid.Dims, r.header.SampleType)
	if int64(len(dst)) < need {
		return geom.Grid{}, fmt.Errorf("%w: decode buffer %d bytes, need %d", errs.ErrSizeTooSmall, len(dst), need)
	}

	level := min(downsampling.X, min(downsampling.Y, downsampling.Z))
	if level > r.header.NumLevels-1 {
		level = r.header.NumLevels - 1
	}

	raw, err := r.levelPayload(level)
	if err != nil {
		return geom.Grid{}, err
	}

	ld := levelDims(r.header.Dims, level)
	sample := r.sampleFunc(raw, r.entries[level].QuantStep)

	out, err := volume.FromBuffer(dst[:need], grid.Dims, r.header.SampleType)
	if err != nil {
		return geom.Grid{}, err
	}

	lstride := 1 << level
	clampIndex := func(pos, dim int) int {
		i := pos / lstride
		if i >= dim {
			// Snapped-outward positions past the stored lattice replicate
			// the edge sample.
			return dim - 1
		}

		return i
	}

	var p geom.V3
	for p.Z = 0; p.Z < grid.Dims.Z; p.Z++ {
		lz := clampIndex(grid.From.Z+p.Z*grid.Stride.Z, ld.Z)
		for p.Y = 0; p.Y < grid.Dims.Y; p.Y++ {
			ly := clampIndex(grid.From.Y+p.Y*grid.Stride.Y, ld.Y)
			rowBase := (lz*ld.Y + ly) * ld.X
			for p.X = 0; p.X < grid.Dims.X; p.X++ {
				lx := clampIndex(grid.From.X+p.X*grid.Stride.X, ld.X)
				out.Set(p, sample(rowBase+lx))
			}
		}
	}

	return grid, nil
}

// levelPayload verifies and decompresses one level's payload.
func (r *Reader) levelPayload(level int) ([]byte, error) {
	entry := &r.entries[level]
	compressed := r.data[entry.Offset : entry.Offset+uint64(entry.Size)]
	if hash.Checksum(compressed) != entry.Checksum {
		return nil, fmt.Errorf("%w: level %d of %s", errs.ErrChecksumMismatch, level, r.path)
	}

	raw, err := r.codec.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress level %d of %s: %w", level, r.path, err)
	}
	if uint32(len(raw)) != entry.RawSize {
		return nil, fmt.Errorf("%w: level %d decompressed to %d bytes, expected %d",
			errs.ErrInvalidLevelIndex, level, len(raw), entry.RawSize)
	}

	return raw, nil
}

// sampleFunc returns an accessor over a raw level payload: dequantizing
// when a step is set, reinterpreting IEEE bits otherwise.
func (r *Reader) sampleFunc(raw []byte, step float64) func(i int) float64 {
	engine := r.engine
	if step > 0 {
		return func(i int) float64 {
			return float64(int32(engine.Uint32(raw[i*4:]))) * step
		}
	}
	if r.header.SampleType == format.SampleFloat64 {
		return func(i int) float64 {
			return math.Float64frombits(engine.Uint64(raw[i*8:]))
		}
	}

	return func(i int) float64 {
		return float64(math.Float32frombits(engine.Uint32(raw[i*4:])))
	}
}
