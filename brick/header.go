package brick

import (
	"fmt"
	"math"

	"github.com/arloliu/oceanq/endian"
	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/format"
	"github.com/arloliu/oceanq/geom"
)

const (
	// MagicNumber identifies a brick file; stored little-endian in the
	// first two bytes regardless of the payload byte order.
	MagicNumber uint16 = 0xB51C

	// Version is the current format version.
	Version uint8 = 1

	// HeaderSize is the fixed byte size of the file header.
	HeaderSize = 40

	// LevelEntrySize is the byte size of one level index entry.
	LevelEntrySize = 32

	// MaxLevels bounds the resolution pyramid depth.
	MaxLevels = 16

	flagBigEndian = 0x01
)

// Header is the fixed-size section at the start of a brick file.
type Header struct {
	Version     uint8
	BigEndian   bool
	SampleType  format.SampleType
	Compression format.CompressionType
	NumLevels   int
	Dims        geom.V3
	Tolerance   float64
}

// Engine returns the byte-order engine matching the header's endianness flag.
func (h *Header) Engine() endian.EndianEngine {
	if h.BigEndian {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// Validate checks the header's type tags and geometry.
func (h *Header) Validate() error {
	if h.Version != Version {
		return fmt.Errorf("%w: version %d", errs.ErrUnsupportedVersion, h.Version)
	}
	if h.SampleType.Size() == 0 {
		return fmt.Errorf("%w: %d", errs.ErrInvalidSampleType, h.SampleType)
	}
	switch h.Compression {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
	default:
		return fmt.Errorf("%w: %d", errs.ErrInvalidCompressionType, h.Compression)
	}
	if h.NumLevels < 1 || h.NumLevels > MaxLevels {
		return fmt.Errorf("%w: %d levels", errs.ErrInvalidLevelIndex, h.NumLevels)
	}
	if h.Dims.X < 1 || h.Dims.Y < 1 || h.Dims.Z < 1 {
		return fmt.Errorf("%w: dims %v", errs.ErrInvalidRange, h.Dims)
	}
	if h.Tolerance < 0 || math.IsNaN(h.Tolerance) || math.IsInf(h.Tolerance, 0) {
		return fmt.Errorf("%w: tolerance %v", errs.ErrInvalidRange, h.Tolerance)
	}

	return nil
}

// Parse parses the header from a byte slice of at least HeaderSize bytes.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	// The magic number is always little-endian so the byte order flag can
	// be read after identifying the file.
	magic := uint16(data[0]) | uint16(data[1])<<8
	if magic != MagicNumber {
		return errs.ErrInvalidMagicNumber
	}
	h.Version = data[2]
	h.BigEndian = data[3]&flagBigEndian != 0
	h.SampleType = format.SampleType(data[4])
	h.Compression = format.CompressionType(data[5])
	h.NumLevels = int(data[6])

	engine := h.Engine()
	h.Dims = geom.V3{
		X: int(engine.Uint32(data[8:12])),
		Y: int(engine.Uint32(data[12:16])),
		Z: int(engine.Uint32(data[16:20])),
	}
	h.Tolerance = math.Float64frombits(engine.Uint64(data[20:28]))

	return h.Validate()
}

// Bytes serializes the header into a HeaderSize byte slice.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)

	b[0] = byte(MagicNumber & 0xFF)
	b[1] = byte(MagicNumber >> 8)
	b[2] = h.Version
	if h.BigEndian {
		b[3] |= flagBigEndian
	}
	b[4] = byte(h.SampleType)
	b[5] = byte(h.Compression)
	b[6] = byte(h.NumLevels)

	engine := h.Engine()
	engine.PutUint32(b[8:12], uint32(h.Dims.X))
	engine.PutUint32(b[12:16], uint32(h.Dims.Y))
	engine.PutUint32(b[16:20], uint32(h.Dims.Z))
	engine.PutUint64(b[20:28], math.Float64bits(h.Tolerance))
	engine.PutUint32(b[28:32], uint32(HeaderSize))

	return b
}

// LevelEntry is one entry of the level index, describing a single
// resolution level's payload.
type LevelEntry struct {
	// Offset is the absolute file offset of the compressed payload.
	Offset uint64
	// Size is the compressed payload size in bytes.
	Size uint32
	// RawSize is the payload size after decompression.
	RawSize uint32
	// QuantStep is the scalar quantization step; 0 means raw IEEE bits.
	QuantStep float64
	// Checksum is the xxHash64 of the compressed payload.
	Checksum uint64
}

// Parse parses a level entry from a LevelEntrySize byte slice.
func (e *LevelEntry) Parse(data []byte, engine endian.EndianEngine) error {
	if len(data) < LevelEntrySize {
		return errs.ErrInvalidLevelIndex
	}
	e.Offset = engine.Uint64(data[0:8])
	e.Size = engine.Uint32(data[8:12])
	e.RawSize = engine.Uint32(data[12:16])
	e.QuantStep = math.Float64frombits(engine.Uint64(data[16:24]))
	e.Checksum = engine.Uint64(data[24:32])

	if e.QuantStep < 0 || math.IsNaN(e.QuantStep) || math.IsInf(e.QuantStep, 0) {
		return fmt.Errorf("%w: quantization step %v", errs.ErrInvalidLevelIndex, e.QuantStep)
	}

	return nil
}

// AppendTo serializes the entry and appends it to b.
func (e *LevelEntry) AppendTo(b []byte, engine endian.EndianEngine) []byte {
	b = engine.AppendUint64(b, e.Offset)
	b = engine.AppendUint32(b, e.Size)
	b = engine.AppendUint32(b, e.RawSize)
	b = engine.AppendUint64(b, math.Float64bits(e.QuantStep))
	b = engine.AppendUint64(b, e.Checksum)

	return b
}
