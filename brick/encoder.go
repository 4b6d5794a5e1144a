package brick

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/arloliu/oceanq/compress"
	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/format"
	"github.com/arloliu/oceanq/geom"
	"github.com/arloliu/oceanq/internal/hash"
	"github.com/arloliu/oceanq/internal/options"
	"github.com/arloliu/oceanq/volume"
)

// Encoder writes volumes into the brick file format.
//
// An Encoder is configured once and can encode any number of volumes with
// the same dimensions. It is not safe for concurrent use.
type Encoder struct {
	header Header
	codec  compress.Codec
}

// EncoderOption configures an Encoder.
type EncoderOption = options.Option[*Encoder]

// WithSampleType sets the stored sample type. Default is Float32.
func WithSampleType(st format.SampleType) EncoderOption {
	return options.New(func(e *Encoder) error {
		if st.Size() == 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidSampleType, st)
		}
		e.header.SampleType = st

		return nil
	})
}

// WithCompression sets the payload compression. Default is Zstd.
func WithCompression(c format.CompressionType) EncoderOption {
	return options.New(func(e *Encoder) error {
		codec, err := compress.GetCodec(c)
		if err != nil {
			return err
		}
		e.header.Compression = c
		e.codec = codec

		return nil
	})
}

// WithTolerance sets the absolute error tolerance. Samples are quantized
// with step equal to the tolerance, bounding the reconstruction error by
// half a step. Tolerance 0 (the default) stores lossless IEEE bits.
func WithTolerance(tolerance float64) EncoderOption {
	return options.New(func(e *Encoder) error {
		if tolerance < 0 || math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
			return fmt.Errorf("%w: tolerance %v", errs.ErrInvalidRange, tolerance)
		}
		e.header.Tolerance = tolerance

		return nil
	})
}

// WithLevels sets the resolution pyramid depth. Default derives from the
// volume dimensions.
func WithLevels(n int) EncoderOption {
	return options.New(func(e *Encoder) error {
		if n < 1 || n > MaxLevels {
			return fmt.Errorf("%w: %d levels", errs.ErrInvalidLevelIndex, n)
		}
		e.header.NumLevels = n

		return nil
	})
}

// WithBigEndian stores header fields and payloads big-endian.
// Little-endian is the default.
func WithBigEndian() EncoderOption {
	return options.NoError(func(e *Encoder) {
		e.header.BigEndian = true
	})
}

// NewEncoder creates an Encoder for volumes of the given dimensions.
func NewEncoder(dims geom.V3, opts ...EncoderOption) (*Encoder, error) {
	if dims.X < 1 || dims.Y < 1 || dims.Z < 1 {
		return nil, fmt.Errorf("%w: dims %v", errs.ErrInvalidRange, dims)
	}

	e := &Encoder{
		header: Header{
			Version:     Version,
			SampleType:  format.SampleFloat32,
			Compression: format.CompressionZstd,
			Dims:        dims,
		},
	}
	codec, err := compress.GetCodec(e.header.Compression)
	if err != nil {
		return nil, err
	}
	e.codec = codec

	if err := options.Apply(e, opts...); err != nil {
		return nil, err
	}
	if e.header.NumLevels == 0 {
		e.header.NumLevels = defaultLevels(dims)
	}

	return e, nil
}

// Encode serializes one volume into a complete brick file image.
func (e *Encoder) Encode(vol volume.Volume) ([]byte, error) {
	if vol.Dims != e.header.Dims {
		return nil, fmt.Errorf("%w: volume dims %v, encoder dims %v", errs.ErrInvalidRange, vol.Dims, e.header.Dims)
	}
	if vol.Type != e.header.SampleType {
		return nil, fmt.Errorf("%w: volume type %s, encoder type %s", errs.ErrInvalidSampleType, vol.Type, e.header.SampleType)
	}

	engine := e.header.Engine()
	entries := make([]LevelEntry, e.header.NumLevels)
	payloads := make([][]byte, e.header.NumLevels)

	offset := uint64(HeaderSize + e.header.NumLevels*LevelEntrySize)
	for level := 0; level < e.header.NumLevels; level++ {
		raw := e.encodeLevel(vol, level)
		compressed, err := e.codec.Compress(raw)
		if err != nil {
			return nil, fmt.Errorf("compress level %d: %w", level, err)
		}
		payloads[level] = compressed
		entries[level] = LevelEntry{
			Offset:    offset,
			Size:      uint32(len(compressed)),
			RawSize:   uint32(len(raw)),
			QuantStep: e.header.Tolerance,
			Checksum:  hash.Checksum(compressed),
		}
		offset += uint64(len(compressed))
	}

	out := make([]byte, 0, offset)
	out = append(out, e.header.Bytes()...)
	for i := range entries {
		out = entries[i].AppendTo(out, engine)
	}
	for _, p := range payloads {
		out = append(out, p...)
	}

	return out, nil
}

// EncodeToFile encodes a volume and writes it to path, creating parent
// directories as needed.
func (e *Encoder) EncodeToFile(vol volume.Volume, path string) error {
	data, err := e.Encode(vol)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create brick directory: %w", err)
		}
	}

	return os.WriteFile(path, data, 0o644)
}

// encodeLevel builds the raw payload of one resolution level: the level
// lattice samples, quantized when the tolerance is non-zero.
func (e *Encoder) encodeLevel(vol volume.Volume, level int) []byte {
	engine := e.header.Engine()
	ld := levelDims(e.header.Dims, level)
	stride := 1 << level
	step := e.header.Tolerance

	sampleBytes := e.header.SampleType.Size()
	if step > 0 {
		sampleBytes = 4 // quantized int32
	}
	raw := make([]byte, 0, int(ld.Prod())*sampleBytes)

	clamp := func(pos, dim int) int {
		if pos >= dim {
			return dim - 1
		}

		return pos
	}

	var p geom.V3
	for p.Z = 0; p.Z < ld.Z; p.Z++ {
		for p.Y = 0; p.Y < ld.Y; p.Y++ {
			for p.X = 0; p.X < ld.X; p.X++ {
				src := geom.V3{
					X: clamp(p.X*stride, vol.Dims.X),
					Y: clamp(p.Y*stride, vol.Dims.Y),
					Z: clamp(p.Z*stride, vol.Dims.Z),
				}
				val := vol.At(src)
				switch {
				case step > 0:
					q := int32(math.Round(val / step))
					raw = engine.AppendUint32(raw, uint32(q))
				case e.header.SampleType == format.SampleFloat64:
					raw = engine.AppendUint64(raw, math.Float64bits(val))
				default:
					raw = engine.AppendUint32(raw, math.Float32bits(float32(val)))
				}
			}
		}
	}

	return raw
}
