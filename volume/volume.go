// Package volume provides typed linear sample buffers and the strided
// copy and slice-collapse operations the result scatter is built on.
//
// A Volume pairs a raw byte buffer with a dimension vector and a sample
// type tag. Samples are laid out with X varying fastest, then Y, then Z,
// and are stored little-endian regardless of host byte order.
package volume

import (
	"fmt"
	"math"

	"github.com/arloliu/oceanq/endian"
	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/format"
	"github.com/arloliu/oceanq/geom"
)

var engine = endian.GetLittleEndianEngine()

// Volume is a typed, linear sample buffer with 3D dimensions.
type Volume struct {
	Buf  []byte
	Dims geom.V3
	Type format.SampleType
}

// MinBufSize returns the byte size required for dims samples of type st.
func MinBufSize(dims geom.V3, st format.SampleType) int64 {
	return dims.Prod() * int64(st.Size())
}

// New allocates a zero-filled volume of the given dims and sample type.
func New(dims geom.V3, st format.SampleType) Volume {
	return Volume{
		Buf:  make([]byte, MinBufSize(dims, st)),
		Dims: dims,
		Type: st,
	}
}

// FromBuffer wraps an existing buffer as a volume, validating its size.
// The buffer is shared, not copied.
func FromBuffer(buf []byte, dims geom.V3, st format.SampleType) (Volume, error) {
	if st.Size() == 0 {
		return Volume{}, fmt.Errorf("%w: %d", errs.ErrInvalidSampleType, st)
	}
	if int64(len(buf)) < MinBufSize(dims, st) {
		return Volume{}, fmt.Errorf("%w: have %d bytes, need %d", errs.ErrSizeTooSmall, len(buf), MinBufSize(dims, st))
	}

	return Volume{Buf: buf, Dims: dims, Type: st}, nil
}

// NumSamples returns the total sample count.
func (v Volume) NumSamples() int64 {
	return v.Dims.Prod()
}

// index returns the flat sample index of position p.
func (v Volume) index(p geom.V3) int {
	return (p.Z*v.Dims.Y+p.Y)*v.Dims.X + p.X
}

// At returns the sample at position p as a float64.
func (v Volume) At(p geom.V3) float64 {
	i := v.index(p)
	switch v.Type {
	case format.SampleFloat64:
		return math.Float64frombits(engine.Uint64(v.Buf[i*8:]))
	default: // SampleFloat32
		return float64(math.Float32frombits(engine.Uint32(v.Buf[i*4:])))
	}
}

// Set stores a float64 sample at position p, narrowing as needed.
func (v Volume) Set(p geom.V3, val float64) {
	i := v.index(p)
	switch v.Type {
	case format.SampleFloat64:
		engine.PutUint64(v.Buf[i*8:], math.Float64bits(val))
	default: // SampleFloat32
		engine.PutUint32(v.Buf[i*4:], math.Float32bits(float32(val)))
	}
}

// CopyExtent copies the samples in srcExt of src into dstExt of dst.
// Both extents are in sample units of their own volume and must have equal
// dims; rows along X are copied with a single copy call since they are
// contiguous in both volumes.
func CopyExtent(dst *Volume, dstExt geom.Extent, src Volume, srcExt geom.Extent) error {
	if srcExt.Dims != dstExt.Dims {
		return fmt.Errorf("%w: copy dims %v vs %v", errs.ErrInvalidRange, srcExt.Dims, dstExt.Dims)
	}
	if srcExt.IsEmpty() {
		return nil
	}
	if dst.Type != src.Type {
		return fmt.Errorf("%w: sample type %s vs %s", errs.ErrInvalidSampleType, dst.Type, src.Type)
	}
	if !geom.WholeExtent(src.Dims).Contains(srcExt) || !geom.WholeExtent(dst.Dims).Contains(dstExt) {
		return fmt.Errorf("%w: copy extent out of bounds", errs.ErrInvalidRange)
	}

	elem := src.Type.Size()
	rowBytes := srcExt.Dims.X * elem
	for z := 0; z < srcExt.Dims.Z; z++ {
		for y := 0; y < srcExt.Dims.Y; y++ {
			so := src.index(srcExt.From.Add(geom.V3{Y: y, Z: z})) * elem
			do := dst.index(dstExt.From.Add(geom.V3{Y: y, Z: z})) * elem
			copy(dst.Buf[do:do+rowBytes], src.Buf[so:so+rowBytes])
		}
	}

	return nil
}
