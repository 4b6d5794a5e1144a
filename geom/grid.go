package geom

import (
	"fmt"

	"github.com/arloliu/oceanq/errs"
)

// MaxDownsamplingFactor bounds the per-axis downsampling factor so strides
// stay well inside the int range.
const MaxDownsamplingFactor = 30

// Grid is a concrete sampling pattern realizing an extent under a given
// downsampling factor: a first corner, per-axis sample counts, and per-axis
// sample spacings (strides) in source index space.
//
// Strides are always powers of two (1 << factor), and
// last = first + (dims-1)*stride holds per axis.
type Grid struct {
	From   V3
	Dims   V3
	Stride V3
}

// Last returns the inclusive last sample position, From + (Dims-1)*Stride
// per axis. Meaningless for empty grids.
func (g Grid) Last() V3 {
	return V3{
		X: g.From.X + (g.Dims.X-1)*g.Stride.X,
		Y: g.From.Y + (g.Dims.Y-1)*g.Stride.Y,
		Z: g.From.Z + (g.Dims.Z-1)*g.Stride.Z,
	}
}

// IsEmpty reports whether the grid holds no samples.
func (g Grid) IsEmpty() bool {
	return g.Dims.X <= 0 || g.Dims.Y <= 0 || g.Dims.Z <= 0
}

// NumSamples returns the total sample count, 0 for empty grids.
func (g Grid) NumSamples() int64 {
	if g.IsEmpty() {
		return 0
	}

	return g.Dims.Prod()
}

// ValidDownsampling reports whether every component of a downsampling
// factor vector lies in [0, MaxDownsamplingFactor].
func ValidDownsampling(downsampling V3) bool {
	for d := 0; d < NumAxes; d++ {
		f := downsampling.Axis(d)
		if f < 0 || f > MaxDownsamplingFactor {
			return false
		}
	}

	return true
}

// ComputeGrid converts a requested extent plus a per-axis downsampling
// factor vector into the snapped sampling grid for a volume of the given
// dims.
//
// The requested extent is cropped to [0, volDims); if nothing remains the
// returned grid is empty and callers must not allocate a buffer for it.
// Otherwise the cropped extent snaps outward so the coarse lattice fully
// covers it: per axis, the first coordinate moves down to the previous
// multiple of the stride and the last coordinate moves up to the next
// multiple. The snapped region may therefore be larger than requested; a
// 1-wide "slice" request whose position is off-lattice becomes a 2-wide
// bracket, later collapsed by interpolation.
//
// Returns errs.ErrInvalidDownsampling for factors outside
// [0, MaxDownsamplingFactor] and errs.ErrInvalidRange for extents with
// negative dims.
func ComputeGrid(volDims, downsampling V3, ext Extent) (Grid, error) {
	if !ValidDownsampling(downsampling) {
		return Grid{}, fmt.Errorf("%w: %v", errs.ErrInvalidDownsampling, downsampling)
	}
	if !ext.Valid() {
		return Grid{}, fmt.Errorf("%w: negative dims %v", errs.ErrInvalidRange, ext.Dims)
	}

	cropped := Crop(ext, WholeExtent(volDims))
	if cropped.IsEmpty() {
		return Grid{}, nil
	}

	var g Grid
	g.Stride = V3{X: 1 << downsampling.X, Y: 1 << downsampling.Y, Z: 1 << downsampling.Z}
	first := cropped.From
	last := cropped.Last()
	for d := 0; d < NumAxes; d++ {
		stride := g.Stride.Axis(d)
		lo := (first.Axis(d) / stride) * stride
		hi := ((last.Axis(d) + stride - 1) / stride) * stride
		g.From = g.From.WithAxis(d, lo)
		g.Dims = g.Dims.WithAxis(d, (hi-lo)/stride+1)
	}

	return g, nil
}

// Relative expresses an inner grid's coordinates in the sample units of an
// outer grid sharing the same strides. The result's From is the per-axis
// sample offset of inner's first corner inside outer, and its Dims are
// inner's dims.
//
// Both grids must have equal strides and the inner grid must be fully
// contained in the outer one; the coalescer's covering extents guarantee
// this for member grids, so a violation reports errs.ErrInvalidRange.
func Relative(inner, outer Grid) (Extent, error) {
	if inner.IsEmpty() {
		return Extent{}, nil
	}
	if inner.Stride != outer.Stride {
		return Extent{}, fmt.Errorf("%w: stride mismatch %v vs %v", errs.ErrInvalidRange, inner.Stride, outer.Stride)
	}

	var from V3
	for d := 0; d < NumAxes; d++ {
		stride := outer.Stride.Axis(d)
		delta := inner.From.Axis(d) - outer.From.Axis(d)
		if delta < 0 || delta%stride != 0 {
			return Extent{}, fmt.Errorf("%w: grid origin %v not on covering lattice", errs.ErrInvalidRange, inner.From)
		}
		offset := delta / stride
		if offset+inner.Dims.Axis(d) > outer.Dims.Axis(d) {
			return Extent{}, fmt.Errorf("%w: grid exceeds covering grid on axis %d", errs.ErrInvalidRange, d)
		}
		from = from.WithAxis(d, offset)
	}

	return Extent{From: from, Dims: inner.Dims}, nil
}
