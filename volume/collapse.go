package volume

import (
	"fmt"

	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/geom"
)

// Collapse reduces a 2-sample-wide axis of a volume to a single slice by
// linear interpolation.
//
// weight is the fractional offset of the requested position inside the
// 2-sample bracket, measured from the low-side sample: weight 0 returns
// exactly the low-side slab, weight 1 exactly the high-side slab, and
// weight 0.5 their mean. The result is exact only where the field is
// locally linear between the two bracket samples; this is a documented
// accuracy trade-off of slice queries on a downsampled lattice.
//
// The returned volume is newly allocated with the axis dim reduced to 1.
func Collapse(vol Volume, axis int, weight float64) (Volume, error) {
	if axis < 0 || axis >= geom.NumAxes {
		return Volume{}, fmt.Errorf("%w: collapse axis %d", errs.ErrInvalidRange, axis)
	}
	if vol.Dims.Axis(axis) != 2 {
		return Volume{}, fmt.Errorf("%w: collapse needs 2 samples on axis %d, have %d",
			errs.ErrInvalidRange, axis, vol.Dims.Axis(axis))
	}
	if weight < 0 || weight > 1 {
		return Volume{}, fmt.Errorf("%w: collapse weight %v outside [0,1]", errs.ErrInvalidRange, weight)
	}

	out := New(vol.Dims.WithAxis(axis, 1), vol.Type)
	var p geom.V3
	for p.Z = 0; p.Z < out.Dims.Z; p.Z++ {
		for p.Y = 0; p.Y < out.Dims.Y; p.Y++ {
			for p.X = 0; p.X < out.Dims.X; p.X++ {
				lo := vol.At(p)
				hi := vol.At(p.WithAxis(axis, 1))
				out.Set(p, lo*(1-weight)+hi*weight)
			}
		}
	}

	return out, nil
}
