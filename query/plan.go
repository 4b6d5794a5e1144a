package query

import (
	"fmt"

	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/geom"
)

// Range is a half-open [Begin, End) interval of integer coordinates.
type Range struct {
	Begin int
	End   int
}

// Len returns the number of coordinates in the range.
func (r Range) Len() int {
	return r.End - r.Begin
}

// valid reports whether the range is non-empty with a non-negative begin.
func (r Range) valid() bool {
	return r.Begin >= 0 && r.Begin < r.End
}

// SliceType selects the orientation of a face slice.
type SliceType uint8

const (
	// AlongX slices across the X axis: the full X range at one Y position.
	AlongX SliceType = iota
	// AlongY slices across the Y axis: the full Y range at one X position.
	AlongY
	// RotatedAlongX is an AlongX slice addressed in the unrotated frame of
	// a transposed face.
	RotatedAlongX
	// RotatedAlongY is an AlongY slice addressed in the unrotated frame of
	// a transposed face.
	RotatedAlongY
)

// SpatialRange selects a rectangular X/Y region of one face.
type SpatialRange struct {
	Face int
	X    Range
	Y    Range
}

// Plan describes a multi-face, multi-depth, multi-time query and expands
// it into the per-file logical queries the batch layer consumes.
//
// Outputs are laid out by the configured Order: with N spatial ranges, D
// depths and T times, output index face*faceStride + depth*depthStride +
// time*timeStride addresses one (face, depth, time) record.
type Plan struct {
	dataset      Dataset
	spatial      []SpatialRange
	timeRange    Range
	depthRange   Range
	order        geom.Order
	downsampling geom.V3
	accuracy     float64
}

// NewPlan creates an empty plan against a dataset. The default order is
// DepthFaceTime and the default accuracy and downsampling request full
// fidelity.
func NewPlan(dataset Dataset) *Plan {
	return &Plan{
		dataset: dataset,
		order:   geom.DepthFaceTime,
	}
}

// SetTimeRange selects the half-open time step range [begin, end).
func (p *Plan) SetTimeRange(begin, end int) {
	p.timeRange = Range{Begin: begin, End: end}
}

// SetDepthRange selects the half-open depth level range [begin, end).
func (p *Plan) SetDepthRange(begin, end int) {
	p.depthRange = Range{Begin: begin, End: end}
}

// SetOrder sets the output record layout.
func (p *Plan) SetOrder(order geom.Order) {
	p.order = order
}

// SetDownsampling sets the per-axis downsampling factors for X, Y, and
// time.
func (p *Plan) SetDownsampling(x, y, t int) {
	p.downsampling = geom.V3{X: x, Y: y, Z: t}
}

// SetAccuracy sets the absolute error tolerance passed to the codec.
func (p *Plan) SetAccuracy(accuracy float64) {
	p.accuracy = accuracy
}

// AddSpatialRange selects the region [xBegin, xEnd) x [yBegin, yEnd) of a
// face.
func (p *Plan) AddSpatialRange(face, xBegin, xEnd, yBegin, yEnd int) {
	p.spatial = append(p.spatial, SpatialRange{
		Face: face,
		X:    Range{Begin: xBegin, End: xEnd},
		Y:    Range{Begin: yBegin, End: yEnd},
	})
}

// AddFace selects the whole spatial region of a face.
func (p *Plan) AddFace(face int) error {
	if face < 0 || face >= p.dataset.NumFaces() {
		return fmt.Errorf("%w: face %d of %d", errs.ErrInvalidRange, face, p.dataset.NumFaces())
	}
	dims := p.dataset.FaceDims[face]
	p.AddSpatialRange(face, 0, dims.X, 0, dims.Y)

	return nil
}

// AddFaceSlice selects a 1-wide slice of a face. Rotated slice types
// address transposed faces in the unrotated frame: a RotatedAlongX slice
// at position y becomes an AlongY slice at X = dims.X - y.
func (p *Plan) AddFaceSlice(face int, sliceType SliceType, position int) error {
	if face < 0 || face >= p.dataset.NumFaces() {
		return fmt.Errorf("%w: face %d of %d", errs.ErrInvalidRange, face, p.dataset.NumFaces())
	}
	dims := p.dataset.FaceDims[face]
	switch sliceType {
	case AlongX:
		p.AddSpatialRange(face, 0, dims.X, position, position+1)
	case AlongY:
		p.AddSpatialRange(face, position, position+1, 0, dims.Y)
	case RotatedAlongX:
		return p.AddFaceSlice(face, AlongY, dims.X-position)
	case RotatedAlongY:
		return p.AddFaceSlice(face, AlongX, position)
	default:
		return fmt.Errorf("%w: slice type %d", errs.ErrInvalidRange, sliceType)
	}

	return nil
}

// Validate checks every range of the plan against the dataset geometry.
func (p *Plan) Validate() error {
	if len(p.spatial) == 0 {
		return fmt.Errorf("%w: no spatial ranges", errs.ErrInvalidRange)
	}
	for i, r := range p.spatial {
		if r.Face < 0 || r.Face >= p.dataset.NumFaces() {
			return fmt.Errorf("%w: spatial range %d: face %d of %d", errs.ErrInvalidRange, i, r.Face, p.dataset.NumFaces())
		}
		dims := p.dataset.FaceDims[r.Face]
		if !r.X.valid() || r.X.End > dims.X {
			return fmt.Errorf("%w: spatial range %d: X range [%d, %d) of %d", errs.ErrInvalidRange, i, r.X.Begin, r.X.End, dims.X)
		}
		if !r.Y.valid() || r.Y.End > dims.Y {
			return fmt.Errorf("%w: spatial range %d: Y range [%d, %d) of %d", errs.ErrInvalidRange, i, r.Y.Begin, r.Y.End, dims.Y)
		}
	}
	if !p.timeRange.valid() {
		return fmt.Errorf("%w: time range [%d, %d)", errs.ErrInvalidRange, p.timeRange.Begin, p.timeRange.End)
	}
	if !p.depthRange.valid() || p.depthRange.End > p.dataset.NumDepths {
		return fmt.Errorf("%w: depth range [%d, %d) of %d", errs.ErrInvalidRange, p.depthRange.Begin, p.depthRange.End, p.dataset.NumDepths)
	}
	if !geom.ValidDownsampling(p.downsampling) {
		return fmt.Errorf("%w: %v", errs.ErrInvalidDownsampling, p.downsampling)
	}
	if p.accuracy < 0 {
		return fmt.Errorf("%w: accuracy %v", errs.ErrInvalidRange, p.accuracy)
	}

	return nil
}

// Queries expands the plan into one query and one metadata record per
// (face, depth, time) combination, laid out by the plan's order.
//
// Each query's extent addresses the time step local to its file's time
// block, and transposed faces swap the X/Y downsampling factors so the
// caller-facing factors keep their geographic meaning.
func (p *Plan) Queries() ([]Query, []Metadata, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	numFaces := len(p.spatial)
	numDepths := p.depthRange.Len()
	numTimes := p.timeRange.Len()
	strides, err := geom.ComputeStrides(numFaces, numDepths, numTimes, p.order)
	if err != nil {
		return nil, nil, err
	}

	queries := make([]Query, numFaces*numDepths*numTimes)
	meta := make([]Metadata, len(queries))
	for di := 0; di < numDepths; di++ {
		depth := p.depthRange.Begin + di
		for fi, r := range p.spatial {
			for ti := 0; ti < numTimes; ti++ {
				time := p.timeRange.Begin + ti
				file, err := p.dataset.FileName(r.Face, depth, time)
				if err != nil {
					return nil, nil, err
				}

				localTime := time % p.dataset.TimeGroup
				downsampling := p.downsampling
				if p.dataset.IsRotated(r.Face) {
					downsampling.X, downsampling.Y = downsampling.Y, downsampling.X
				}

				idx := strides.Index(fi, di, ti)
				queries[idx] = Query{
					File: file,
					Extent: geom.NewExtent(
						geom.V3{X: r.X.Begin, Y: r.Y.Begin, Z: localTime},
						geom.V3{X: r.X.Len(), Y: r.Y.Len(), Z: 1},
					),
					Downsampling: downsampling,
					Accuracy:     p.accuracy,
				}
				meta[idx] = Metadata{Face: r.Face, Depth: depth, Time: time}
			}
		}
	}

	return queries, meta, nil
}
