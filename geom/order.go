package geom

import (
	"fmt"

	"github.com/arloliu/oceanq/errs"
)

// Order selects the relative layout of (face, depth, time) records in a
// batch output, named from slowest-varying to fastest-varying coordinate.
type Order uint8

const (
	DepthFaceTime Order = iota // time varies fastest, then face, then depth
	DepthTimeFace
	FaceDepthTime
	FaceTimeDepth
	TimeDepthFace
	TimeFaceDepth
)

func (o Order) String() string {
	switch o {
	case DepthFaceTime:
		return "DepthFaceTime"
	case DepthTimeFace:
		return "DepthTimeFace"
	case FaceDepthTime:
		return "FaceDepthTime"
	case FaceTimeDepth:
		return "FaceTimeDepth"
	case TimeDepthFace:
		return "TimeDepthFace"
	case TimeFaceDepth:
		return "TimeFaceDepth"
	default:
		return "Unknown"
	}
}

// Strides holds the flat-index multiplier for each record coordinate.
type Strides struct {
	Face  int
	Depth int
	Time  int
}

// Index returns the flat record index of one (face, depth, time) record.
func (s Strides) Index(face, depth, time int) int {
	return face*s.Face + depth*s.Depth + time*s.Time
}

// ComputeStrides returns the flat-index strides for laying out
// numFaces x numDepths x numTimes records in the given order. The
// fastest-varying coordinate has stride 1, the middle one the fastest
// count, and the slowest the product of the other two counts.
func ComputeStrides(numFaces, numDepths, numTimes int, order Order) (Strides, error) {
	var s Strides
	switch order {
	case DepthFaceTime:
		s.Time, s.Face, s.Depth = 1, numTimes, numFaces*numTimes
	case DepthTimeFace:
		s.Face, s.Time, s.Depth = 1, numFaces, numTimes*numFaces
	case FaceDepthTime:
		s.Time, s.Depth, s.Face = 1, numTimes, numDepths*numTimes
	case FaceTimeDepth:
		s.Depth, s.Time, s.Face = 1, numDepths, numTimes*numDepths
	case TimeDepthFace:
		s.Face, s.Depth, s.Time = 1, numFaces, numDepths*numFaces
	case TimeFaceDepth:
		s.Depth, s.Face, s.Time = 1, numDepths, numFaces*numDepths
	default:
		return Strides{}, fmt.Errorf("%w: unknown order %d", errs.ErrInvalidRange, order)
	}

	return s, nil
}
