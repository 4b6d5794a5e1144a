package query

import (
	"fmt"

	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/format"
	"github.com/arloliu/oceanq/geom"
)

// DecodeParams bundles the parameters of one decode operation.
type DecodeParams struct {
	// Extent is the requested region; the empty sentinel means the whole
	// volume.
	Extent geom.Extent
	// Downsampling holds the per-axis factors: keep every 2^k-th sample.
	Downsampling geom.V3
	// Accuracy is the absolute error tolerance, interpreted as if there
	// were no downsampling. 0 requests the finest stored accuracy.
	Accuracy float64
}

// File is one open physical file of the dataset, able to report its
// geometry and decode sub-regions. Implementations must tolerate
// concurrent Decode calls from a single worker only; the orchestrator
// opens one File per decode group.
type File interface {
	// Dims returns the full-resolution volume dimensions.
	Dims() geom.V3
	// SampleType returns the element type of decoded samples.
	SampleType() format.SampleType
	// OutputGrid computes the snapped grid a Decode with the same params
	// will fill.
	OutputGrid(p DecodeParams) (geom.Grid, error)
	// Decode decodes into dst, which must hold the grid's samples.
	Decode(p DecodeParams, dst []byte) (geom.Grid, error)
	// Close releases the file's resources.
	Close() error
}

// Codec opens physical files by identifier. The identifier is treated as
// an opaque string key; its structure (dataset, field, face, depth,
// time-block) is a storage-layer convention handled by Dataset.
type Codec interface {
	Open(dir, name string) (File, error)
}

// Query is one logical request: a space-time region of one physical file
// at a chosen resolution and accuracy.
type Query struct {
	// File identifies the physical file, relative to the batch directory.
	File string
	// Extent is the requested region; the empty sentinel means the whole
	// volume.
	Extent geom.Extent
	// Downsampling holds the per-axis factors: keep every 2^k-th sample.
	Downsampling geom.V3
	// Accuracy is the absolute error tolerance for this request.
	Accuracy float64
	// Buf optionally provides a caller-owned output buffer. It must hold
	// the computed output grid or the query fails with ErrSizeTooSmall;
	// it is never reallocated.
	Buf []byte
}

// validate rejects malformed queries before any decode work is scheduled.
func (q *Query) validate() error {
	if q.File == "" {
		return fmt.Errorf("%w: empty file identifier", errs.ErrInvalidRange)
	}
	if !q.Extent.Valid() {
		return fmt.Errorf("%w: extent dims %v", errs.ErrInvalidRange, q.Extent.Dims)
	}
	if !geom.ValidDownsampling(q.Downsampling) {
		return fmt.Errorf("%w: %v", errs.ErrInvalidDownsampling, q.Downsampling)
	}
	if q.Accuracy < 0 {
		return fmt.Errorf("%w: accuracy %v", errs.ErrInvalidRange, q.Accuracy)
	}

	return nil
}

// Output is the decoded result of one Query: the realized sampling grid
// and a linear sample buffer, in the caller's original query order.
type Output struct {
	// Grid is the realized sampling geometry. After a slice collapse it
	// reports the requested position, never the 2-sample intermediate.
	Grid geom.Grid
	// Buf holds the samples; caller-owned if the query pre-allocated it,
	// allocated by the batch otherwise. Only the first
	// Type.Size() * product(Grid.Dims) bytes are meaningful.
	Buf []byte
	// Type is the element type of the samples.
	Type format.SampleType
}

// Metadata labels one output with the (face, depth, time) coordinates it
// was expanded from. It carries no geometric meaning.
type Metadata struct {
	Face  int
	Depth int
	Time  int
}
