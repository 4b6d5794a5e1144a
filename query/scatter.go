package query

import (
	"fmt"

	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/format"
	"github.com/arloliu/oceanq/geom"
	"github.com/arloliu/oceanq/internal/pool"
	"github.com/arloliu/oceanq/volume"
)

// runGroup performs one group's covering decode and scatters the result
// into every member's output slot.
func runGroup(codec Codec, dir string, g *group, queries []Query, outputs []Output) error {
	f, err := codec.Open(dir, g.file)
	if err != nil {
		return err
	}
	defer f.Close()

	params := g.params()
	grid, err := f.OutputGrid(params)
	if err != nil {
		return err
	}
	st := f.SampleType()
	if grid.IsEmpty() {
		// The covering extent misses the volume entirely, so every member
		// extent does too: empty grids, no buffers.
		for _, qi := range g.members {
			outputs[qi] = Output{Type: st}
		}

		return nil
	}

	bb := pool.GetDecodeBuffer(int(volume.MinBufSize(grid.Dims, st)))
	defer pool.PutDecodeBuffer(bb)

	decoded, err := f.Decode(params, bb.Bytes())
	if err != nil {
		return err
	}
	covering, err := volume.FromBuffer(bb.Bytes(), decoded.Dims, st)
	if err != nil {
		return err
	}

	for _, qi := range g.members {
		if err := scatterMember(&outputs[qi], &queries[qi], covering, decoded, f.Dims(), st); err != nil {
			return fmt.Errorf("query %d: %w", qi, err)
		}
	}

	return nil
}

// scatterMember copies one member's sub-region out of the covering decode
// and applies the slice collapse where the request was 1-wide but the
// snapped grid is 2-wide.
func scatterMember(out *Output, q *Query, covering volume.Volume, coveringGrid geom.Grid,
	volDims geom.V3, st format.SampleType,
) error {
	requested := q.Extent.OrWhole(volDims)
	grid, err := geom.ComputeGrid(volDims, q.Downsampling, requested)
	if err != nil {
		return err
	}
	if grid.IsEmpty() {
		*out = Output{Type: st}

		return nil
	}

	need := volume.MinBufSize(grid.Dims, st)
	buf := q.Buf
	if buf == nil {
		buf = make([]byte, need)
	} else if int64(len(buf)) < need {
		return fmt.Errorf("%w: output buffer %d bytes, grid needs %d", errs.ErrSizeTooSmall, len(buf), need)
	}

	// The member grid shares the covering grid's stride by construction;
	// its position relative to the covering decode must land inside it.
	rel, err := geom.Relative(grid, coveringGrid)
	if err != nil {
		return err
	}
	dst, err := volume.FromBuffer(buf, grid.Dims, st)
	if err != nil {
		return err
	}
	if err := volume.CopyExtent(&dst, geom.Extent{Dims: grid.Dims}, covering, rel); err != nil {
		return err
	}

	// Collapse slice axes from highest to lowest so an earlier collapse
	// cannot shift the indices of a later one.
	vol := dst
	for d := geom.NumAxes - 1; d >= 0; d-- {
		if requested.Dims.Axis(d) != 1 || grid.Dims.Axis(d) != 2 {
			continue
		}
		lo, hi := grid.From.Axis(d), grid.Last().Axis(d)
		weight := float64(requested.From.Axis(d)-lo) / float64(hi-lo)
		vol, err = volume.Collapse(vol, d, weight)
		if err != nil {
			return err
		}
		// The caller observes the requested slice position, not the
		// 2-sample bracket.
		grid.From = grid.From.WithAxis(d, requested.From.Axis(d))
		grid.Dims = grid.Dims.WithAxis(d, 1)
	}
	if &vol.Buf[0] != &buf[0] {
		// One or more collapses allocated a reduced volume; move it into
		// the member buffer so caller-provided storage is honored.
		copy(buf, vol.Buf)
	}

	*out = Output{Grid: grid, Buf: buf, Type: st}

	return nil
}
