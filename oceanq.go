// Package oceanq queries arbitrary space-time-depth sub-regions of large
// ocean-simulation datasets that are partitioned across many files, one
// file per (face, depth, time-block), each stored in the multi-resolution,
// error-bounded brick format.
//
// A single request specifies a spatial/temporal extent, per-axis
// downsampling factors, and an accuracy tolerance. The library translates
// batches of such requests into the minimum set of physical decodes, runs
// them with bounded concurrency, and scatters the decoded samples into
// per-request output buffers with exact geometry.
//
// # Basic Usage
//
// Querying a vertical slice across faces of the llc2160 dataset:
//
//	dataset, _ := query.LookupDataset("llc2160")
//	plan := query.NewPlan(dataset)
//	plan.SetDepthRange(0, 90)
//	plan.SetTimeRange(16, 17)
//	plan.SetOrder(geom.TimeDepthFace)
//	plan.SetDownsampling(0, 2, 2)
//	plan.SetAccuracy(0.01)
//	for _, face := range []int{0, 1, 3, 4} {
//	    plan.AddFaceSlice(face, query.AlongX, 3000)
//	}
//
//	res, meta, err := oceanq.ExecutePlan("/data/llc2160", plan)
//	if err != nil {
//	    return err
//	}
//	for i, out := range res.Outputs {
//	    fmt.Printf("face=%d depth=%d: %d samples\n",
//	        meta[i].Face, meta[i].Depth, out.Grid.NumSamples())
//	}
//
// Individual queries can also be issued directly through
// oceanq.DecodeBatch, and datasets with other geometries register through
// query.RegisterDataset.
//
// # Package Structure
//
// This package provides convenient top-level wrappers that bind the query
// layer to the brick file codec. For fine-grained control, or to supply a
// different codec, use the query package directly.
package oceanq

import (
	"github.com/arloliu/oceanq/brick"
	"github.com/arloliu/oceanq/format"
	"github.com/arloliu/oceanq/geom"
	"github.com/arloliu/oceanq/query"
)

// brickCodec adapts the brick package to the query layer's codec
// interfaces.
type brickCodec struct{}

func (brickCodec) Open(dir, name string) (query.File, error) {
	r, err := brick.Open(dir, name)
	if err != nil {
		return nil, err
	}

	return brickFile{r: r}, nil
}

type brickFile struct {
	r *brick.Reader
}

func (f brickFile) Dims() geom.V3 {
	return f.r.Dims()
}

func (f brickFile) SampleType() format.SampleType {
	return f.r.SampleType()
}

func (f brickFile) OutputGrid(p query.DecodeParams) (geom.Grid, error) {
	return f.r.OutputGrid(p.Extent, p.Downsampling)
}

func (f brickFile) Decode(p query.DecodeParams, dst []byte) (geom.Grid, error) {
	return f.r.Decode(p.Extent, p.Downsampling, p.Accuracy, dst)
}

func (f brickFile) Close() error {
	return f.r.Close()
}

// Codec returns the query codec backed by the brick file format.
func Codec() query.Codec {
	return brickCodec{}
}

// DecodeBatch decodes a batch of logical queries against the brick files
// under dir, returning one output per query in the caller's original
// order. See query.DecodeBatch for the full contract.
func DecodeBatch(dir string, queries []query.Query, opts ...query.BatchOption) (*query.BatchResult, error) {
	opts = append([]query.BatchOption{query.WithCodec(Codec())}, opts...)

	return query.DecodeBatch(dir, queries, opts...)
}

// ExecutePlan expands a plan into its per-file queries and decodes them
// against the brick files under dir. The returned metadata labels each
// output with its (face, depth, time) coordinates, in the same order as
// the outputs.
func ExecutePlan(dir string, plan *query.Plan, opts ...query.BatchOption) (*query.BatchResult, []query.Metadata, error) {
	queries, meta, err := plan.Queries()
	if err != nil {
		return nil, nil, err
	}

	res, err := DecodeBatch(dir, queries, opts...)
	if err != nil {
		return res, meta, err
	}

	return res, meta, nil
}
