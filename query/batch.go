package query

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/internal/options"
)

// batchConfig holds the batch execution settings.
type batchConfig struct {
	codec       Codec
	maxParallel int
}

// BatchOption configures a DecodeBatch call.
type BatchOption = options.Option[*batchConfig]

// WithCodec sets the codec used to open physical files. A batch without a
// codec fails with ErrMissingCodec; the root oceanq package wires the brick
// codec in by default.
func WithCodec(c Codec) BatchOption {
	return options.NoError(func(cfg *batchConfig) {
		cfg.codec = c
	})
}

// WithMaxParallel bounds the number of concurrently running decode
// workers. The default is the detected hardware parallelism.
func WithMaxParallel(n int) BatchOption {
	return options.New(func(cfg *batchConfig) error {
		if n < 1 {
			return fmt.Errorf("%w: max parallel %d", errs.ErrInvalidRange, n)
		}
		cfg.maxParallel = n

		return nil
	})
}

// GroupStatus reports the outcome of one coalesced group's decode.
type GroupStatus struct {
	// File is the physical file the group decoded.
	File string
	// Members holds the original query indices served by this group.
	Members []int
	// Err is the group's failure, or nil. When set, the member outputs
	// are left unpopulated.
	Err error
}

// BatchResult carries the per-query outputs and the per-group outcomes of
// one batch.
type BatchResult struct {
	// Outputs has one entry per input query, in the caller's original
	// order. Entries of failed groups are zero values.
	Outputs []Output
	// Groups has one entry per coalesced decode group; every group's
	// outcome is recorded even when others fail.
	Groups []GroupStatus
}

// FirstErr returns the first group error in group order, or nil.
func (r *BatchResult) FirstErr() error {
	for i := range r.Groups {
		if err := r.Groups[i].Err; err != nil {
			return err
		}
	}

	return nil
}

// DecodeBatch decodes a batch of logical queries against the files under
// dir and returns one output per query in the caller's original order.
//
// Queries targeting the same file at the same downsampling are coalesced
// into a single covering decode. Groups run on a bounded worker pool; the
// bound is never exceeded and all groups run to completion even when some
// fail. Geometry and validation errors are returned before any decode
// work starts; decode failures are local to their group, recorded in the
// returned BatchResult, and the first one is also returned as the error.
//
// An empty batch fails immediately with ErrInvalidRange.
func DecodeBatch(dir string, queries []Query, opts ...BatchOption) (*BatchResult, error) {
	cfg := batchConfig{maxParallel: runtime.GOMAXPROCS(0)}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.codec == nil {
		return nil, errs.ErrMissingCodec
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: empty query batch", errs.ErrInvalidRange)
	}
	for i := range queries {
		if err := queries[i].validate(); err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
	}

	groups := coalesce(queries)
	res := &BatchResult{
		Outputs: make([]Output, len(queries)),
		Groups:  make([]GroupStatus, len(groups)),
	}

	// One worker per group. SetLimit makes admission and launch a single
	// step, so the number of in-flight decodes can never overshoot the
	// bound, and Wait is the join barrier for every worker regardless of
	// individual failures. Workers write only the output slots of their
	// own members, which coalesce keeps disjoint across groups.
	var eg errgroup.Group
	eg.SetLimit(cfg.maxParallel)
	for i := range groups {
		g := &groups[i]
		status := &res.Groups[i]
		status.File = g.file
		status.Members = g.members
		eg.Go(func() error {
			status.Err = runGroup(cfg.codec, dir, g, queries, res.Outputs)

			return status.Err
		})
	}
	if err := eg.Wait(); err != nil {
		return res, err
	}

	return res, nil
}
