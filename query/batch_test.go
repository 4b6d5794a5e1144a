package query

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/format"
	"github.com/arloliu/oceanq/geom"
	"github.com/arloliu/oceanq/volume"
	"github.com/stretchr/testify/require"
)

// fakeField is the synthetic sample value at an absolute grid position.
// It is linear per axis, so slice collapses reproduce it exactly.
func fakeField(p geom.V3) float64 {
	return float64(p.X + 10*p.Y + 100*p.Z)
}

// fakeCodec serves every file name as one in-memory volume of fixed dims,
// recording opens and the peak number of concurrent decodes.
type fakeCodec struct {
	dims  geom.V3
	st    format.SampleType
	delay time.Duration
	fail  map[string]error

	mu       sync.Mutex
	opens    []string
	inflight int
	maxSeen  int
}

func newFakeCodec(dims geom.V3) *fakeCodec {
	return &fakeCodec{dims: dims, st: format.SampleFloat64}
}

func (c *fakeCodec) Open(dir, name string) (File, error) {
	c.mu.Lock()
	c.opens = append(c.opens, name)
	c.mu.Unlock()
	if err := c.fail[name]; err != nil {
		return nil, err
	}

	return &fakeFile{c: c}, nil
}

func (c *fakeCodec) numOpens() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.opens)
}

type fakeFile struct {
	c *fakeCodec
}

func (f *fakeFile) Dims() geom.V3                 { return f.c.dims }
func (f *fakeFile) SampleType() format.SampleType { return f.c.st }
func (f *fakeFile) Close() error                  { return nil }

func (f *fakeFile) OutputGrid(p DecodeParams) (geom.Grid, error) {
	return geom.ComputeGrid(f.c.dims, p.Downsampling, p.Extent.OrWhole(f.c.dims))
}

func (f *fakeFile) Decode(p DecodeParams, dst []byte) (geom.Grid, error) {
	c := f.c
	c.mu.Lock()
	c.inflight++
	if c.inflight > c.maxSeen {
		c.maxSeen = c.inflight
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inflight--
		c.mu.Unlock()
	}()
	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	grid, err := f.OutputGrid(p)
	if err != nil || grid.IsEmpty() {
		return grid, err
	}
	need := volume.MinBufSize(grid.Dims, c.st)
	out, err := volume.FromBuffer(dst[:need], grid.Dims, c.st)
	if err != nil {
		return geom.Grid{}, err
	}
	var q geom.V3
	for q.Z = 0; q.Z < grid.Dims.Z; q.Z++ {
		for q.Y = 0; q.Y < grid.Dims.Y; q.Y++ {
			for q.X = 0; q.X < grid.Dims.X; q.X++ {
				pos := geom.V3{
					X: grid.From.X + q.X*grid.Stride.X,
					Y: grid.From.Y + q.Y*grid.Stride.Y,
					Z: grid.From.Z + q.Z*grid.Stride.Z,
				}
				out.Set(q, fakeField(pos))
			}
		}
	}

	return grid, nil
}

// checkOutput verifies every sample of an output against fakeField.
func checkOutput(t *testing.T, out Output) {
	t.Helper()
	vol, err := volume.FromBuffer(out.Buf, out.Grid.Dims, out.Type)
	require.NoError(t, err)
	var q geom.V3
	for q.Z = 0; q.Z < out.Grid.Dims.Z; q.Z++ {
		for q.Y = 0; q.Y < out.Grid.Dims.Y; q.Y++ {
			for q.X = 0; q.X < out.Grid.Dims.X; q.X++ {
				pos := geom.V3{
					X: out.Grid.From.X + q.X*out.Grid.Stride.X,
					Y: out.Grid.From.Y + q.Y*out.Grid.Stride.Y,
					Z: out.Grid.From.Z + q.Z*out.Grid.Stride.Z,
				}
				require.Equal(t, fakeField(pos), vol.At(q), "at %v", q)
			}
		}
	}
}

func TestDecodeBatch_SingleQuery(t *testing.T) {
	codec := newFakeCodec(geom.V3{X: 8, Y: 6, Z: 4})
	queries := []Query{{
		File:   "a",
		Extent: geom.NewExtent(geom.V3{X: 1, Y: 1, Z: 1}, geom.V3{X: 3, Y: 2, Z: 2}),
	}}

	res, err := DecodeBatch("", queries, WithCodec(codec))
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)
	require.NoError(t, res.FirstErr())

	out := res.Outputs[0]
	require.Equal(t, queries[0].Extent.From, out.Grid.From)
	require.Equal(t, queries[0].Extent.Dims, out.Grid.Dims)
	checkOutput(t, out)
}

func TestDecodeBatch_CoalescesSameFile(t *testing.T) {
	codec := newFakeCodec(geom.V3{X: 8, Y: 6, Z: 4})
	queries := []Query{
		{File: "a", Extent: geom.NewExtent(geom.V3{X: 0}, geom.V3{X: 2, Y: 2, Z: 1})},
		{File: "a", Extent: geom.NewExtent(geom.V3{X: 4}, geom.V3{X: 2, Y: 2, Z: 1})},
		{File: "a", Extent: geom.NewExtent(geom.V3{X: 2, Y: 2}, geom.V3{X: 2, Y: 2, Z: 1})},
	}

	res, err := DecodeBatch("", queries, WithCodec(codec))
	require.NoError(t, err)
	require.Equal(t, 1, codec.numOpens(), "same-file queries share one decode")
	require.Len(t, res.Groups, 1)
	for i, out := range res.Outputs {
		require.Equal(t, queries[i].Extent.From, out.Grid.From, "query %d", i)
		require.Equal(t, queries[i].Extent.Dims, out.Grid.Dims, "query %d", i)
		checkOutput(t, out)
	}
}

func TestDecodeBatch_OutputsKeepSubmissionOrder(t *testing.T) {
	codec := newFakeCodec(geom.V3{X: 8, Y: 6, Z: 4})
	queries := []Query{
		{File: "b", Extent: geom.NewExtent(geom.V3{X: 1}, geom.V3{X: 1, Y: 1, Z: 1})},
		{File: "a", Extent: geom.NewExtent(geom.V3{X: 2}, geom.V3{X: 1, Y: 1, Z: 1})},
		{File: "b", Extent: geom.NewExtent(geom.V3{X: 3}, geom.V3{X: 1, Y: 1, Z: 1})},
		{File: "a", Extent: geom.NewExtent(geom.V3{X: 4}, geom.V3{X: 1, Y: 1, Z: 1})},
	}

	res, err := DecodeBatch("", queries, WithCodec(codec))
	require.NoError(t, err)
	require.Equal(t, 2, codec.numOpens())
	for i, out := range res.Outputs {
		require.Equal(t, queries[i].Extent.From, out.Grid.From,
			"output %d must correspond to input query %d", i, i)
		checkOutput(t, out)
	}
}

func TestDecodeBatch_ConcurrencyBound(t *testing.T) {
	codec := newFakeCodec(geom.V3{X: 4, Y: 4, Z: 4})
	codec.delay = 5 * time.Millisecond

	const maxParallel = 2
	var queries []Query
	for _, f := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		queries = append(queries, Query{File: f})
	}

	res, err := DecodeBatch("", queries, WithCodec(codec), WithMaxParallel(maxParallel))
	require.NoError(t, err)
	require.LessOrEqual(t, codec.maxSeen, maxParallel,
		"in-flight decodes must never exceed the bound")
	for _, out := range res.Outputs {
		require.NotNil(t, out.Buf)
	}
}

func TestDecodeBatch_GroupFailureIsIsolated(t *testing.T) {
	errBroken := errors.New("broken file")
	codec := newFakeCodec(geom.V3{X: 4, Y: 4, Z: 4})
	codec.fail = map[string]error{"bad": errBroken}

	queries := []Query{
		{File: "good"},
		{File: "bad"},
	}

	res, err := DecodeBatch("", queries, WithCodec(codec))
	require.ErrorIs(t, err, errBroken)
	require.NotNil(t, res, "partial results survive a group failure")
	require.ErrorIs(t, res.FirstErr(), errBroken)

	for _, g := range res.Groups {
		if g.File == "bad" {
			require.ErrorIs(t, g.Err, errBroken)
			require.Nil(t, res.Outputs[g.Members[0]].Buf, "failed group outputs stay unpopulated")
		} else {
			require.NoError(t, g.Err)
			checkOutput(t, res.Outputs[g.Members[0]])
		}
	}
}

func TestDecodeBatch_ValidationBeforeWork(t *testing.T) {
	codec := newFakeCodec(geom.V3{X: 4, Y: 4, Z: 4})

	t.Run("Empty batch", func(t *testing.T) {
		_, err := DecodeBatch("", nil, WithCodec(codec))
		require.ErrorIs(t, err, errs.ErrInvalidRange)
	})

	t.Run("Missing codec", func(t *testing.T) {
		_, err := DecodeBatch("", []Query{{File: "a"}})
		require.ErrorIs(t, err, errs.ErrMissingCodec)
	})

	t.Run("Invalid downsampling", func(t *testing.T) {
		_, err := DecodeBatch("", []Query{{File: "a", Downsampling: geom.V3{X: -1}}}, WithCodec(codec))
		require.ErrorIs(t, err, errs.ErrInvalidDownsampling)
		require.Zero(t, codec.numOpens(), "no file touched on validation failure")
	})

	t.Run("Empty file name", func(t *testing.T) {
		_, err := DecodeBatch("", []Query{{}}, WithCodec(codec))
		require.ErrorIs(t, err, errs.ErrInvalidRange)
	})

	t.Run("Bad max parallel", func(t *testing.T) {
		_, err := DecodeBatch("", []Query{{File: "a"}}, WithCodec(codec), WithMaxParallel(0))
		require.ErrorIs(t, err, errs.ErrInvalidRange)
	})
}

func TestDecodeBatch_CallerBuffer(t *testing.T) {
	dims := geom.V3{X: 8, Y: 6, Z: 4}
	codec := newFakeCodec(dims)
	ext := geom.NewExtent(geom.V3{X: 1, Y: 1, Z: 1}, geom.V3{X: 2, Y: 2, Z: 2})

	t.Run("Reused when large enough", func(t *testing.T) {
		buf := make([]byte, volume.MinBufSize(ext.Dims, format.SampleFloat64))
		res, err := DecodeBatch("", []Query{{File: "a", Extent: ext, Buf: buf}}, WithCodec(codec))
		require.NoError(t, err)
		require.Same(t, &buf[0], &res.Outputs[0].Buf[0], "caller buffer must be used in place")
		checkOutput(t, res.Outputs[0])
	})

	t.Run("Too small fails the group", func(t *testing.T) {
		res, err := DecodeBatch("", []Query{{File: "a", Extent: ext, Buf: make([]byte, 8)}}, WithCodec(codec))
		require.ErrorIs(t, err, errs.ErrSizeTooSmall)
		require.ErrorIs(t, res.Groups[0].Err, errs.ErrSizeTooSmall)
	})
}

func TestDecodeBatch_WholeVolume(t *testing.T) {
	dims := geom.V3{X: 8, Y: 6, Z: 4}
	codec := newFakeCodec(dims)

	res, err := DecodeBatch("", []Query{{File: "a"}}, WithCodec(codec))
	require.NoError(t, err)
	require.Equal(t, dims, res.Outputs[0].Grid.Dims)
	checkOutput(t, res.Outputs[0])
}

func TestDecodeBatch_DisjointExtent(t *testing.T) {
	codec := newFakeCodec(geom.V3{X: 8, Y: 6, Z: 4})
	ext := geom.NewExtent(geom.V3{X: 100}, geom.V3{X: 2, Y: 2, Z: 2})

	res, err := DecodeBatch("", []Query{{File: "a", Extent: ext}}, WithCodec(codec))
	require.NoError(t, err)
	require.True(t, res.Outputs[0].Grid.IsEmpty())
	require.Nil(t, res.Outputs[0].Buf)
}

func TestDecodeBatch_SliceCollapse(t *testing.T) {
	// A 1-wide request at an off-lattice X snaps to a 2-sample bracket and
	// collapses back to the requested position. fakeField is linear in X,
	// so the interpolated samples are exact.
	dims := geom.V3{X: 8, Y: 6, Z: 4}
	codec := newFakeCodec(dims)
	queries := []Query{{
		File:         "a",
		Extent:       geom.NewExtent(geom.V3{X: 3}, geom.V3{X: 1, Y: 6, Z: 4}),
		Downsampling: geom.V3{X: 1},
	}}

	res, err := DecodeBatch("", queries, WithCodec(codec))
	require.NoError(t, err)

	out := res.Outputs[0]
	require.Equal(t, 3, out.Grid.From.X, "grid reports the requested position, not the bracket")
	require.Equal(t, 1, out.Grid.Dims.X)
	require.Equal(t, geom.V3{X: 1, Y: 6, Z: 4}, out.Grid.Dims)
	checkOutput(t, out)
}

func TestDecodeBatch_SliceCollapseIntoCallerBuffer(t *testing.T) {
	dims := geom.V3{X: 8, Y: 6, Z: 4}
	codec := newFakeCodec(dims)
	ext := geom.NewExtent(geom.V3{X: 3}, geom.V3{X: 1, Y: 6, Z: 4})

	// Sized for the 2-wide bracket the snapped grid needs before collapse.
	buf := make([]byte, volume.MinBufSize(geom.V3{X: 2, Y: 6, Z: 4}, format.SampleFloat64))
	res, err := DecodeBatch("", []Query{{
		File:         "a",
		Extent:       ext,
		Downsampling: geom.V3{X: 1},
		Buf:          buf,
	}}, WithCodec(codec))
	require.NoError(t, err)

	out := res.Outputs[0]
	require.Same(t, &buf[0], &out.Buf[0])
	require.Equal(t, 1, out.Grid.Dims.X)
	checkOutput(t, out)
}
