package volume

import (
	"testing"

	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/format"
	"github.com/arloliu/oceanq/geom"
	"github.com/stretchr/testify/require"
)

// fill writes f(x, y, z) = x + 10y + 100z into every sample.
func fill(v Volume) {
	var p geom.V3
	for p.Z = 0; p.Z < v.Dims.Z; p.Z++ {
		for p.Y = 0; p.Y < v.Dims.Y; p.Y++ {
			for p.X = 0; p.X < v.Dims.X; p.X++ {
				v.Set(p, float64(p.X+10*p.Y+100*p.Z))
			}
		}
	}
}

func TestVolume_AtSet(t *testing.T) {
	for _, st := range []format.SampleType{format.SampleFloat32, format.SampleFloat64} {
		t.Run(st.String(), func(t *testing.T) {
			v := New(geom.V3{X: 4, Y: 3, Z: 2}, st)
			require.Len(t, v.Buf, int(MinBufSize(v.Dims, st)))

			fill(v)
			require.Equal(t, 0.0, v.At(geom.V3{}))
			require.Equal(t, 123.0, v.At(geom.V3{X: 3, Y: 2, Z: 1}))
			require.Equal(t, 111.0, v.At(geom.V3{X: 1, Y: 1, Z: 1}))
		})
	}
}

func TestFromBuffer(t *testing.T) {
	dims := geom.V3{X: 4, Y: 3, Z: 2}

	t.Run("Shares buffer", func(t *testing.T) {
		buf := make([]byte, MinBufSize(dims, format.SampleFloat32))
		v, err := FromBuffer(buf, dims, format.SampleFloat32)
		require.NoError(t, err)

		v.Set(geom.V3{X: 1}, 7)
		got, err := FromBuffer(buf, dims, format.SampleFloat32)
		require.NoError(t, err)
		require.Equal(t, 7.0, got.At(geom.V3{X: 1}))
	})

	t.Run("Too small", func(t *testing.T) {
		buf := make([]byte, MinBufSize(dims, format.SampleFloat32)-1)
		_, err := FromBuffer(buf, dims, format.SampleFloat32)
		require.ErrorIs(t, err, errs.ErrSizeTooSmall)
	})

	t.Run("Bad sample type", func(t *testing.T) {
		_, err := FromBuffer(nil, dims, format.SampleType(0xff))
		require.ErrorIs(t, err, errs.ErrInvalidSampleType)
	})
}

func TestCopyExtent(t *testing.T) {
	src := New(geom.V3{X: 4, Y: 3, Z: 2}, format.SampleFloat32)
	fill(src)

	t.Run("Sub region", func(t *testing.T) {
		dst := New(geom.V3{X: 2, Y: 2, Z: 2}, format.SampleFloat32)
		err := CopyExtent(&dst, geom.WholeExtent(dst.Dims),
			src, geom.NewExtent(geom.V3{X: 1, Y: 1, Z: 0}, geom.V3{X: 2, Y: 2, Z: 2}))
		require.NoError(t, err)

		var p geom.V3
		for p.Z = 0; p.Z < 2; p.Z++ {
			for p.Y = 0; p.Y < 2; p.Y++ {
				for p.X = 0; p.X < 2; p.X++ {
					want := src.At(p.Add(geom.V3{X: 1, Y: 1}))
					require.Equal(t, want, dst.At(p), "at %v", p)
				}
			}
		}
	})

	t.Run("Offset destination", func(t *testing.T) {
		dst := New(geom.V3{X: 4, Y: 4, Z: 2}, format.SampleFloat32)
		err := CopyExtent(&dst, geom.NewExtent(geom.V3{X: 2, Y: 2, Z: 0}, geom.V3{X: 2, Y: 2, Z: 1}),
			src, geom.NewExtent(geom.V3{}, geom.V3{X: 2, Y: 2, Z: 1}))
		require.NoError(t, err)
		require.Equal(t, src.At(geom.V3{X: 1, Y: 1}), dst.At(geom.V3{X: 3, Y: 3}))
		require.Equal(t, 0.0, dst.At(geom.V3{X: 0, Y: 0}))
	})

	t.Run("Dims mismatch", func(t *testing.T) {
		dst := New(geom.V3{X: 2, Y: 2, Z: 2}, format.SampleFloat32)
		err := CopyExtent(&dst, geom.WholeExtent(dst.Dims),
			src, geom.NewExtent(geom.V3{}, geom.V3{X: 3, Y: 2, Z: 2}))
		require.ErrorIs(t, err, errs.ErrInvalidRange)
	})

	t.Run("Out of bounds", func(t *testing.T) {
		dst := New(geom.V3{X: 2, Y: 2, Z: 2}, format.SampleFloat32)
		err := CopyExtent(&dst, geom.WholeExtent(dst.Dims),
			src, geom.NewExtent(geom.V3{X: 3, Y: 2, Z: 1}, geom.V3{X: 2, Y: 2, Z: 2}))
		require.ErrorIs(t, err, errs.ErrInvalidRange)
	})

	t.Run("Type mismatch", func(t *testing.T) {
		dst := New(geom.V3{X: 2, Y: 2, Z: 2}, format.SampleFloat64)
		err := CopyExtent(&dst, geom.WholeExtent(dst.Dims),
			src, geom.NewExtent(geom.V3{}, geom.V3{X: 2, Y: 2, Z: 2}))
		require.ErrorIs(t, err, errs.ErrInvalidSampleType)
	})

	t.Run("Empty copy", func(t *testing.T) {
		dst := New(geom.V3{X: 2, Y: 2, Z: 2}, format.SampleFloat32)
		err := CopyExtent(&dst, geom.Extent{}, src, geom.Extent{})
		require.NoError(t, err)
	})
}
