package brick

import "github.com/arloliu/oceanq/geom"

// levelDims returns the sample counts of one resolution level. Level L
// keeps the samples at positions i*2^L per axis; the count is
// ceil((dim-1)/2^L)+1 so the lattice always reaches or passes the last
// full-resolution sample.
func levelDims(dims geom.V3, level int) geom.V3 {
	stride := 1 << level
	f := func(d int) int {
		if d <= 1 {
			return 1
		}

		return (d+stride-2)/stride + 1
	}

	return geom.V3{X: f(dims.X), Y: f(dims.Y), Z: f(dims.Z)}
}

// defaultLevels picks a pyramid depth for a volume: one level per halving
// of the largest axis, capped so tiny volumes still get a single level.
func defaultLevels(dims geom.V3) int {
	maxDim := max(dims.X, max(dims.Y, dims.Z))
	n := 1
	for n < 6 && 1<<n < maxDim {
		n++
	}

	return n
}
