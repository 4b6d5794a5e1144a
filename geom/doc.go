// Package geom provides the integer index-space arithmetic used by the
// query layer: extents (axis-aligned boxes), sampling grids produced by
// snapping an extent to a power-of-two downsampled lattice, and flat-index
// strides for the six (face, depth, time) output orderings.
//
// All types are plain values with no hidden state; every function is pure
// and safe for concurrent use.
package geom
