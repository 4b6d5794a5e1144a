// Package query translates logical space-time-depth requests against a
// multi-file ocean dataset into the minimum set of physical decode
// operations, runs them with bounded concurrency, and redistributes the
// decoded samples into per-request output buffers.
//
// A batch of Query values is coalesced into groups of queries that target
// the same physical file; each group triggers one covering decode through a
// Codec, and the covering result is scattered into every member's own
// output buffer with correct geometry, including the interpolation collapse
// of slice queries that snapped to a 2-sample bracket.
//
// On top of the batch layer, Plan expands a declarative description of
// faces, slices, depth and time ranges into the per-file queries, laying
// outputs out in one of the six (face, depth, time) orderings.
//
// The package depends on codecs only through the Codec and File
// interfaces; the brick package provides the production implementation,
// wired in by the root oceanq package.
package query
