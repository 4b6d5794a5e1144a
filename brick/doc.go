// Package brick implements the error-bounded, multi-resolution file format
// that stores one (face, depth, time-block) of an ocean dataset.
//
// A brick file holds a pyramid of resolution levels. Level 0 is the full
// volume; each subsequent level keeps every other sample along every axis,
// so level L stores the samples at positions i*2^L. The coarsest sample on
// each axis is clamped to the volume edge, which means a query grid snapped
// outward past the last sample is always servable. Each level payload is
// quantized with a uniform scalar step derived from the encoding tolerance
// (step 0 stores raw IEEE bits), compressed with one of the codecs from the
// compress package, and guarded by an xxHash64 checksum.
//
// File layout:
//
//	header (40 bytes) | level index (32 bytes per level) | level payloads
//
// The query layer consumes readers through its own codec interfaces; brick
// is the production implementation but carries no dependency on the query
// package.
package brick
