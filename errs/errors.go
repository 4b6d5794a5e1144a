// Package errs defines the sentinel errors shared across oceanq packages.
//
// Callers should use errors.Is to test for these values, since packages wrap
// them with additional context via fmt.Errorf and %w.
package errs

import "errors"

// Query and geometry errors.
var (
	// ErrInvalidRange indicates a malformed requested extent, axis range,
	// or an empty query batch.
	ErrInvalidRange = errors.New("invalid query range")

	// ErrInvalidDownsampling indicates a negative or oversized per-axis
	// downsampling factor.
	ErrInvalidDownsampling = errors.New("invalid downsampling factor")

	// ErrSizeTooSmall indicates a caller-provided output buffer is smaller
	// than the computed output grid requires.
	ErrSizeTooSmall = errors.New("output buffer too small")

	// ErrUnknownDataset indicates a dataset name with no registered descriptor.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrMissingCodec indicates a batch was started without a file codec.
	ErrMissingCodec = errors.New("no codec configured")
)

// Brick file format errors.
var (
	ErrInvalidHeaderSize      = errors.New("invalid brick header size")
	ErrInvalidMagicNumber     = errors.New("invalid brick magic number")
	ErrUnsupportedVersion     = errors.New("unsupported brick format version")
	ErrInvalidSampleType      = errors.New("invalid sample type")
	ErrInvalidCompressionType = errors.New("invalid compression type")
	ErrInvalidLevelIndex      = errors.New("invalid brick level index")
	ErrChecksumMismatch       = errors.New("payload checksum mismatch")
)
