package compress

// ZstdCompressor provides Zstandard compression for brick level payloads.
//
// Zstd gives the best ratio of the supported algorithms and is the default
// for archival datasets where files are written once and decoded many
// times. Two implementations exist: a cgo binding (valyala/gozstd) used
// when cgo is available, and a pure-Go fallback (klauspost/compress/zstd).
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
