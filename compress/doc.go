// Package compress provides compression and decompression codecs for brick
// level payloads.
//
// A brick file stores one payload per resolution level. After quantization,
// payloads are long runs of small integers or raw IEEE bits, and compress
// well with general-purpose algorithms. This package supports:
//   - None: no compression (fastest, largest)
//   - Zstd: best ratio, moderate speed
//   - S2: balanced ratio and speed
//   - LZ4: fast decompression, moderate ratio
//
// Codecs are stateless values; the zstd and lz4 implementations pool their
// encoder/decoder state internally, so all codecs are safe for concurrent
// use by multiple decode workers.
package compress
