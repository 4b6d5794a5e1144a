package format

type (
	SampleType      uint8
	CompressionType uint8
)

const (
	SampleFloat32 SampleType = 0x1 // SampleFloat32 represents 32-bit IEEE 754 samples.
	SampleFloat64 SampleType = 0x2 // SampleFloat64 represents 64-bit IEEE 754 samples.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// Size returns the number of bytes occupied by one sample of this type,
// or 0 for an unknown type.
func (s SampleType) Size() int {
	switch s {
	case SampleFloat32:
		return 4
	case SampleFloat64:
		return 8
	default:
		return 0
	}
}

func (s SampleType) String() string {
	switch s {
	case SampleFloat32:
		return "Float32"
	case SampleFloat64:
		return "Float64"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
