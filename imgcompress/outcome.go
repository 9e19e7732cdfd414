package imgcompress

// Kind names the variant of an [Outcome].
type Kind int

const (
	// Compressed: strictly smaller than the original and under the ceiling.
	Compressed Kind = iota
	// NoImprovement: the re-encoded image is not smaller than the original.
	NoImprovement
	// StillTooLarge: smaller than the original, but at or over the ceiling.
	StillTooLarge
	// UnsupportedFormat: recognized, but not compressed (GIF).
	UnsupportedFormat
	DecodeFailed
	EncodeFailed
	// Cancelled: the context expired before the pipeline finished.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case Compressed:
		return "compressed"
	case NoImprovement:
		return "no-improvement"
	case StillTooLarge:
		return "still-too-large"
	case UnsupportedFormat:
		return "unsupported-format"
	case DecodeFailed:
		return "decode-failed"
	case EncodeFailed:
		return "encode-failed"
	case Cancelled:
		return "cancelled"
	}
	return "invalid"
}

// Outcome is the single result of one compression. Data is set only when Kind is [Compressed];
// Size is the encoded size whenever an encoding was produced; Err is set for the failure kinds.
type Outcome struct {
	Kind         Kind
	Format       Format
	Data         []byte
	Size         int
	OriginalSize int
	Err          error
}

// OK reports whether the outcome carries a compressed image.
func (o Outcome) OK() bool {
	return o.Kind == Compressed
}

// Failed reports whether the pipeline stopped before classification.
func (o Outcome) Failed() bool {
	switch o.Kind {
	case UnsupportedFormat, DecodeFailed, EncodeFailed, Cancelled:
		return true
	}
	return false
}

// Classify compares the encoded output against the original size and the ceiling.
// “Smaller & under the ceiling” is checked first: an output can be smaller than the original
// and still too large, and the two must not be conflated.
func Classify(out []byte, originalSize, ceiling int) Outcome {
	size := len(out)
	switch {
	case size < ceiling && size < originalSize:
		return Outcome{Kind: Compressed, Data: out, Size: size, OriginalSize: originalSize}
	case size >= originalSize:
		return Outcome{Kind: NoImprovement, Size: size, OriginalSize: originalSize}
	default:
		return Outcome{Kind: StillTooLarge, Size: size, OriginalSize: originalSize}
	}
}

func failed(kind Kind, f Format, originalSize int, err error) Outcome {
	return Outcome{Kind: kind, Format: f, OriginalSize: originalSize, Err: err}
}
