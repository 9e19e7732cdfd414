package imgcompress

import (
	"errors"
	"fmt"
)

// ErrUnrecognizedFormat is returned by [Detect] when no known signature matches.
// It is a [*DecodeError], so callers may treat it as any other decode failure.
var ErrUnrecognizedFormat error = &DecodeError{Reason: "format unrecognized"}

// ErrUnsupportedFormat is returned for formats that are recognized but intentionally not compressed.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// DecodeError reports bytes that matched a known signature (or none) but could not be parsed.
type DecodeError struct {
	Format Format
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a codec that rejected the pixel buffer or failed internally.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("could not encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func unsupported(f Format) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}
