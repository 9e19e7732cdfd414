// Package imgcompress re-encodes PNG, JPEG, and WebP images to reduce their size.
//
// A compression runs once, in order: detect the format from the magic bytes, decode the pixels,
// re-encode with the strategy for that format, and classify the result against the original size
// and an upload ceiling. Any failure ends the run; nothing is retried.
package imgcompress

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Compressor runs the compression pipeline. It holds no per-request state and is safe for
// concurrent use.
type Compressor struct {
	opts Options
}

// New returns a Compressor; zero fields in opts take their defaults.
func New(opts Options) *Compressor {
	return &Compressor{opts: opts.withDefaults()}
}

// Options returns the effective options, including defaults.
func (c *Compressor) Options() Options {
	return c.opts
}

// Compress re-encodes data and classifies the result. originalSize is the size declared by the
// caller; when it is not positive, len(data) is used. data is never modified.
//
// The returned Outcome always has exactly one Kind. If ctx ends before the pipeline finishes, the
// Kind is [Cancelled] and no partial output is returned.
func (c *Compressor) Compress(ctx context.Context, data []byte, originalSize int, req Request) Outcome {
	if originalSize <= 0 {
		originalSize = len(data)
	}
	start := time.Now()

	format, err := Detect(data)
	if err != nil {
		return failed(DecodeFailed, format, originalSize, err)
	}
	slog.Debug("format detected", "format", format, "size", originalSize)

	encode, ok := strategyFor(format)
	if !ok {
		return failed(UnsupportedFormat, format, originalSize, unsupported(format))
	}
	if err := ctx.Err(); err != nil {
		return failed(Cancelled, format, originalSize, err)
	}

	img, err := Decode(data, format, c.opts.Decode)
	if err != nil {
		return failed(DecodeFailed, format, originalSize, err)
	}
	slog.Debug("image decoded",
		"format", format,
		"width", img.Width,
		"height", img.Height,
		"model", img.Model)
	if err := ctx.Err(); err != nil {
		return failed(Cancelled, format, originalSize, err)
	}

	out, err := encode(ctx, img, req, c.opts)
	if err != nil {
		// An encoder aborted by the context surfaces its own wrapped error; report the cause.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return failed(Cancelled, format, originalSize, ctxErr)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return failed(Cancelled, format, originalSize, err)
		}
		return failed(EncodeFailed, format, originalSize, &EncodeError{Format: format, Err: err})
	}

	outcome := Classify(out, originalSize, c.opts.Ceiling)
	outcome.Format = format
	slog.Debug("image classified",
		"format", format,
		"outcome", outcome.Kind,
		"original", originalSize,
		"size", outcome.Size,
		"quality", req.Quality,
		"preset", req.Preset,
		"elapsed", time.Since(start))
	return outcome
}
