package imgcompress

import (
	"context"
	"io"
)

// Encoder names accepted by [Options].
const (
	JPEGEncoderStd     = "std"
	JPEGEncoderJpegli  = "jpegli"
	WebPEncoderLibwebp = "libwebp"
	WebPEncoderNative  = "native"
)

// Options selects codec implementations and tuning that are fixed for the lifetime of a [Compressor].
type Options struct {
	// Ceiling is the maximum acceptable output size; defaults to [MaxUploadSize].
	Ceiling int

	// DefaultPreset is used for PNG when a [Request] leaves Preset unset.
	DefaultPreset int

	// Parallelism bounds how many candidate encodings of one image run at once.
	Parallelism int

	JPEGEncoder string
	WebPEncoder string

	Decode DecodeOptions
}

func (o Options) withDefaults() Options {
	if o.Ceiling <= 0 {
		o.Ceiling = MaxUploadSize
	}
	if o.DefaultPreset < MinPreset || o.DefaultPreset > MaxPreset {
		o.DefaultPreset = DefaultPreset
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 1
	}
	if o.JPEGEncoder == "" {
		o.JPEGEncoder = JPEGEncoderStd
	}
	if o.WebPEncoder == "" {
		o.WebPEncoder = WebPEncoderLibwebp
	}
	return o
}

// strategy re-encodes a decoded image; it returns the new bytes or an error.
type strategy func(ctx context.Context, img *DecodedImage, req Request, opts Options) ([]byte, error)

// strategyFor is the closed mapping from format to codec strategy.
func strategyFor(f Format) (strategy, bool) {
	switch f {
	case FormatPNG:
		return encodePNG, true
	case FormatJPEG:
		return encodeJPEG, true
	case FormatWEBP:
		return encodeWEBP, true
	}
	// GIF compression would need to be animation-aware; it is reported as unsupported.
	return nil, false
}

// ctxWriter fails writes once ctx is done, so encoders abort at their next flush.
type ctxWriter struct {
	ctx context.Context
	w   io.Writer
}

func (cw ctxWriter) Write(p []byte) (int, error) {
	if err := cw.ctx.Err(); err != nil {
		return 0, err
	}
	return cw.w.Write(p)
}
