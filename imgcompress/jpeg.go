package imgcompress

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gen2brain/jpegli"
)

// encodeJPEG re-encodes the decoded RGB (or gray) pixels at the requested quality.
func encodeJPEG(ctx context.Context, img *DecodedImage, req Request, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(img.Pix) / 8)
	w := ctxWriter{ctx: ctx, w: &buf}

	var err error
	switch opts.JPEGEncoder {
	case JPEGEncoderJpegli:
		err = jpegli.Encode(w, img.Image(), &jpegli.EncodingOptions{
			Quality:           req.Quality,
			ChromaSubsampling: image.YCbCrSubsampleRatio420,
		})
	case JPEGEncoderStd:
		err = jpeg.Encode(w, img.Image(), &jpeg.Options{Quality: req.Quality})
	default:
		err = fmt.Errorf("unknown JPEG encoder %q", opts.JPEGEncoder)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
