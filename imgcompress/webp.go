package imgcompress

import (
	"bytes"
	"context"
	"fmt"

	nativewebp "github.com/HugoSmits86/nativewebp"
	"github.com/chai2010/webp"
	"golang.org/x/sync/errgroup"
)

// webpQualityStep spaces the qualities libwebp is actually asked for.
const webpQualityStep = 5

// encodeWEBP re-encodes the decoded pixels as WebP. The native encoder is lossless only and ignores
// the quality.
func encodeWEBP(ctx context.Context, img *DecodedImage, req Request, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch opts.WebPEncoder {
	case WebPEncoderLibwebp:
		return encodeLibwebp(ctx, img, req.Quality, opts)
	case WebPEncoderNative:
		var buf bytes.Buffer
		if err := nativewebp.Encode(ctxWriter{ctx: ctx, w: &buf}, img.Image(), &nativewebp.Options{}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown WebP encoder %q", opts.WebPEncoder)
}

// encodeLibwebp returns the smallest lossy encoding among the ladder rungs at or above quality.
// libwebp sizes are not strictly monotonic in quality; the rungs for a lower quality always include
// those for a higher one, so lowering the quality can never grow the output.
func encodeLibwebp(ctx context.Context, img *DecodedImage, quality int, opts Options) ([]byte, error) {
	rungs := webpQualityLadder(quality)
	results := make([][]byte, len(rungs))

	src := img.Image()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Parallelism, 1))
	for i, q := range rungs {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := webp.Encode(ctxWriter{ctx: gctx, w: &buf}, src, &webp.Options{Quality: float32(q)}); err != nil {
				return err
			}
			results[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Ties go to the highest quality.
	best := results[0]
	for _, out := range results[1:] {
		if len(out) <= len(best) {
			best = out
		}
	}
	return best, nil
}

// webpQualityLadder lists the rungs from quality, rounded up to a multiple of webpQualityStep,
// through MaxQuality.
func webpQualityLadder(quality int) []int {
	quality = min(max(quality, MinQuality), MaxQuality)
	lowest := (quality + webpQualityStep - 1) / webpQualityStep * webpQualityStep
	var rungs []int
	for q := lowest; q <= MaxQuality; q += webpQualityStep {
		rungs = append(rungs, q)
	}
	return rungs
}
