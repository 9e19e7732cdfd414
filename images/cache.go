package images

import (
	"fmt"
	"log/slog"
	"net/http"

	"chimbori.dev/squeeze/imgcompress"
	"github.com/lmittmann/tint"
)

// cacheKey identifies an output by everything that determines it: the input bytes, the knobs as
// the compressor resolves them, & the options that change the pixels or the encoder.
func cacheKey(digest string, r imgcompress.Request, opts imgcompress.Options) string {
	orient := 0
	if opts.Decode.AutoOrient {
		orient = 1
	}
	return fmt.Sprintf("%s-%s-%s-q%d-p%d-o%d-m%d",
		digest,
		opts.JPEGEncoder,
		opts.WebPEncoder,
		r.Quality,
		opts.Preset(r),
		orient,
		opts.Decode.MaxPixels)
}

// findCached returns a previously compressed output, re-classified against this upload’s size.
// Cache errors are logged & treated as misses.
func findCached(req *http.Request, key string, up upload) (imgcompress.Outcome, bool) {
	if Cache == nil {
		return imgcompress.Outcome{}, false
	}
	cached, err := Cache.Find(key)
	if err != nil {
		slog.Error("error during cache lookup", tint.Err(err),
			"method", req.Method,
			"path", req.URL.Path)
		return imgcompress.Outcome{}, false
	}
	if cached == nil {
		return imgcompress.Outcome{}, false
	}

	format, err := imgcompress.Detect(cached)
	if err != nil {
		slog.Error("cached output is not an image", tint.Err(err),
			"method", req.Method,
			"path", req.URL.Path)
		_ = Cache.Delete(key)
		return imgcompress.Outcome{}, false
	}

	outcome := imgcompress.Classify(cached, up.originalSize, ceiling())
	if !outcome.OK() {
		// The declared size changed since this output was cached; compress afresh.
		return imgcompress.Outcome{}, false
	}
	outcome.Format = format
	return outcome, true
}

func writeToCache(req *http.Request, key string, outcome imgcompress.Outcome) {
	if Cache == nil {
		return
	}
	if err := Cache.Write(key, outcome.Data); err != nil {
		slog.Error("error writing to cache", tint.Err(err),
			"method", req.Method,
			"path", req.URL.Path,
			"format", outcome.Format.String())
		// Continue serving even if caching failed
	}
}
