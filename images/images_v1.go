package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"chimbori.dev/squeeze/conf"
	"chimbori.dev/squeeze/core"
	"chimbori.dev/squeeze/imgcompress"
	"github.com/dustin/go-humanize"
	"github.com/justinas/alice"
	"github.com/lmittmann/tint"
)

// Pool runs every compression requested over HTTP.
var Pool *imgcompress.Pool

// Cache holds compressed outputs keyed by input digest & knobs; nil when disabled.
var Cache *core.DiskCache

// Messages returned to clients; these are also what chat integrations show to their users.
const (
	msgInvalidQuality   = "Invalid quality level"
	msgInvalidPreset    = "Invalid preset level"
	msgMissingImage     = "Please provide a valid attachment"
	msgNoImprovement    = "Could not compress image any further"
	msgTimedOut         = "Compression timed out"
	msgFailedPrefix     = "Failed to compress image: "
	msgRequestTooLarge  = "Image is too large"
	multipartFieldImage = "image"
)

func Init(mux *http.ServeMux) {
	compressor := imgcompress.New(conf.Config.CompressorOptions())
	Pool = imgcompress.NewPool(compressor, conf.Config.Compression.Workers)
	slog.Info("Compression pool ready",
		"workers", Pool.Size(),
		"jpeg-encoder", compressor.Options().JPEGEncoder,
		"webp-encoder", compressor.Options().WebPEncoder,
		"ceiling", humanize.IBytes(uint64(compressor.Options().Ceiling)))

	if conf.Config.Cache.Enabled != nil && *conf.Config.Cache.Enabled {
		Cache = core.NewDiskCache(
			filepath.Join(conf.Config.DataDir, "cache", "compressed"),
			core.WithTTL(conf.Config.Cache.TTL),
			core.WithMaxSize(conf.Config.Cache.MaxSizeBytes),
		)
	} // else cache will be nil

	chain := alice.New(core.GzipHandler)
	mux.Handle("POST /images/v1/compress", chain.ThenFunc(handleCompress))
}

// upload is a validated compression request.
type upload struct {
	name         string
	data         []byte
	originalSize int
	req          imgcompress.Request
}

// POST /images/v1/compress
// Accepts a multipart form with an `image` file, or a raw image body; `quality` & `preset` are optional.
func handleCompress(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	userAgent := req.Header.Get("User-Agent")

	up, status, err := parseUpload(w, req)
	if err != nil {
		slog.Warn("invalid compression request", tint.Err(err),
			"method", req.Method,
			"path", req.URL.Path,
			"user-agent", userAgent,
			"status", status)
		http.Error(w, err.Error(), status)
		return
	}

	digest := core.SHA256(up.data)
	key := cacheKey(digest, up.req, Pool.Options())
	outcome, cached := findCached(req, key, up)
	if !cached {
		ctx, cancel := context.WithTimeout(req.Context(), conf.Config.Compression.Timeout)
		defer cancel()
		outcome = Pool.Compress(ctx, up.data, up.originalSize, up.req)
		if outcome.OK() {
			writeToCache(req, key, outcome)
		}
	}

	status = statusFor(outcome.Kind)
	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"format", outcome.Format.String(),
		"outcome", outcome.Kind.String(),
		"original", humanize.IBytes(uint64(outcome.OriginalSize)),
		"size", humanize.IBytes(uint64(outcome.Size)),
		"cached", cached,
		"user-agent", userAgent,
		"status", status,
	}
	switch outcome.Kind {
	case imgcompress.EncodeFailed:
		slog.Error("compression failed", append([]any{tint.Err(outcome.Err)}, attrs...)...)
	case imgcompress.DecodeFailed, imgcompress.UnsupportedFormat, imgcompress.Cancelled:
		slog.Warn("compression failed", append([]any{tint.Err(outcome.Err)}, attrs...)...)
	default:
		slog.Info("compression finished", attrs...)
	}
	if !cached {
		recordCompression(outcome, up.req, digest, core.GetCanonicalUserAgent(userAgent), time.Since(start))
	}

	if !outcome.OK() {
		http.Error(w, Message(outcome, up.name), status)
		return
	}

	w.Header().Set("Content-Type", outcome.Format.MIMEType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": OutputName(up.name, outcome.Format)}))
	w.Header().Set("Content-Length", strconv.Itoa(len(outcome.Data)))
	w.Header().Set("X-Original-Size", strconv.Itoa(outcome.OriginalSize))
	w.Header().Set("X-Compressed-Size", strconv.Itoa(outcome.Size))
	w.Header().Set("X-Squeeze-Message", Message(outcome, up.name))
	if cached {
		w.Header().Set("X-Squeeze-Cache", "hit")
	} else {
		w.Header().Set("X-Squeeze-Cache", "miss")
	}
	w.WriteHeader(status)
	w.Write(outcome.Data)
}

// parseUpload reads & validates the request; on failure it returns the HTTP status to respond with.
func parseUpload(w http.ResponseWriter, req *http.Request) (upload, int, error) {
	req.Body = http.MaxBytesReader(w, req.Body, conf.Config.Compression.MaxRequestSize)

	var up upload
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := req.ParseMultipartForm(32 << 20); err != nil {
			return up, statusForBodyError(err), bodyError(err)
		}
		file, header, err := req.FormFile(multipartFieldImage)
		if err != nil {
			return up, http.StatusBadRequest, errors.New(msgMissingImage)
		}
		defer file.Close()
		if up.data, err = io.ReadAll(file); err != nil {
			return up, http.StatusBadRequest, errors.New(msgMissingImage)
		}
		up.name = header.Filename
		up.originalSize = int(header.Size)
	} else {
		var err error
		if up.data, err = io.ReadAll(req.Body); err != nil {
			return up, statusForBodyError(err), bodyError(err)
		}
		up.name = req.URL.Query().Get("filename")
		up.originalSize = len(up.data)
	}
	if len(up.data) == 0 {
		return up, http.StatusBadRequest, errors.New(msgMissingImage)
	}
	up.name = filepath.Base(strings.TrimSpace(up.name))
	if up.name == "." || up.name == string(filepath.Separator) {
		up.name = ""
	}

	var err error
	if up.req, err = ParseRequest(req.FormValue("quality"), req.FormValue("preset"), conf.Config.Compression.DefaultQuality); err != nil {
		return up, http.StatusBadRequest, err
	}
	return up, http.StatusOK, nil
}

func statusForBodyError(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func bodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return fmt.Errorf("%s; the limit is %s", msgRequestTooLarge, humanize.IBytes(uint64(maxBytesErr.Limit)))
	}
	return errors.New(msgMissingImage)
}

// ParseRequest validates the quality & preset knobs. Empty values take their defaults.
func ParseRequest(quality, preset string, defaultQuality int) (imgcompress.Request, error) {
	r := imgcompress.Request{Quality: defaultQuality, Preset: imgcompress.PresetUnset}
	if r.Quality < imgcompress.MinQuality || r.Quality > imgcompress.MaxQuality {
		r.Quality = imgcompress.DefaultQuality
	}

	if quality = strings.TrimSpace(quality); quality != "" {
		q, err := strconv.Atoi(quality)
		if err != nil || q < imgcompress.MinQuality || q > imgcompress.MaxQuality {
			return r, errors.New(msgInvalidQuality)
		}
		r.Quality = q
	}
	if preset = strings.TrimSpace(preset); preset != "" {
		p, err := strconv.Atoi(preset)
		if err != nil || p < imgcompress.MinPreset || p > imgcompress.MaxPreset {
			return r, errors.New(msgInvalidPreset)
		}
		r.Preset = p
	}
	return r, nil
}
