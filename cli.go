package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"chimbori.dev/squeeze/conf"
	"chimbori.dev/squeeze/core"
	"chimbori.dev/squeeze/images"
	"chimbori.dev/squeeze/imgcompress"
)

// maxLocalInputSize bounds the files accepted by the one-shot mode.
const maxLocalInputSize = 256 * 1024 * 1024

// compressFile runs one compression on a local file & writes the result next to it,
// or to outPath when set. Existing files are never overwritten.
func compressFile(ctx context.Context, inPath, outPath, quality, preset string) (string, error) {
	req, err := images.ParseRequest(quality, preset, conf.Config.Compression.DefaultQuality)
	if err != nil {
		return "", err
	}

	data, err := core.ReadFileLimited(inPath, maxLocalInputSize)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", inPath, err)
	}

	ctx, cancel := context.WithTimeout(ctx, conf.Config.Compression.Timeout)
	defer cancel()
	outcome := imgcompress.New(conf.Config.CompressorOptions()).Compress(ctx, data, len(data), req)

	message := images.Message(outcome, filepath.Base(inPath))
	if !outcome.OK() {
		return message, errors.New(message)
	}

	if outPath == "" {
		outPath = defaultOutputPath(inPath)
	}
	f, err := core.CreateFile(outPath)
	if err != nil {
		return message, fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	if _, err := f.Write(outcome.Data); err != nil {
		f.Close()
		return message, fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return message, fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return message, nil
}

// defaultOutputPath turns photo.jpg into photo.min.jpg.
func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	return strings.TrimSuffix(inPath, ext) + ".min" + ext
}
