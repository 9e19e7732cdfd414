package imgcompress

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand/v2"
	"testing"

	"github.com/chai2010/webp"
)

// photo returns a deterministic image with smooth gradients and mild noise, which compresses
// roughly like a photograph.
func photo(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewPCG(1, 2))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			noise := rng.IntN(24)
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x*255/w + noise) % 256),
				G: uint8((y*255/h + noise) % 256),
				B: uint8(((x+y)*127/(w+h) + noise) % 256),
				A: 0xff,
			})
		}
	}
	return img
}

// fewColors returns a translucent image scattered with only a handful of colors.
func fewColors(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewPCG(3, 4))
	colors := []color.NRGBA{
		{R: 0xff, A: 0xff},
		{G: 0xff, A: 0x80},
		{B: 0xff, A: 0xff},
		{R: 0x12, G: 0x34, B: 0x56, A: 0x00},
		{R: 0xff, G: 0xff, B: 0xff, A: 0x40},
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, colors[rng.IntN(len(colors))])
		}
	}
	return img
}

func grayscale(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x * y) % 256)})
		}
	}
	return img
}

// deep returns a 16-bit image whose samples cannot be represented in 8 bits.
func deep(w, h int) *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA64(x, y, color.NRGBA64{
				R: uint16(x*977 + 1),
				G: uint16(y*613 + 3),
				B: uint16((x ^ y) * 131),
				A: uint16(0xffff - x*7),
			})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image, level png.CompressionLevel) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("Failed to encode JPEG: %v", err)
	}
	return buf.Bytes()
}

func webpBytes(t *testing.T, img image.Image, quality float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
		t.Fatalf("Failed to encode WebP: %v", err)
	}
	return buf.Bytes()
}

func gifBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode GIF: %v", err)
	}
	return buf.Bytes()
}

// assertSamePixels compares two images pixel by pixel.
func assertSamePixels(t *testing.T, want, got image.Image) {
	t.Helper()
	wb, gb := want.Bounds(), got.Bounds()
	if wb.Dx() != gb.Dx() || wb.Dy() != gb.Dy() {
		t.Fatalf("Expected %dx%d, got %dx%d", wb.Dx(), wb.Dy(), gb.Dx(), gb.Dy())
	}
	for y := 0; y < wb.Dy(); y++ {
		for x := 0; x < wb.Dx(); x++ {
			wc := color.NRGBA64Model.Convert(want.At(wb.Min.X+x, wb.Min.Y+y))
			gc := color.NRGBA64Model.Convert(got.At(gb.Min.X+x, gb.Min.Y+y))
			if wc != gc {
				t.Fatalf("Pixel (%d, %d) differs: expected %v, got %v", x, y, wc, gc)
			}
		}
	}
}
