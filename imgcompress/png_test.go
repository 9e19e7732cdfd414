package imgcompress

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
)

var pngTestImages = []struct {
	name string
	img  image.Image
}{
	{"photo", photo(48, 40)},
	{"few translucent colors", fewColors(60, 45)},
	{"grayscale", grayscale(33, 21)},
	{"16-bit", deep(24, 18)},
}

func decodePNGSource(t *testing.T, data []byte) *DecodedImage {
	t.Helper()
	img, err := Decode(data, FormatPNG, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return img
}

func TestEncodePNG_Lossless(t *testing.T) {
	opts := Options{Parallelism: 2}.withDefaults()

	for _, tt := range pngTestImages {
		for preset := MinPreset; preset <= MaxPreset; preset++ {
			t.Run(tt.name, func(t *testing.T) {
				input := pngBytes(t, tt.img, png.BestSpeed)
				out, err := encodePNG(context.Background(), decodePNGSource(t, input), Request{Preset: preset}, opts)
				if err != nil {
					t.Fatalf("encodePNG() error = %v", err)
				}

				decoded, err := png.Decode(bytes.NewReader(out))
				if err != nil {
					t.Fatalf("Output is not a valid PNG: %v", err)
				}
				original, err := png.Decode(bytes.NewReader(input))
				if err != nil {
					t.Fatalf("Input is not a valid PNG: %v", err)
				}
				assertSamePixels(t, original, decoded)
			})
		}
	}
}

func TestEncodePNG_Idempotent(t *testing.T) {
	opts := Options{Parallelism: 3}.withDefaults()

	for _, tt := range pngTestImages {
		for _, preset := range []int{1, 2, 4, 6} {
			t.Run(tt.name, func(t *testing.T) {
				req := Request{Preset: preset}
				first, err := encodePNG(context.Background(), decodePNGSource(t, pngBytes(t, tt.img, png.NoCompression)), req, opts)
				if err != nil {
					t.Fatalf("First pass error = %v", err)
				}
				second, err := encodePNG(context.Background(), decodePNGSource(t, first), req, opts)
				if err != nil {
					t.Fatalf("Second pass error = %v", err)
				}
				if len(second) < len(first) {
					t.Errorf("Preset %d: second pass shrank %d bytes to %d", preset, len(first), len(second))
				}
			})
		}
	}
}

func TestEncodePNG_HigherPresetsNeverLarger(t *testing.T) {
	opts := Options{}.withDefaults()

	for _, tt := range pngTestImages {
		t.Run(tt.name, func(t *testing.T) {
			source := decodePNGSource(t, pngBytes(t, tt.img, png.DefaultCompression))
			previous := -1
			for preset := MinPreset; preset <= MaxPreset; preset++ {
				out, err := encodePNG(context.Background(), source, Request{Preset: preset}, opts)
				if err != nil {
					t.Fatalf("Preset %d: error = %v", preset, err)
				}
				if previous >= 0 && len(out) > previous {
					t.Errorf("Preset %d produced %d bytes, more than the %d of preset %d", preset, len(out), previous, preset-1)
				}
				previous = len(out)
			}
		})
	}
}

func TestEncodePNG_PaletteShrinksFewColors(t *testing.T) {
	opts := Options{}.withDefaults()
	source := decodePNGSource(t, pngBytes(t, fewColors(120, 90), png.BestCompression))

	truecolor, err := encodePNG(context.Background(), source, Request{Preset: 1}, opts)
	if err != nil {
		t.Fatalf("Preset 1 error = %v", err)
	}
	paletted, err := encodePNG(context.Background(), source, Request{Preset: 2}, opts)
	if err != nil {
		t.Fatalf("Preset 2 error = %v", err)
	}
	if len(paletted) >= len(truecolor) {
		t.Errorf("Expected a palette to beat truecolor, got %d >= %d bytes", len(paletted), len(truecolor))
	}

	img, err := png.Decode(bytes.NewReader(paletted))
	if err != nil {
		t.Fatalf("Output is not a valid PNG: %v", err)
	}
	if _, ok := img.(*image.Paletted); !ok {
		t.Errorf("Expected a paletted PNG, got %T", img)
	}
}

func TestEncodePNG_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := decodePNGSource(t, pngBytes(t, photo(16, 16), png.BestSpeed))
	if _, err := encodePNG(ctx, source, Request{}, Options{}.withDefaults()); err == nil {
		t.Error("Expected an error for a cancelled context")
	}
}

func TestResolvePreset(t *testing.T) {
	opts := Options{DefaultPreset: 4}.withDefaults()
	tests := []struct {
		preset   int
		expected int
	}{
		{PresetUnset, 4},
		{1, 1},
		{6, 6},
		{9, 6},
		{-3, 1},
	}
	for _, tt := range tests {
		if got := resolvePreset(Request{Preset: tt.preset}, opts); got != tt.expected {
			t.Errorf("resolvePreset(%d) = %d, want %d", tt.preset, got, tt.expected)
		}
	}
}

func TestAnalyzePNG(t *testing.T) {
	tests := []struct {
		name   string
		img    image.Image
		wide   bool
		gray   bool
		opaque bool
		colors int
	}{
		{"photo", photo(40, 40), false, false, true, 0},
		{"few colors", fewColors(20, 20), false, false, false, 5},
		{"grayscale", grayscale(16, 16), false, true, true, 0},
		{"16-bit", deep(8, 8), true, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := analyzePNG(tt.img)
			if a.wide != tt.wide || a.gray != tt.gray || a.opaque != tt.opaque {
				t.Errorf("Expected wide=%v gray=%v opaque=%v, got wide=%v gray=%v opaque=%v",
					tt.wide, tt.gray, tt.opaque, a.wide, a.gray, a.opaque)
			}
			if tt.colors > 0 && len(a.colors) != tt.colors {
				t.Errorf("Expected %d colors, got %d", tt.colors, len(a.colors))
			}
		})
	}
}
