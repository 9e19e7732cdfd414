package imgcompress

import (
	"bytes"
	"context"
	"image"
	"slices"
	"testing"
)

func decodeWebPSource(t *testing.T, data []byte) *DecodedImage {
	t.Helper()
	img, err := Decode(data, FormatWEBP, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return img
}

func TestEncodeWEBP_QualityMonotonic(t *testing.T) {
	source := pack(photo(160, 120))
	opts := Options{Parallelism: 4}.withDefaults()

	previous := -1
	for quality := MaxQuality; quality >= MinQuality; quality-- {
		out, err := encodeWEBP(context.Background(), source, Request{Quality: quality}, opts)
		if err != nil {
			t.Fatalf("Quality %d: error = %v", quality, err)
		}
		if previous >= 0 && len(out) > previous {
			t.Errorf("Quality %d produced %d bytes, more than %d at quality %d", quality, len(out), previous, quality+1)
		}
		previous = len(out)
	}
}

func TestEncodeWEBP_SameRungSameOutput(t *testing.T) {
	source := pack(photo(64, 48))
	opts := Options{}.withDefaults()

	first, err := encodeWEBP(context.Background(), source, Request{Quality: 41}, opts)
	if err != nil {
		t.Fatalf("encodeWEBP() error = %v", err)
	}
	second, err := encodeWEBP(context.Background(), source, Request{Quality: 45}, opts)
	if err != nil {
		t.Fatalf("encodeWEBP() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("Expected qualities 41 & 45 to share an output, got %d & %d bytes", len(first), len(second))
	}
}

func TestWebPQualityLadder(t *testing.T) {
	tests := []struct {
		quality  int
		expected []int
	}{
		{100, []int{100}},
		{96, []int{100}},
		{95, []int{95, 100}},
		{81, []int{85, 90, 95, 100}},
		{1, []int{5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60, 65, 70, 75, 80, 85, 90, 95, 100}},
		{0, []int{5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60, 65, 70, 75, 80, 85, 90, 95, 100}},
	}

	for _, tt := range tests {
		if got := webpQualityLadder(tt.quality); !slices.Equal(got, tt.expected) {
			t.Errorf("webpQualityLadder(%d) = %v, want %v", tt.quality, got, tt.expected)
		}
	}

	// Every rung for a higher quality is also a rung for any lower one.
	for q := MinQuality; q < MaxQuality; q++ {
		lower, higher := webpQualityLadder(q), webpQualityLadder(q+1)
		for _, rung := range higher {
			if !slices.Contains(lower, rung) {
				t.Fatalf("Rung %d for quality %d is missing at quality %d", rung, q+1, q)
			}
		}
	}
}

func TestEncodeWEBP_ValidOutput(t *testing.T) {
	tests := []struct {
		name    string
		encoder string
	}{
		{"libwebp", WebPEncoderLibwebp},
		{"native", WebPEncoderNative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := decodeWebPSource(t, webpBytes(t, photo(50, 30), 90))
			out, err := encodeWEBP(context.Background(), source, Request{Quality: 60}, Options{WebPEncoder: tt.encoder}.withDefaults())
			if err != nil {
				t.Fatalf("encodeWEBP() error = %v", err)
			}

			if f, err := Detect(out); err != nil || f != FormatWEBP {
				t.Errorf("Expected WebP output, got %s (%v)", f, err)
			}
			cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("Output is not a valid image: %v", err)
			}
			if cfg.Width != 50 || cfg.Height != 30 {
				t.Errorf("Expected 50x30, got %dx%d", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestEncodeWEBP_Translucent(t *testing.T) {
	source := decodeWebPSource(t, webpBytes(t, fewColors(40, 40), 90))
	out, err := encodeWEBP(context.Background(), source, Request{Quality: 80}, Options{}.withDefaults())
	if err != nil {
		t.Fatalf("encodeWEBP() error = %v", err)
	}
	if _, err := Decode(out, FormatWEBP, DecodeOptions{}); err != nil {
		t.Errorf("Output could not be decoded: %v", err)
	}
}
