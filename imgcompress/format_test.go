package imgcompress

import (
	"errors"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), FormatPNG},
		{"png signature only", []byte("\x89PNG\r\n\x1a\n"), FormatPNG},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}, FormatJPEG},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), FormatWEBP},
		{"gif87a", []byte("GIF87a\x01\x00\x01\x00"), FormatGIF},
		{"gif89a", []byte("GIF89a\x01\x00\x01\x00"), FormatGIF},
		{"png magic with garbage body", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 1024)...), FormatPNG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.data)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Detect() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestDetect_Unrecognized(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("this is not an image")},
		{"truncated png signature", []byte("\x89PNG\r\n")},
		{"riff without webp", []byte("RIFF\x24\x00\x00\x00WAVEfmt ")},
		{"riff too short", []byte("RIFF\x24\x00\x00\x00WEB")},
		{"bmp", []byte("BM\x00\x00\x00\x00\x00\x00\x00\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.data)
			if got != FormatUnknown {
				t.Errorf("Detect() = %s, want unknown", got)
			}
			if !errors.Is(err, ErrUnrecognizedFormat) {
				t.Fatalf("Expected ErrUnrecognizedFormat, got %v", err)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Expected a *DecodeError, got %T", err)
			}
			if decodeErr.Reason != "format unrecognized" {
				t.Errorf("Expected reason “format unrecognized”, got %q", decodeErr.Reason)
			}
		})
	}
}

func TestFormatNames(t *testing.T) {
	tests := []struct {
		format    Format
		name      string
		mimeType  string
		extension string
	}{
		{FormatPNG, "png", "image/png", ".png"},
		{FormatJPEG, "jpeg", "image/jpeg", ".jpg"},
		{FormatWEBP, "webp", "image/webp", ".webp"},
		{FormatGIF, "gif", "image/gif", ".gif"},
		{FormatUnknown, "unknown", "application/octet-stream", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.format.MIMEType(); got != tt.mimeType {
				t.Errorf("MIMEType() = %q, want %q", got, tt.mimeType)
			}
			if got := tt.format.Extension(); got != tt.extension {
				t.Errorf("Extension() = %q, want %q", got, tt.extension)
			}
		})
	}
}
