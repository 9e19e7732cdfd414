package imgcompress

import "bytes"

// Format is the encoded format of an image, as determined from its leading bytes.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatJPEG
	FormatWEBP
	FormatGIF
)

// headerSize is the longest prefix [Detect] ever looks at.
const headerSize = 12

var (
	magicPNG   = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	magicJPEG  = []byte{0xFF, 0xD8, 0xFF}
	magicRIFF  = []byte("RIFF")
	magicWEBP  = []byte("WEBP") // At offset 8, after the RIFF chunk size.
	magicGIF87 = []byte("GIF87a")
	magicGIF89 = []byte("GIF89a")
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatWEBP:
		return "webp"
	case FormatGIF:
		return "gif"
	}
	return "unknown"
}

// MIMEType returns the media type used when serving an image of this format.
func (f Format) MIMEType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatWEBP:
		return "image/webp"
	case FormatGIF:
		return "image/gif"
	}
	return "application/octet-stream"
}

// Extension returns the conventional file extension, including the leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatPNG:
		return ".png"
	case FormatJPEG:
		return ".jpg"
	case FormatWEBP:
		return ".webp"
	case FormatGIF:
		return ".gif"
	}
	return ""
}

// Detect identifies the format of data by its magic bytes. Only the first few bytes are inspected;
// the rest of the stream is not validated.
func Detect(data []byte) (Format, error) {
	header := data
	if len(header) > headerSize {
		header = header[:headerSize]
	}

	switch {
	case bytes.HasPrefix(header, magicPNG):
		return FormatPNG, nil
	case bytes.HasPrefix(header, magicJPEG):
		return FormatJPEG, nil
	case len(header) >= 12 && bytes.HasPrefix(header, magicRIFF) && bytes.Equal(header[8:12], magicWEBP):
		return FormatWEBP, nil
	case bytes.HasPrefix(header, magicGIF87), bytes.HasPrefix(header, magicGIF89):
		return FormatGIF, nil
	}
	return FormatUnknown, ErrUnrecognizedFormat
}
