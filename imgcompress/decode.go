package imgcompress

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ColorModel describes the layout of [DecodedImage.Pix].
type ColorModel int

const (
	Gray8 ColorModel = iota + 1
	RGB8
	RGBA8
)

// Channels returns the number of bytes per pixel.
func (m ColorModel) Channels() int {
	switch m {
	case Gray8:
		return 1
	case RGB8:
		return 3
	case RGBA8:
		return 4
	}
	return 0
}

func (m ColorModel) String() string {
	switch m {
	case Gray8:
		return "gray8"
	case RGB8:
		return "rgb8"
	case RGBA8:
		return "rgba8"
	}
	return "invalid"
}

// DecodedImage is an in-memory pixel buffer. Pix holds Width×Height pixels, row-major, with
// Model.Channels() bytes per pixel; RGBA8 is non-premultiplied.
type DecodedImage struct {
	Width  int
	Height int
	Model  ColorModel
	Pix    []byte

	// source is the image as returned by the codec, at its original sample depth.
	source image.Image
}

// newDecodedImage panics if pix does not match the dimensions; that can only be a bug here.
func newDecodedImage(width, height int, model ColorModel, pix []byte, source image.Image) *DecodedImage {
	if width <= 0 || height <= 0 || len(pix) != width*height*model.Channels() {
		panic(fmt.Sprintf("imgcompress: %d-byte %s buffer does not match %dx%d", len(pix), model, width, height))
	}
	return &DecodedImage{Width: width, Height: height, Model: model, Pix: pix, source: source}
}

// Image returns a view of the pixels usable by the standard encoders. Gray8 and RGBA8 share
// Pix; RGB8 is expanded into an opaque *image.RGBA.
func (d *DecodedImage) Image() image.Image {
	rect := image.Rect(0, 0, d.Width, d.Height)
	switch d.Model {
	case Gray8:
		return &image.Gray{Pix: d.Pix, Stride: d.Width, Rect: rect}
	case RGBA8:
		return &image.NRGBA{Pix: d.Pix, Stride: 4 * d.Width, Rect: rect}
	}
	rgba := image.NewRGBA(rect)
	for i, j := 0, 0; i < len(d.Pix); i, j = i+3, j+4 {
		rgba.Pix[j+0] = d.Pix[i+0]
		rgba.Pix[j+1] = d.Pix[i+1]
		rgba.Pix[j+2] = d.Pix[i+2]
		rgba.Pix[j+3] = 0xff
	}
	return rgba
}

// DecodeOptions controls [Decode].
type DecodeOptions struct {
	// AutoOrient applies the EXIF orientation of JPEG images to the pixels.
	AutoOrient bool

	// MaxPixels rejects images whose width×height exceeds it; zero means no limit.
	MaxPixels int64
}

// Decode parses data, already identified as format f, into a [DecodedImage].
func Decode(data []byte, f Format, opts DecodeOptions) (*DecodedImage, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Format: f, Reason: "could not read image header", Err: err}
	}
	if name != f.String() {
		return nil, &DecodeError{Format: f, Reason: fmt.Sprintf("expected %s data, found %s", f, name)}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &DecodeError{Format: f, Reason: fmt.Sprintf("invalid dimensions %dx%d", cfg.Width, cfg.Height)}
	}
	if opts.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > opts.MaxPixels {
		return nil, &DecodeError{Format: f, Reason: fmt.Sprintf("dimensions %dx%d exceed the %d pixel limit", cfg.Width, cfg.Height, opts.MaxPixels)}
	}

	var decodeOpts []imaging.DecodeOption
	if f == FormatJPEG && opts.AutoOrient {
		decodeOpts = append(decodeOpts, imaging.AutoOrientation(true))
	}
	src, err := imaging.Decode(bytes.NewReader(data), decodeOpts...)
	if err != nil {
		return nil, &DecodeError{Format: f, Reason: "could not decode image", Err: err}
	}
	return pack(src), nil
}

// pack converts src into the narrowest color model that holds its 8-bit pixels exactly. NRGBA,
// Gray, & YCbCr sources are read in place, so the packed buffer is the only one allocated; other
// layouts are first copied to NRGBA.
func pack(src image.Image) *DecodedImage {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	at, ok := pixelsOf(src)
	var clone *image.NRGBA
	if !ok {
		clone = imaging.Clone(src)
		at, _ = pixelsOf(clone)
		bounds = clone.Rect
	}

	model := narrowestModel(bounds, at)
	if model == RGBA8 && clone != nil {
		return newDecodedImage(width, height, RGBA8, clone.Pix, src)
	}

	channels := model.Channels()
	pix := make([]byte, width*height*channels)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := at(x, y)
			switch model {
			case Gray8:
				pix[i] = r
			case RGB8:
				pix[i], pix[i+1], pix[i+2] = r, g, b
			default:
				pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, a
			}
			i += channels
		}
	}
	return newDecodedImage(width, height, model, pix, src)
}

// pixelReader returns the non-premultiplied 8-bit color at (x, y).
type pixelReader func(x, y int) (r, g, b, a uint8)

// pixelsOf reads the decoder’s own buffer for the layouts the codecs commonly produce.
// The YCbCr conversion is the one imaging.Clone applies.
func pixelsOf(src image.Image) (pixelReader, bool) {
	switch img := src.(type) {
	case *image.NRGBA:
		return func(x, y int) (r, g, b, a uint8) {
			i := img.PixOffset(x, y)
			p := img.Pix[i : i+4 : i+4]
			return p[0], p[1], p[2], p[3]
		}, true
	case *image.Gray:
		return func(x, y int) (r, g, b, a uint8) {
			v := img.Pix[img.PixOffset(x, y)]
			return v, v, v, 0xff
		}, true
	case *image.YCbCr:
		return func(x, y int) (r, g, b, a uint8) {
			c := img.COffset(x, y)
			r, g, b = color.YCbCrToRGB(img.Y[img.YOffset(x, y)], img.Cb[c], img.Cr[c])
			return r, g, b, 0xff
		}, true
	}
	return nil, false
}

func narrowestModel(bounds image.Rectangle, at pixelReader) ColorModel {
	gray := true
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := at(x, y)
			if a != 0xff {
				return RGBA8
			}
			if gray && (r != g || g != b) {
				gray = false
			}
		}
	}
	if gray {
		return Gray8
	}
	return RGB8
}
