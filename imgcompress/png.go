package imgcompress

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sort"

	"golang.org/x/sync/errgroup"
)

// paletteOrder is a strategy for ordering the entries of a PNG palette.
type paletteOrder int

const (
	// Non-opaque entries first, so the tRNS chunk stays short; otherwise in order of appearance.
	translucentFirst paletteOrder = iota
	// Non-opaque entries first, then most frequently used.
	byPopularity
	// Non-opaque entries first, then darkest to lightest; neighbouring indices compress better.
	byLuminance
	// Order of first appearance in the image.
	firstSeen
)

type pngPreset struct {
	levels   []png.CompressionLevel
	palettes []paletteOrder
}

// pngPresets is indexed by preset number; higher presets strictly extend lower ones.
var pngPresets = [MaxPreset + 1]pngPreset{
	1: {
		levels: []png.CompressionLevel{png.BestCompression},
	},
	2: {
		levels:   []png.CompressionLevel{png.BestCompression},
		palettes: []paletteOrder{translucentFirst},
	},
	3: {
		levels:   []png.CompressionLevel{png.BestCompression, png.DefaultCompression},
		palettes: []paletteOrder{translucentFirst},
	},
	4: {
		levels:   []png.CompressionLevel{png.BestCompression, png.DefaultCompression},
		palettes: []paletteOrder{translucentFirst, byPopularity},
	},
	5: {
		levels:   []png.CompressionLevel{png.BestCompression, png.DefaultCompression, png.BestSpeed},
		palettes: []paletteOrder{translucentFirst, byPopularity, byLuminance},
	},
	6: {
		levels:   []png.CompressionLevel{png.BestCompression, png.DefaultCompression, png.BestSpeed},
		palettes: []paletteOrder{translucentFirst, byPopularity, byLuminance, firstSeen},
	},
}

// Preset returns the PNG preset a request is compressed with under these options.
func (o Options) Preset(req Request) int {
	return resolvePreset(req, o)
}

func resolvePreset(req Request, opts Options) int {
	preset := req.Preset
	if preset == PresetUnset {
		preset = opts.DefaultPreset
	}
	return min(max(preset, MinPreset), MaxPreset)
}

// encodePNG searches for the smallest lossless PNG encoding of the image. Every candidate holds
// exactly the source pixels at their original depth; only the color type, palette layout, and
// deflate level vary. Candidates are derived from the pixels alone, so the result does not depend
// on how the input happened to be encoded, and a second pass over the output finds the same result.
func encodePNG(ctx context.Context, img *DecodedImage, req Request, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := img.source
	if src == nil {
		src = img.Image()
	}
	candidates := analyzePNG(src).candidates(pngPresets[resolvePreset(req, opts)])

	results := make([][]byte, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Parallelism, 1))
	for i, c := range candidates {
		g.Go(func() error {
			var buf bytes.Buffer
			enc := png.Encoder{CompressionLevel: c.level}
			if err := enc.Encode(ctxWriter{ctx: gctx, w: &buf}, c.img); err != nil {
				return err
			}
			results[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := results[0]
	for _, r := range results[1:] {
		if len(r) < len(best) {
			best = r
		}
	}
	return best, nil
}

type pngCandidate struct {
	img   image.Image
	level png.CompressionLevel
}

// pngAnalysis is a canonical copy of the pixels plus what is needed to pick reduced color types.
type pngAnalysis struct {
	canon *image.NRGBA64

	wide   bool // Some sample needs 16 bits.
	gray   bool
	opaque bool

	// Set only when the image has at most 256 distinct colors and is not wide.
	colors  []color.NRGBA // In order of first appearance.
	counts  []int
	indices []uint8 // One per pixel, into colors.
}

func analyzePNG(src image.Image) *pngAnalysis {
	b := src.Bounds()
	a := &pngAnalysis{
		canon:  image.NewNRGBA64(image.Rect(0, 0, b.Dx(), b.Dy())),
		gray:   true,
		opaque: true,
	}

	indexed := true
	index := make(map[color.NRGBA]uint8, 256)
	a.indices = make([]uint8, b.Dx()*b.Dy())

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := exactNRGBA64(src, x, y)
			a.canon.SetNRGBA64(x-b.Min.X, y-b.Min.Y, c)

			if c.A != 0xffff {
				a.opaque = false
			}
			if c.R != c.G || c.G != c.B {
				a.gray = false
			}
			if !a.wide && !(fits8(c.R) && fits8(c.G) && fits8(c.B) && fits8(c.A)) {
				a.wide = true
				indexed = false
			}

			if indexed {
				c8 := color.NRGBA{R: uint8(c.R >> 8), G: uint8(c.G >> 8), B: uint8(c.B >> 8), A: uint8(c.A >> 8)}
				ci, ok := index[c8]
				if !ok {
					if len(a.colors) == 256 {
						indexed = false
						i++
						continue
					}
					ci = uint8(len(a.colors))
					index[c8] = ci
					a.colors = append(a.colors, c8)
					a.counts = append(a.counts, 0)
				}
				a.counts[ci]++
				a.indices[i] = ci
			}
			i++
		}
	}

	if !indexed {
		a.colors, a.counts, a.indices = nil, nil, nil
	}
	return a
}

func (a *pngAnalysis) candidates(p pngPreset) []pngCandidate {
	images := []image.Image{a.direct()}
	if a.colors != nil {
		for _, order := range p.palettes {
			images = append(images, a.paletted(order))
		}
	}

	var out []pngCandidate
	for _, img := range images {
		for _, level := range p.levels {
			out = append(out, pngCandidate{img: img, level: level})
		}
	}
	return out
}

// direct returns the image in the narrowest non-paletted type that holds it exactly.
// The encoder drops the alpha channel itself when every pixel is opaque.
func (a *pngAnalysis) direct() image.Image {
	rect := a.canon.Rect
	n := rect.Dx() * rect.Dy()

	switch {
	case a.wide && a.gray && a.opaque:
		g := image.NewGray16(rect)
		for i := range n {
			g.Pix[2*i+0] = a.canon.Pix[8*i+0]
			g.Pix[2*i+1] = a.canon.Pix[8*i+1]
		}
		return g

	case a.wide:
		return a.canon

	case a.gray && a.opaque:
		g := image.NewGray(rect)
		for i := range n {
			g.Pix[i] = a.canon.Pix[8*i]
		}
		return g

	default:
		m := image.NewNRGBA(rect)
		for i := range 4 * n {
			m.Pix[i] = a.canon.Pix[2*i]
		}
		return m
	}
}

func (a *pngAnalysis) paletted(order paletteOrder) *image.Paletted {
	perm := make([]int, len(a.colors))
	for i := range perm {
		perm[i] = i
	}

	translucent := func(i int) bool { return a.colors[i].A != 0xff }
	switch order {
	case translucentFirst:
		sort.SliceStable(perm, func(i, j int) bool {
			return translucent(perm[i]) && !translucent(perm[j])
		})
	case byPopularity:
		sort.SliceStable(perm, func(i, j int) bool {
			ti, tj := translucent(perm[i]), translucent(perm[j])
			if ti != tj {
				return ti
			}
			return a.counts[perm[i]] > a.counts[perm[j]]
		})
	case byLuminance:
		sort.SliceStable(perm, func(i, j int) bool {
			ti, tj := translucent(perm[i]), translucent(perm[j])
			if ti != tj {
				return ti
			}
			return luma(a.colors[perm[i]]) < luma(a.colors[perm[j]])
		})
	}

	palette := make(color.Palette, len(perm))
	remap := make([]uint8, len(perm))
	for newIndex, oldIndex := range perm {
		palette[newIndex] = a.colors[oldIndex]
		remap[oldIndex] = uint8(newIndex)
	}

	p := image.NewPaletted(a.canon.Rect, palette)
	for i, ci := range a.indices {
		p.Pix[i] = remap[ci]
	}
	return p
}

func luma(c color.NRGBA) int {
	return 299*int(c.R) + 587*int(c.G) + 114*int(c.B)
}

func fits8(v uint16) bool {
	return v>>8 == v&0xff
}

// exactNRGBA64 reads a pixel without the precision loss of a premultiplied round trip.
func exactNRGBA64(src image.Image, x, y int) color.NRGBA64 {
	switch m := src.(type) {
	case *image.NRGBA:
		return expandNRGBA(m.NRGBAAt(x, y))
	case *image.NRGBA64:
		return m.NRGBA64At(x, y)
	case *image.Gray:
		v := uint16(m.GrayAt(x, y).Y) * 0x101
		return color.NRGBA64{R: v, G: v, B: v, A: 0xffff}
	case *image.Gray16:
		v := m.Gray16At(x, y).Y
		return color.NRGBA64{R: v, G: v, B: v, A: 0xffff}
	case *image.Paletted:
		if ci := int(m.ColorIndexAt(x, y)); ci < len(m.Palette) {
			return toNRGBA64(m.Palette[ci])
		}
		return color.NRGBA64{A: 0xffff}
	}
	return toNRGBA64(src.At(x, y))
}

func toNRGBA64(c color.Color) color.NRGBA64 {
	switch c := c.(type) {
	case color.NRGBA:
		return expandNRGBA(c)
	case color.NRGBA64:
		return c
	}
	r, g, b, a := c.RGBA()
	if a == 0xffff {
		return color.NRGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: 0xffff}
	}
	return color.NRGBA64Model.Convert(c).(color.NRGBA64)
}

func expandNRGBA(c color.NRGBA) color.NRGBA64 {
	return color.NRGBA64{
		R: uint16(c.R) * 0x101,
		G: uint16(c.G) * 0x101,
		B: uint16(c.B) * 0x101,
		A: uint16(c.A) * 0x101,
	}
}
