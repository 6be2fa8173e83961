package encode

import (
	"image"
	"image/color"
	"sort"
)

const maxPaletteSize = 256

type bucket struct {
	count   int
	r, g, b int
	key     uint16
}

// PaletteBuilder collects colour statistics from sample frames. It picks
// the most frequent 5-bit-per-channel buckets from pixels sampled every
// quality pixels. Entry 0 of the result is always the key with zero alpha
// so the GIF encoder marks it transparent.
type PaletteBuilder struct {
	quality int
	size    int
	key     color.RGBA
	buckets map[uint16]*bucket
}

func NewPaletteBuilder(quality, size int, key color.RGBA) *PaletteBuilder {
	if quality < 1 {
		quality = 1
	}
	if size <= 1 || size > maxPaletteSize {
		size = maxPaletteSize
	}
	return &PaletteBuilder{quality: quality, size: size, key: key, buckets: map[uint16]*bucket{}}
}

// Add samples frame. The frame may be reused once Add returns.
func (pb *PaletteBuilder) Add(frame *image.RGBA) {
	if frame == nil {
		return
	}
	b := frame.Bounds()
	n := b.Dx() * b.Dy()
	for p := 0; p < n; p += pb.quality {
		x, y := b.Min.X+p%b.Dx(), b.Min.Y+p/b.Dx()
		r, g, bl, ok := opaquePixel(frame, x, y)
		if !ok {
			continue
		}
		k := uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(bl>>3)
		bk := pb.buckets[k]
		if bk == nil {
			bk = &bucket{key: k}
			pb.buckets[k] = bk
		}
		bk.count++
		bk.r += int(r)
		bk.g += int(g)
		bk.b += int(bl)
	}
}

func (pb *PaletteBuilder) Palette() color.Palette {
	ranked := make([]*bucket, 0, len(pb.buckets))
	for _, bk := range pb.buckets {
		ranked = append(ranked, bk)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})

	key := pb.key
	key.A = 0
	pal := color.Palette{key}
	for _, bk := range ranked {
		if len(pal) == pb.size {
			break
		}
		pal = append(pal, color.RGBA{
			R: uint8(bk.r / bk.count),
			G: uint8(bk.g / bk.count),
			B: uint8(bk.b / bk.count),
			A: 0xFF,
		})
	}
	if len(pal) == 1 {
		// Nothing opaque was sampled; keep one opaque entry so Quantize
		// always has a candidate.
		pal = append(pal, color.White)
	}
	return pal
}

// Quantizer maps RGBA frames onto a fixed palette built by a
// PaletteBuilder. It is not safe for concurrent use.
type Quantizer struct {
	pal   color.Palette
	cache map[uint32]uint8
}

func NewQuantizer(pal color.Palette) *Quantizer {
	return &Quantizer{pal: pal, cache: map[uint32]uint8{}}
}

func (q *Quantizer) Palette() color.Palette { return q.pal }

// Quantize returns a paletted copy of src. Pixels under half coverage take
// index 0, the transparent key.
func (q *Quantizer) Quantize(src *image.RGBA) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(b, q.pal)
	opaque := q.pal[1:]
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, ok := opaquePixel(src, x, y)
			if !ok {
				continue
			}
			key := uint32(r)<<16 | uint32(g)<<8 | uint32(bl)
			idx, hit := q.cache[key]
			if !hit {
				idx = uint8(opaque.Index(color.RGBA{R: r, G: g, B: bl, A: 0xFF}) + 1)
				q.cache[key] = idx
			}
			dst.Pix[dst.PixOffset(x, y)] = idx
		}
	}
	return dst
}

// opaquePixel un-premultiplies the pixel at (x, y). Pixels under half
// coverage report ok=false and become transparent.
func opaquePixel(src *image.RGBA, x, y int) (r, g, b uint8, ok bool) {
	i := src.PixOffset(x, y)
	a := uint32(src.Pix[i+3])
	if a < 0x80 {
		return 0, 0, 0, false
	}
	un := func(v uint8) uint8 {
		out := uint32(v) * 0xFF / a
		if out > 0xFF {
			out = 0xFF
		}
		return uint8(out)
	}
	return un(src.Pix[i]), un(src.Pix[i+1]), un(src.Pix[i+2]), true
}
