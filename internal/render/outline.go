package render

import (
	"github.com/golang/freetype/raster"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// outliner turns strings into raster paths. It owns a GlyphBuf and is
// therefore not safe for concurrent use.
type outliner struct {
	f     *truetype.Font
	scale fixed.Int26_6
	buf   truetype.GlyphBuf
}

// appendText appends the outline of text, pen starting at (x, baseline), to p.
// Glyphs whose advance box lies entirely outside [minX, maxX) are skipped.
func (o *outliner) appendText(p *raster.Path, text string, x, baseline, minX, maxX fixed.Int26_6) {
	pen := x
	var prev truetype.Index
	hasPrev := false
	for _, r := range text {
		idx := o.f.Index(r)
		if hasPrev {
			pen += o.f.Kern(o.scale, prev, idx)
		}
		if pen >= maxX {
			return
		}
		advance := o.f.HMetric(o.scale, idx).AdvanceWidth
		if pen+advance > minX {
			if err := o.buf.Load(o.f, o.scale, idx, font.HintingNone); err == nil {
				e0 := 0
				for _, e1 := range o.buf.Ends {
					appendContour(p, o.buf.Points[e0:e1], pen, baseline)
					e0 = e1
				}
			}
		}
		pen += advance
		prev, hasPrev = idx, true
	}
}

// appendContour adds one closed quadratic TrueType contour. The low bit of
// a point's Flags marks it as on-curve; consecutive off-curve points imply
// an on-curve midpoint. Glyph space is y-up, the canvas is y-down.
func appendContour(p *raster.Path, ps []truetype.Point, dx, dy fixed.Int26_6) {
	if len(ps) == 0 {
		return
	}
	at := func(pt truetype.Point) fixed.Point26_6 {
		return fixed.Point26_6{X: dx + pt.X, Y: dy - pt.Y}
	}
	start := at(ps[0])
	var rest []truetype.Point
	if ps[0].Flags&0x01 != 0 {
		rest = ps[1:]
	} else {
		last := at(ps[len(ps)-1])
		if ps[len(ps)-1].Flags&0x01 != 0 {
			start = last
			rest = ps[:len(ps)-1]
		} else {
			start = midpoint(start, last)
			rest = ps
		}
	}

	p.Start(start)
	q0, on0 := start, true
	for _, pt := range rest {
		q := at(pt)
		on := pt.Flags&0x01 != 0
		switch {
		case on && on0:
			p.Add1(q)
		case on:
			p.Add2(q0, q)
		case !on0:
			p.Add2(q0, midpoint(q0, q))
		}
		q0, on0 = q, on
	}
	if on0 {
		p.Add1(start)
	} else {
		p.Add2(q0, start)
	}
}

func midpoint(a, b fixed.Point26_6) fixed.Point26_6 {
	return fixed.Point26_6{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
