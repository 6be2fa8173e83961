package render

import (
	"fmt"
	"image"

	"github.com/golang/freetype/raster"
	"golang.org/x/image/math/fixed"
)

// FrameRenderer paints outlined text onto square RGBA frames.
// One renderer serves one goroutine; create one per tile.
type FrameRenderer struct {
	profile  CanvasProfile
	style    Style
	outline  outliner
	baseline fixed.Int26_6
	stroke   fixed.Int26_6
	ras      *raster.Rasterizer
	path     raster.Path
}

func NewFrameRenderer(fonts *FontRegistry, profile CanvasProfile, style Style) (*FrameRenderer, error) {
	if fonts == nil {
		return nil, fmt.Errorf("font registry not configured")
	}
	if profile.Size <= 0 || profile.FontSize <= 0 {
		return nil, fmt.Errorf("invalid canvas profile %dx%d@%d", profile.Size, profile.Size, profile.FontSize)
	}
	f, err := fonts.Font(style.Family, style.Bold)
	if err != nil {
		return nil, err
	}

	// Middle baseline: centre the em box (ascent over descent) on Size/2.
	face := newFace(f, float64(profile.FontSize))
	metrics := face.Metrics()
	_ = face.Close()
	baseline := fixed.I(profile.Size)/2 + (metrics.Ascent-metrics.Descent)/2

	style.Fill = SafeForeground(style.Fill)
	ras := raster.NewRasterizer(profile.Size, profile.Size)
	ras.UseNonZeroWinding = true
	return &FrameRenderer{
		profile:  profile,
		style:    style,
		outline:  outliner{f: f, scale: fixed.I(profile.FontSize)},
		baseline: baseline,
		stroke:   fixed.I(profile.StrokeWidthPx),
		ras:      ras,
	}, nil
}

// NewFrame allocates a transparent canvas of the profile size.
func (fr *FrameRenderer) NewFrame() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, fr.profile.Size, fr.profile.Size))
}

// Render clears dst and draws text with its pen at each of xs. The stroke
// pass is always painted before the fill pass.
func (fr *FrameRenderer) Render(dst *image.RGBA, text string, xs []float64) {
	clear(dst.Pix)

	fr.path = fr.path[:0]
	minX := -fr.stroke
	maxX := fixed.I(fr.profile.Size) + fr.stroke
	for _, x := range xs {
		fr.outline.appendText(&fr.path, text, toFixed(x), fr.baseline, minX, maxX)
	}
	if len(fr.path) == 0 {
		return
	}

	painter := raster.NewRGBAPainter(dst)

	fr.ras.Clear()
	fr.ras.AddStroke(fr.path, fr.stroke, raster.RoundCapper, raster.RoundJoiner)
	painter.SetColor(StrokeColor)
	fr.ras.Rasterize(painter)

	fr.ras.Clear()
	fr.ras.AddPath(fr.path)
	painter.SetColor(fr.style.Fill)
	fr.ras.Rasterize(painter)
}
