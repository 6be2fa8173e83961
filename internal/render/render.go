package render

import (
	"image/color"

	"golang.org/x/image/math/fixed"
)

// Measurer returns the rendered pixel width of a string (left alignment,
// middle baseline). Implementations must not fail: an unusable font
// measures as zero.
type Measurer interface {
	MeasureText(text string, spec FontSpec) float64
}

// FontSpec selects a face from the registry.
type FontSpec struct {
	Family string
	Size   float64 // pixels; the registry renders at 72 DPI so points == pixels
	Bold   bool
}

// Style is the per-request paint configuration of a frame.
type Style struct {
	Family string
	Bold   bool
	Fill   color.RGBA
}

// Logger matches the component logger used across the application.
type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

// SafeForeground nudges a color whose RGB equals the transparent key so it
// is never punched out by the encoder. The result is always opaque.
func SafeForeground(c color.RGBA) color.RGBA {
	c.A = 0xFF
	if c.R == TransparentKey.R && c.G == TransparentKey.G && c.B == TransparentKey.B {
		c.R, c.G, c.B = c.R+1, c.G+1, c.B+1
	}
	return c
}

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }
