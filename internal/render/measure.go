package render

import (
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// FontMeasurer measures strings with faces from a FontRegistry.
type FontMeasurer struct {
	Fonts  *FontRegistry
	Logger Logger
}

func NewFontMeasurer(fonts *FontRegistry, logger Logger) *FontMeasurer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &FontMeasurer{Fonts: fonts, Logger: logger}
}

// MeasureText implements Measurer. Failures degrade to zero width.
func (m *FontMeasurer) MeasureText(text string, spec FontSpec) float64 {
	if m.Fonts == nil || spec.Size <= 0 || text == "" {
		return 0
	}
	f, err := m.Fonts.Font(spec.Family, spec.Bold)
	if err != nil {
		m.Logger.Errorf("measure", "font unavailable, measuring as zero: %v", err)
		return 0
	}
	face := newFace(f, spec.Size)
	defer face.Close()
	return fromFixed(font.MeasureString(face, text))
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}
