package marquee

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rook-computer/marquee/internal/render"
)

const (
	DefaultText           = "Hello World!"
	DefaultColor          = "#ff0000"
	DefaultPixelsPerFrame = 2.0
	MinPixelsPerFrame     = 0.1
	MaxPixelsPerFrame     = 64.0
	MaxTextRunes          = 280
)

// RenderConfig is the immutable input of one generation request.
type RenderConfig struct {
	Text           string  `json:"text" toml:"text"`
	Color          string  `json:"color" toml:"color"`
	FontFamily     string  `json:"font" toml:"font"`
	Bold           bool    `json:"bold" toml:"bold"`
	Continuous     bool    `json:"continuous" toml:"continuous"`
	PixelsPerFrame float64 `json:"speed" toml:"speed"`
	SlackMode      bool    `json:"slack" toml:"slack"`
	OffsetMode     bool    `json:"offset" toml:"offset"`
}

func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Text:           DefaultText,
		Color:          DefaultColor,
		FontFamily:     render.DefaultFamily,
		PixelsPerFrame: DefaultPixelsPerFrame,
	}
}

// Normalize coerces every field into its valid range. It never fails: the
// request comes from live editing, and a bad keystroke must still render.
func (c RenderConfig) Normalize() RenderConfig {
	if strings.TrimSpace(c.Text) == "" {
		c.Text = DefaultText
	}
	if utf8.RuneCountInString(c.Text) > MaxTextRunes {
		c.Text = string([]rune(c.Text)[:MaxTextRunes])
	}
	if _, err := ParseColor(c.Color); err != nil {
		c.Color = DefaultColor
	}
	if strings.TrimSpace(c.FontFamily) == "" {
		c.FontFamily = render.DefaultFamily
	}
	c.PixelsPerFrame = clampSpeed(c.PixelsPerFrame)
	return c
}

// Profile selects the canvas profile for this request.
func (c RenderConfig) Profile() render.Profile {
	return render.ProfileFor(c.SlackMode)
}

// Style returns the paint style; an unparsable color yields the default.
func (c RenderConfig) Style() render.Style {
	fill, err := ParseColor(c.Color)
	if err != nil {
		fill, _ = ParseColor(DefaultColor)
	}
	return render.Style{Family: c.FontFamily, Bold: c.Bold, Fill: fill}
}

// FontSpec returns the measuring spec for a profile.
func (c RenderConfig) FontSpec(p render.CanvasProfile) render.FontSpec {
	return render.FontSpec{Family: c.FontFamily, Size: float64(p.FontSize), Bold: c.Bold}
}

// ParseSpeed coerces raw UI input; anything non-numeric becomes the default.
func ParseSpeed(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return DefaultPixelsPerFrame
	}
	return clampSpeed(v)
}

// clampSpeed floors 0 at MinPixelsPerFrame; values that are not a speed at
// all fall back to the default.
func clampSpeed(v float64) float64 {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0) || v < 0:
		return DefaultPixelsPerFrame
	case v < MinPixelsPerFrame:
		return MinPixelsPerFrame
	case v > MaxPixelsPerFrame:
		return MaxPixelsPerFrame
	}
	return v
}

// ParseColor accepts "#rgb" or "#rrggbb" (leading '#' optional).
func ParseColor(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}
