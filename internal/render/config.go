package render

import "image/color"

// Global render colors shared by every profile.
var (
	// StrokeColor is the near-white outline painted under the fill.
	StrokeColor = color.RGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF} // #f5f5f5

	// TransparentKey is the background sentinel the encoder punches out.
	TransparentKey = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0x00}
)

// Profile is the closed set of canvas configurations.
type Profile int

const (
	Standard Profile = iota
	ReducedFidelity
)

// CanvasProfile is the structured settings record behind a Profile.
type CanvasProfile struct {
	Size          int // square canvas edge in pixels
	FontSize      int
	FrameDelayMs  int
	Quality       int // encoder sampling stride; lower is better
	StrokeWidthPx int
	PaletteSize   int
}

var profiles = map[Profile]CanvasProfile{
	Standard: {
		Size:          128,
		FontSize:      32,
		FrameDelayMs:  20,
		Quality:       10,
		StrokeWidthPx: 4,
		PaletteSize:   256,
	},
	ReducedFidelity: {
		Size:          64,
		FontSize:      16,
		FrameDelayMs:  40,
		Quality:       20,
		StrokeWidthPx: 2,
		PaletteSize:   64,
	},
}

// ProfileFor maps the slack flag onto a profile.
func ProfileFor(slack bool) Profile {
	if slack {
		return ReducedFidelity
	}
	return Standard
}

// Settings returns the settings record; unknown values fall back to Standard.
func (p Profile) Settings() CanvasProfile {
	if s, ok := profiles[p]; ok {
		return s
	}
	return profiles[Standard]
}

func (p Profile) String() string {
	switch p {
	case ReducedFidelity:
		return "reduced-fidelity"
	default:
		return "standard"
	}
}
