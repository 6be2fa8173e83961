package marquee

import (
	"math"

	"github.com/rook-computer/marquee/internal/render"
)

// edgeMarginPx widens the visibility test so stroke overhang is kept.
const edgeMarginPx = 8

// ScrollPlan is the geometry of one scroll loop.
type ScrollPlan struct {
	LoopPeriodPx    float64
	InitialOffsetPx float64
	DisplayText     string

	RawWidthPx     float64 // width of the input text alone; drives tiling
	DisplayWidthPx float64 // extent of one DisplayText draw
	RepeatStridePx float64 // distance between consecutive DisplayText draws
}

// Plan computes the loop geometry. It is a pure function of the measured
// widths, and a zero width degrades to a loop of exactly canvasSize.
func Plan(m render.Measurer, text string, spec render.FontSpec, canvasSize int, continuous bool) ScrollPlan {
	raw := sanitizeWidth(m.MeasureText(text, spec))
	size := float64(canvasSize)

	if continuous {
		unit := sanitizeWidth(m.MeasureText(text+" ", spec))
		plan := ScrollPlan{
			LoopPeriodPx:    unit,
			InitialOffsetPx: unit,
			DisplayText:     text + " " + text + " " + text,
			RawWidthPx:      raw,
			DisplayWidthPx:  3 * unit,
			RepeatStridePx:  3 * unit,
		}
		if unit <= 0 {
			plan.LoopPeriodPx = size
			plan.InitialOffsetPx = size
			plan.RepeatStridePx = size
		}
		return plan
	}

	return ScrollPlan{
		LoopPeriodPx:    raw + size,
		InitialOffsetPx: 0,
		DisplayText:     text,
		RawWidthPx:      raw,
		DisplayWidthPx:  raw,
		RepeatStridePx:  raw + size,
	}
}

// OffsetAt is the scroll offset of frame i at the given per-frame advance.
func (p ScrollPlan) OffsetAt(i int, pixelsPerFrame float64) float64 {
	if p.LoopPeriodPx <= 0 {
		return p.InitialOffsetPx
	}
	return p.InitialOffsetPx + math.Mod(float64(i)*pixelsPerFrame, p.LoopPeriodPx)
}

// Positions returns the pen x of every DisplayText draw that can touch a
// canvasSize-wide window shifted right by shiftPx. The first draw sits at
// canvasSize-offset-shift; repeats every RepeatStridePx keep the window
// covered in both scrolling modes.
func (p ScrollPlan) Positions(offset float64, shiftPx, canvasSize int) []float64 {
	x0 := float64(canvasSize) - offset - float64(shiftPx)
	stride := p.RepeatStridePx
	if stride <= 0 {
		return []float64{x0}
	}
	lo := -p.DisplayWidthPx - edgeMarginPx
	hi := float64(canvasSize) + edgeMarginPx
	kMin := int(math.Floor((lo-x0)/stride)) + 1
	kMax := int(math.Ceil((hi-x0)/stride)) - 1

	if kMax < kMin {
		return nil
	}
	xs := make([]float64, 0, kMax-kMin+1)
	for k := kMin; k <= kMax; k++ {
		xs = append(xs, x0+float64(k)*stride)
	}
	return xs
}

func sanitizeWidth(w float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0
	}
	return w
}
