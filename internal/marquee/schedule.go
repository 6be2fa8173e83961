package marquee

import "math"

// MaxSlackFrames caps the frame count of reduced-fidelity animations.
const MaxSlackFrames = 50

// MaxBatchFrames caps frames times tiles for one batch. A paletted frame
// costs Size*Size bytes, so a Standard batch holds at most 75 MiB of frames.
const MaxBatchFrames = 4800

// FrameSchedule says how many frames to draw and how long each is shown.
type FrameSchedule struct {
	FrameCount     int
	PixelsPerFrame float64
	FrameDelayMs   int
}

// Schedule budgets frames for one loop. In slack mode a naive count above
// MaxSlackFrames is capped; the per-frame advance grows to cover the loop in
// MaxSlackFrames steps and the delay stretches by the same factor, so the
// perceived speed stays close to the requested one.
func Schedule(loopPeriodPx, pixelsPerFrame float64, frameDelayMs int, slack bool) FrameSchedule {
	if pixelsPerFrame < MinPixelsPerFrame || math.IsNaN(pixelsPerFrame) {
		pixelsPerFrame = MinPixelsPerFrame
	}
	naive := 1
	if loopPeriodPx > 0 {
		naive = int(math.Ceil(loopPeriodPx / pixelsPerFrame))
	}
	if naive < 1 {
		naive = 1
	}

	out := FrameSchedule{FrameCount: naive, PixelsPerFrame: pixelsPerFrame, FrameDelayMs: frameDelayMs}
	if !slack || naive <= MaxSlackFrames {
		return out
	}

	adjusted := loopPeriodPx / MaxSlackFrames
	slowdown := adjusted / pixelsPerFrame
	out.FrameCount = MaxSlackFrames
	out.PixelsPerFrame = adjusted
	out.FrameDelayMs = int(math.Floor(float64(frameDelayMs) * slowdown))
	return out
}

// DurationMs is the total loop time in milliseconds.
func (s FrameSchedule) DurationMs() int {
	return s.FrameCount * s.FrameDelayMs
}

// LimitBatch holds a schedule for tiles tiles to MaxBatchFrames in total.
// Over the budget, the advance per frame grows until the loop fits while
// the delay stays put: the text scrolls faster instead of stuttering.
func LimitBatch(s FrameSchedule, loopPeriodPx float64, tiles int) FrameSchedule {
	if tiles < 1 {
		tiles = 1
	}
	limit := MaxBatchFrames / tiles
	if s.FrameCount <= limit || loopPeriodPx <= 0 {
		return s
	}
	s.FrameCount = limit
	s.PixelsPerFrame = loopPeriodPx / float64(limit)
	return s
}

// SampleFrames returns up to n frame indices spread evenly over the loop.
func (s FrameSchedule) SampleFrames(n int) []int {
	if n <= 0 || s.FrameCount <= 0 {
		return nil
	}
	if n > s.FrameCount {
		n = s.FrameCount
	}
	out := make([]int, n)
	for k := range out {
		out[k] = k * s.FrameCount / n
	}
	return out
}
