package marquee

import (
	"context"
	"errors"
	"image"

	"github.com/rook-computer/marquee/internal/render"
	"github.com/rook-computer/marquee/internal/render/layout"
)

var ErrEmptySchedule = errors.New("frame schedule is empty")

// FramePainter is the slice of render.FrameRenderer the sequence needs.
type FramePainter interface {
	NewFrame() *image.RGBA
	Render(dst *image.RGBA, text string, xs []float64)
}

var _ FramePainter = (*render.FrameRenderer)(nil)

// Batch is everything derived from one RenderConfig before any drawing.
type Batch struct {
	Config   RenderConfig
	Profile  render.CanvasProfile
	Plan     ScrollPlan
	Schedule FrameSchedule
	Tiles    []layout.Tile
}

// Prepare runs the planner, the budgeter and the tile splitter, then holds
// the batch to MaxBatchFrames.
func Prepare(m render.Measurer, cfg RenderConfig) Batch {
	cfg = cfg.Normalize()
	profile := cfg.Profile().Settings()
	plan := Plan(m, cfg.Text, cfg.FontSpec(profile), profile.Size, cfg.Continuous)
	tiles := layout.Split(plan.RawWidthPx, profile.Size, cfg.OffsetMode)
	schedule := Schedule(plan.LoopPeriodPx, cfg.PixelsPerFrame, profile.FrameDelayMs, cfg.SlackMode)
	return Batch{
		Config:   cfg,
		Profile:  profile,
		Plan:     plan,
		Schedule: LimitBatch(schedule, plan.LoopPeriodPx, len(tiles)),
		Tiles:    tiles,
	}
}

// FrameSink receives the frames of one tile in order. The image is reused
// for the next frame, so a sink keeps a converted copy, never the image.
type FrameSink func(i int, frame *image.RGBA) error

// RenderTile draws the ordered frame sequence of one tile into a single
// scratch canvas and hands each frame to sink. Every tile of a batch shares
// the plan and schedule, so tiles play in lockstep.
func RenderTile(ctx context.Context, p FramePainter, b Batch, tile layout.Tile, sink FrameSink) error {
	if b.Schedule.FrameCount <= 0 {
		return ErrEmptySchedule
	}
	frame := p.NewFrame()
	for i := range b.Schedule.FrameCount {
		if err := ctx.Err(); err != nil {
			return err
		}
		DrawFrame(p, b, tile, i, frame)
		if err := sink(i, frame); err != nil {
			return err
		}
	}
	return nil
}

// DrawFrame renders frame i of tile into dst.
func DrawFrame(p FramePainter, b Batch, tile layout.Tile, i int, dst *image.RGBA) {
	offset := b.Plan.OffsetAt(i, b.Schedule.PixelsPerFrame)
	p.Render(dst, b.Plan.DisplayText, b.Plan.Positions(offset, tile.HorizontalShiftPx, b.Profile.Size))
}
