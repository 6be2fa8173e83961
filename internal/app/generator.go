package app

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rook-computer/marquee/internal/encode"
	"github.com/rook-computer/marquee/internal/marquee"
	"github.com/rook-computer/marquee/internal/render"
	"github.com/rook-computer/marquee/internal/render/layout"
	"github.com/rook-computer/marquee/internal/state"
)

// PainterFactory builds one frame painter per tile.
type PainterFactory func(profile render.CanvasProfile, style render.Style) (marquee.FramePainter, error)

// FontPainters returns a PainterFactory backed by freetype frame renderers.
func FontPainters(fonts *render.FontRegistry) PainterFactory {
	return func(profile render.CanvasProfile, style render.Style) (marquee.FramePainter, error) {
		return render.NewFrameRenderer(fonts, profile, style)
	}
}

// Generator runs one batch end to end: plan, schedule, split, render every
// tile, encode every tile and join the results.
type Generator struct {
	Measurer   render.Measurer
	NewPainter PainterFactory
	Encoder    encode.Encoder
	Workers    int
	Logger     Logger
}

func (g *Generator) Generate(ctx context.Context, token uint64, cfg marquee.RenderConfig) (*state.ResultSet, error) {
	if g.Measurer == nil || g.NewPainter == nil || g.Encoder == nil {
		return nil, fmt.Errorf("generator not configured")
	}
	logger := g.Logger
	if logger == nil {
		logger = NoopLogger{}
	}
	started := time.Now()

	b := marquee.Prepare(g.Measurer, cfg)
	logger.Infof("generate", "batch %d: %d tile(s), %d frames @ %.2fpx/%dms, period %.1fpx",
		token, len(b.Tiles), b.Schedule.FrameCount, b.Schedule.PixelsPerFrame, b.Schedule.FrameDelayMs, b.Plan.LoopPeriodPx)

	futures := make([]*encode.Future, len(b.Tiles))
	group, groupCtx := errgroup.WithContext(ctx)
	if g.Workers > 0 {
		group.SetLimit(g.Workers)
	}
	for _, tile := range b.Tiles {
		group.Go(func() error {
			futures[tile.Index] = g.renderAndEncode(groupCtx, ctx, b, tile)
			return groupCtx.Err()
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	blobs, err := joinFutures(ctx, futures)
	if err != nil {
		logger.Errorf("generate", "batch %d failed: %v", token, err)
		return nil, err
	}

	files := make([]state.File, len(blobs))
	for i, data := range blobs {
		files[i] = state.File{Name: marquee.FileName(b.Config.Text, i), Data: data}
	}
	rs := state.NewResultSet(token, files)
	rs.FrameCount = b.Schedule.FrameCount
	rs.FrameDelayMs = b.Schedule.FrameDelayMs
	rs.Size = b.Profile.Size
	logger.Infof("generate", "batch %d done in %s", token, time.Since(started).Round(time.Millisecond))
	return rs, nil
}

// paletteSamples is how many frames of a tile feed its palette.
const paletteSamples = 8

// renderAndEncode draws one tile and hands its frames to the encoder. Each
// frame is quantized as soon as it is drawn, so only one RGBA canvas per
// tile is ever alive. Render failures surface through the returned future
// like encode failures.
func (g *Generator) renderAndEncode(renderCtx, encodeCtx context.Context, b marquee.Batch, tile layout.Tile) *encode.Future {
	painter, err := g.NewPainter(b.Profile, b.Config.Style())
	if err != nil {
		return encode.Resolved(nil, fmt.Errorf("painter: %w", err))
	}
	q := encode.NewQuantizer(samplePalette(painter, b, tile))
	frames := make([]*image.Paletted, 0, b.Schedule.FrameCount)
	err = marquee.RenderTile(renderCtx, painter, b, tile, func(_ int, frame *image.RGBA) error {
		frames = append(frames, q.Quantize(frame))
		return nil
	})
	if err != nil {
		return encode.Resolved(nil, fmt.Errorf("render: %w", err))
	}
	return g.Encoder.Encode(encodeCtx, encode.Job{
		Tile:    tile.Index,
		Frames:  frames,
		DelayMs: b.Schedule.FrameDelayMs,
		Width:   b.Profile.Size,
		Height:  b.Profile.Size,
	})
}

// samplePalette builds a tile's global palette from frames spread over the
// loop plus the text drawn at the left edge, so a tile that is blank in
// every sample still gets the text colours.
func samplePalette(p marquee.FramePainter, b marquee.Batch, tile layout.Tile) color.Palette {
	pb := encode.NewPaletteBuilder(b.Profile.Quality, b.Profile.PaletteSize, render.TransparentKey)
	scratch := p.NewFrame()
	p.Render(scratch, b.Plan.DisplayText, []float64{0})
	pb.Add(scratch)
	for _, i := range b.Schedule.SampleFrames(paletteSamples) {
		marquee.DrawFrame(p, b, tile, i, scratch)
		pb.Add(scratch)
	}
	return pb.Palette()
}
