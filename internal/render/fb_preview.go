package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"sync/atomic"
	"time"

	fb "github.com/gonutz/framebuffer"
	xdraw "golang.org/x/image/draw"

	"github.com/rook-computer/marquee/internal/render/layout"
	"github.com/rook-computer/marquee/internal/state"
)

const (
	DefaultFramebuffer = "/dev/fb0"

	previewPoll     = 100 * time.Millisecond
	minPreviewDelay = 20 * time.Millisecond
)

// PreviewBackground shows through transparent GIF pixels.
var PreviewBackground = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}

// FBPreview plays the displayed result set on a Linux framebuffer, tiles
// side by side in order.
type FBPreview struct {
	Device string
	Logger Logger

	dev     *fb.Device
	canvas  *image.RGBA
	running atomic.Bool
}

func NewFBPreview(device string, logger Logger) *FBPreview {
	if device == "" {
		device = DefaultFramebuffer
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &FBPreview{Device: device, Logger: logger}
}

func (p *FBPreview) Start(ctx context.Context) error {
	dev, err := fb.Open(p.Device)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.Device, err)
	}
	p.dev = dev
	bounds := dev.Bounds()
	p.canvas = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	p.Logger.Infof("fb", "framebuffer %s open, bounds=%dx%d", p.Device, bounds.Dx(), bounds.Dy())
	p.running.Store(true)
	return nil
}

func (p *FBPreview) Stop() error {
	p.running.Store(false)
	if p.dev != nil {
		p.dev.Close()
		p.dev = nil
	}
	return nil
}

// RunLoop advances the animation at its own frame delay and picks up a new
// result set whenever the store's displayed token changes.
func (p *FBPreview) RunLoop(ctx context.Context, store *state.Store) {
	var anim *previewAnimation
	var shown uint64
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if !p.running.Load() {
			return
		}

		snap := store.Snapshot()
		switch {
		case snap.Current == nil:
			if anim != nil || shown == 0 {
				anim, shown = nil, ^uint64(0)
				p.clear()
			}
		case snap.Current.Token != shown:
			next, err := decodeResultSet(snap.Current)
			if err != nil {
				p.Logger.Errorf("fb", "decode batch %d: %v", snap.Current.Token, err)
			} else {
				p.Logger.Infof("fb", "previewing batch %d (%d tile(s), %d frames)", next.token, len(next.tiles), next.frames)
			}
			anim, shown = next, snap.Current.Token
		}

		if anim == nil {
			timer.Reset(previewPoll)
			continue
		}
		composePreview(p.canvas, anim.frame(anim.next))
		blitToFB(p.dev, p.canvas)
		anim.next = (anim.next + 1) % anim.frames
		timer.Reset(anim.delay)
	}
}

func (p *FBPreview) clear() {
	if p.canvas == nil {
		return
	}
	draw.Draw(p.canvas, p.canvas.Bounds(), &image.Uniform{C: PreviewBackground}, image.Point{}, draw.Src)
	blitToFB(p.dev, p.canvas)
}

// previewAnimation is a decoded result set. Tiles share frame count and
// delay, so one index drives all of them.
type previewAnimation struct {
	token  uint64
	tiles  []*gif.GIF
	frames int
	delay  time.Duration
	next   int
}

func decodeResultSet(rs *state.ResultSet) (*previewAnimation, error) {
	files := rs.Files()
	if len(files) == 0 {
		return nil, state.ErrReleased
	}
	anim := &previewAnimation{token: rs.Token, tiles: make([]*gif.GIF, len(files))}
	for i, f := range files {
		g, err := gif.DecodeAll(bytes.NewReader(f.Data))
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
		if len(g.Image) == 0 {
			return nil, fmt.Errorf("tile %d: no frames", i)
		}
		anim.tiles[i] = g
		if i == 0 || len(g.Image) < anim.frames {
			anim.frames = len(g.Image)
		}
	}
	anim.delay = time.Duration(anim.tiles[0].Delay[0]) * 10 * time.Millisecond
	if anim.delay < minPreviewDelay {
		anim.delay = minPreviewDelay
	}
	return anim, nil
}

// frame returns frame i of every tile.
func (a *previewAnimation) frame(i int) []image.Image {
	out := make([]image.Image, len(a.tiles))
	for t, g := range a.tiles {
		out[t] = g.Image[i%len(g.Image)]
	}
	return out
}

// composePreview lays tiles out in equal columns across dst, each scaled
// to the largest centred square, over PreviewBackground.
func composePreview(dst *image.RGBA, tiles []image.Image) {
	if dst == nil {
		return
	}
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: PreviewBackground}, image.Point{}, draw.Src)
	for i, col := range layout.Columns(dst.Bounds(), len(tiles)) {
		sq := layout.FitSquare(col)
		if sq.Empty() {
			continue
		}
		xdraw.NearestNeighbor.Scale(dst, sq, tiles[i], tiles[i].Bounds(), xdraw.Over, nil)
	}
}

// blitToFB copies the canvas onto the device, forcing opaque pixels.
func blitToFB(dev draw.Image, canvas *image.RGBA) {
	if dev == nil || canvas == nil {
		return
	}
	bounds := dev.Bounds()
	w, h := min(bounds.Dx(), canvas.Rect.Dx()), min(bounds.Dy(), canvas.Rect.Dy())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := canvas.RGBAAt(x, y)
			px.A = 0xFF
			dev.Set(bounds.Min.X+x, bounds.Min.Y+y, px)
		}
	}
}
