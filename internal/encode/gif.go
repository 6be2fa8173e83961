package encode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"

	"golang.org/x/sync/semaphore"
)

const DefaultWorkers = 10

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

// GIFEncoder encodes looping palette animations with image/gif. At most
// Workers encodes run at once; further jobs queue on the semaphore.
type GIFEncoder struct {
	Workers int
	Logger  Logger

	sem *semaphore.Weighted
}

func NewGIFEncoder(workers int, logger Logger) *GIFEncoder {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &GIFEncoder{Workers: workers, Logger: logger, sem: semaphore.NewWeighted(int64(workers))}
}

func (e *GIFEncoder) Encode(ctx context.Context, job Job) *Future {
	f := NewFuture()
	go func() {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			f.Resolve(nil, err)
			return
		}
		defer e.sem.Release(1)

		data, err := EncodeGIF(ctx, job)
		if err != nil {
			e.Logger.Errorf("encode", "tile %d failed: %v", job.Tile, err)
		} else {
			e.Logger.Infof("encode", "tile %d: %d frames, %d bytes", job.Tile, len(job.Frames), len(data))
		}
		f.Resolve(data, err)
	}()
	return f
}

// EncodeGIF encodes job synchronously. The frames' shared palette becomes
// the global colour table; frames are disposed to background so transparent
// pixels never show the previous frame.
func EncodeGIF(ctx context.Context, job Job) ([]byte, error) {
	if len(job.Frames) == 0 {
		return nil, ErrNoFrames
	}
	first := job.Frames[0]
	if first == nil {
		return nil, fmt.Errorf("frame 0 is nil")
	}
	width, height := job.Width, job.Height
	if width <= 0 || height <= 0 {
		b := first.Bounds()
		width, height = b.Dx(), b.Dy()
	}

	anim := &gif.GIF{
		Image:     job.Frames,
		Delay:     make([]int, len(job.Frames)),
		Disposal:  make([]byte, len(job.Frames)),
		LoopCount: 0,
		Config:    image.Config{ColorModel: first.Palette, Width: width, Height: height},
	}
	delay := delayCentiseconds(job.DelayMs)
	for i, frame := range job.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if frame == nil {
			return nil, fmt.Errorf("frame %d is nil", i)
		}
		anim.Delay[i] = delay
		anim.Disposal[i] = gif.DisposalBackground
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("gif encode: %w", err)
	}
	return buf.Bytes(), nil
}

// delayCentiseconds converts ms to GIF delay units, rounding to nearest.
// Most viewers clamp anything below 2 (20ms) to a slow default, so 2 is the
// floor.
func delayCentiseconds(ms int) int {
	cs := (ms + 5) / 10
	if cs < 2 {
		cs = 2
	}
	return cs
}
