package encode

import (
	"context"
	"errors"
	"image"
	"sync"
)

var ErrNoFrames = errors.New("no frames to encode")

// Job is one tile's ordered frame sequence, already quantized by a
// Quantizer, plus the animation timing. Frames share one palette whose
// entry 0 is transparent, and must not be mutated after the job is handed
// to an Encoder.
type Job struct {
	Tile          int
	Frames        []*image.Paletted
	DelayMs       int
	Width, Height int
}

// Encoder turns a Job into an animation asynchronously.
type Encoder interface {
	Encode(ctx context.Context, job Job) *Future
}

// Future is the pending outcome of one Encode call: bytes or an error,
// never both.
type Future struct {
	done chan struct{}
	once sync.Once
	data []byte
	err  error
}

func NewFuture() *Future { return &Future{done: make(chan struct{})} }

// Resolved returns an already completed Future.
func Resolved(data []byte, err error) *Future {
	f := NewFuture()
	f.Resolve(data, err)
	return f
}

// Resolve completes the future; only the first call has an effect.
func (f *Future) Resolve(data []byte, err error) {
	f.once.Do(func() {
		if err != nil {
			data = nil
		}
		f.data, f.err = data, err
		close(f.done)
	})
}

// Done is closed once the future is resolved.
func (f *Future) Done() <-chan struct{} { return f.done }

// Await blocks until the future resolves or ctx ends.
func (f *Future) Await(ctx context.Context) ([]byte, error) {
	select {
	case <-f.done:
		return f.data, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
