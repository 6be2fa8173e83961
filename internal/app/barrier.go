package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rook-computer/marquee/internal/encode"
)

// barrier joins the tiles of one batch. It releases when every slot is
// filled, or at the first failure.
type barrier struct {
	mu        sync.Mutex
	results   [][]byte
	completed int
	err       error
	done      chan struct{}
}

func newBarrier(n int) *barrier {
	b := &barrier{results: make([][]byte, n), done: make(chan struct{})}
	if n == 0 {
		close(b.done)
	}
	return b
}

func (b *barrier) complete(index int, data []byte, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil || b.completed == len(b.results) {
		return
	}
	if err != nil {
		b.err = fmt.Errorf("tile %d: %w", index, err)
		close(b.done)
		return
	}
	b.results[index] = data
	b.completed++
	if b.completed == len(b.results) {
		close(b.done)
	}
}

// wait returns the results in ascending tile order.
func (b *barrier) wait(ctx context.Context) ([][]byte, error) {
	select {
	case <-b.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return b.results, nil
}

// joinFutures awaits every future into one barrier.
func joinFutures(ctx context.Context, futures []*encode.Future) ([][]byte, error) {
	b := newBarrier(len(futures))
	for i, f := range futures {
		go func(index int, f *encode.Future) {
			data, err := f.Await(ctx)
			b.complete(index, data, err)
		}(i, f)
	}
	return b.wait(ctx)
}
