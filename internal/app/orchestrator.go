package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rook-computer/marquee/internal/marquee"
	"github.com/rook-computer/marquee/internal/state"
)

// ErrStale reports a batch that finished after a newer one started.
var ErrStale = state.ErrStale

var ErrClosed = errors.New("orchestrator closed")

const DefaultDebounce = 300 * time.Millisecond

// Orchestrator owns the generation token and decides which batch reaches
// the store. Only the most recently started batch may install its results.
// Batches run under the orchestrator's context, never a caller's.
type Orchestrator struct {
	Generator *Generator
	Store     *state.Store
	Logger    Logger
	Debounce  time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	token atomic.Uint64

	mu      sync.Mutex // guards timer, closed and pending.Add
	timer   *time.Timer
	closed  bool
	pending sync.WaitGroup

	installMu sync.Mutex // orders token issue, Begin and install
}

func NewOrchestrator(ctx context.Context, gen *Generator, store *state.Store, debounce time.Duration, logger Logger) *Orchestrator {
	if logger == nil {
		logger = NoopLogger{}
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	runCtx, cancel := context.WithCancel(ctx)
	return &Orchestrator{
		Generator: gen,
		Store:     store,
		Logger:    logger,
		Debounce:  debounce,
		ctx:       runCtx,
		cancel:    cancel,
	}
}

// Token returns the most recently issued generation token.
func (o *Orchestrator) Token() uint64 { return o.token.Load() }

// Trigger schedules a batch for cfg once input has been quiet for the
// debounce interval. A trigger inside the interval replaces the pending one.
// The store reports the request as pending from this call on.
func (o *Orchestrator) Trigger(cfg marquee.RenderConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if o.timer != nil && o.timer.Stop() {
		// The replaced timer's queue entry carries over.
		o.pending.Done()
	} else {
		o.Store.Queue()
	}
	o.pending.Add(1)
	o.timer = time.AfterFunc(o.Debounce, func() {
		defer o.pending.Done()
		token := o.begin()
		o.Store.Unqueue()
		if err := o.finish(token, cfg); err != nil && !errors.Is(err, ErrStale) && !errors.Is(err, context.Canceled) {
			o.Logger.Errorf("orchestrator", "batch failed: %v", err)
		}
	})
}

// Run generates cfg immediately under a fresh token and installs the
// result unless a newer batch has started in the meantime. ctx only bounds
// the wait: when it ends first, Run returns ctx.Err() and the batch still
// completes in the background.
func (o *Orchestrator) Run(ctx context.Context, cfg marquee.RenderConfig) (uint64, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return 0, ErrClosed
	}
	o.pending.Add(1)
	o.mu.Unlock()

	token := o.begin()
	done := make(chan error, 1)
	go func() {
		defer o.pending.Done()
		done <- o.finish(token, cfg)
	}()

	select {
	case err := <-done:
		return token, err
	case <-ctx.Done():
		return token, ctx.Err()
	}
}

func (o *Orchestrator) begin() uint64 {
	o.installMu.Lock()
	defer o.installMu.Unlock()
	token := o.token.Add(1)
	o.Store.Begin(token)
	return token
}

func (o *Orchestrator) finish(token uint64, cfg marquee.RenderConfig) error {
	rs, err := o.Generator.Generate(o.ctx, token, cfg)

	o.installMu.Lock()
	defer o.installMu.Unlock()
	if token != o.token.Load() {
		if rs != nil {
			rs.Release()
		}
		o.Logger.Infof("orchestrator", "batch %d discarded, current is %d", token, o.token.Load())
		return ErrStale
	}
	switch {
	case err != nil && o.ctx.Err() != nil:
		// Shutting down: keep whatever is displayed.
		o.Store.Abort()
		return err
	case err != nil:
		o.Store.Fail(err)
		return err
	}
	o.Store.Install(rs)
	o.Logger.Infof("orchestrator", "batch %d installed (%d file(s))", token, rs.Len())
	return nil
}

// Close cancels in-flight work and waits for any fired trigger or running
// batch to return.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	if o.timer != nil && o.timer.Stop() {
		o.pending.Done()
		o.Store.Unqueue()
	}
	o.mu.Unlock()
	o.cancel()
	o.pending.Wait()
}
