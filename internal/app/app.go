package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rook-computer/marquee/internal/marquee"
	"github.com/rook-computer/marquee/internal/state"
	"github.com/rook-computer/marquee/internal/web"
)

// Previewer mirrors the displayed result somewhere other than the browser.
type Previewer interface {
	Start(ctx context.Context) error
	Stop() error
	RunLoop(ctx context.Context, store *state.Store)
}

type App struct {
	Store        *state.Store
	Orchestrator *Orchestrator
	Web          web.Server
	Preview      Previewer
	Logger       Logger

	// Initial, when set, is generated as soon as the app starts so the page
	// never opens on an empty output area.
	Initial *marquee.RenderConfig

	exitOnce atomic.Bool
	exitCh   chan error
	stopOnce sync.Once
}

func New(store *state.Store, orchestrator *Orchestrator, webServer web.Server) *App {
	return &App{Store: store, Orchestrator: orchestrator, Web: webServer, Logger: NoopLogger{}, exitCh: make(chan error, 1)}
}

// Exit requests the app to stop running.
func (app *App) Exit(err error) {
	if app.exitCh == nil {
		return
	}
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

// Start runs the app until ctx is done or Exit is called.
func (app *App) Start(ctx context.Context) error {
	if app.Store == nil || app.Orchestrator == nil {
		return errors.New("app not configured")
	}
	if app.exitCh == nil {
		app.exitCh = make(chan error, 1)
	}
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}
	app.exitOnce.Store(false)

	if app.Web == nil {
		app.Web = &web.NoopServer{}
	}
	if err := app.Web.Start(ctx); err != nil {
		app.Logger.Errorf("app", "web start error: %v", err)
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if app.Preview != nil {
		if err := app.Preview.Start(loopCtx); err != nil {
			// The preview is optional; the web UI still works without it.
			app.Logger.Errorf("app", "preview start error: %v", err)
		} else {
			defer app.Preview.Stop()
			wg.Add(1)
			go func() {
				defer wg.Done()
				app.Preview.RunLoop(loopCtx, app.Store)
			}()
		}
	}

	if app.Initial != nil {
		app.Orchestrator.Trigger(app.Initial.Normalize())
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-app.exitCh:
	}
	cancel()
	wg.Wait()
	return err
}

// Stop cancels pending work, stops the web server and releases the
// displayed result set.
func (app *App) Stop() error {
	var err error
	app.stopOnce.Do(func() {
		if app.Orchestrator != nil {
			app.Orchestrator.Close()
		}
		if app.Web != nil {
			err = app.Web.Stop()
		}
		if app.Store != nil {
			app.Store.Close()
		}
	})
	return err
}
