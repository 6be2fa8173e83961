package web

import (
	"context"
	"errors"

	"github.com/rook-computer/marquee/internal/marquee"
	"github.com/rook-computer/marquee/internal/state"
)

// Generator abstracts the orchestrator used by the API.
type Generator interface {
	Trigger(cfg marquee.RenderConfig)
	Run(ctx context.Context, cfg marquee.RenderConfig) (uint64, error)
	Token() uint64
}

// ResultStore abstracts the displayed result set.
type ResultStore interface {
	Snapshot() state.State
	Lookup(token uint64, index int) (state.File, error)
}

// FontLister reports the selectable font families.
type FontLister interface {
	Families() []string
}

// apiLogger matches the component logger used across the module.
type apiLogger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type APIV1Deps struct {
	Generator Generator
	Results   ResultStore
	Fonts     FontLister
	Logger    apiLogger

	// QRSize is the edge of generated QR codes in pixels.
	QRSize int
}

const defaultQRSize = 256

var errGeneratorNotConfigured = errors.New("generator not configured")

func (d APIV1Deps) withDefaults() APIV1Deps {
	out := d
	if out.Generator == nil {
		out.Generator = NoopGenerator{Err: errGeneratorNotConfigured}
	}
	if out.Results == nil {
		out.Results = state.NewStore()
	}
	if out.Fonts == nil {
		out.Fonts = staticFonts(nil)
	}
	if out.Logger == nil {
		out.Logger = noopAPILogger{}
	}
	if out.QRSize <= 0 {
		out.QRSize = defaultQRSize
	}
	return out
}

type NoopGenerator struct{ Err error }

func (NoopGenerator) Trigger(marquee.RenderConfig) {}

func (g NoopGenerator) Run(context.Context, marquee.RenderConfig) (uint64, error) {
	if g.Err != nil {
		return 0, g.Err
	}
	return 0, errGeneratorNotConfigured
}

func (NoopGenerator) Token() uint64 { return 0 }

type staticFonts []string

func (s staticFonts) Families() []string { return []string(s) }

type noopAPILogger struct{}

func (noopAPILogger) Infof(string, string, ...interface{})  {}
func (noopAPILogger) Errorf(string, string, ...interface{}) {}
