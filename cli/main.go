// Command marquee-render renders one marquee to GIF files without starting
// the web server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rook-computer/marquee/internal/app"
	"github.com/rook-computer/marquee/internal/config"
	"github.com/rook-computer/marquee/internal/encode"
	"github.com/rook-computer/marquee/internal/marquee"
	"github.com/rook-computer/marquee/internal/render"
)

type options struct {
	ConfigPath string
	Color      string
	Font       string
	FontDir    string
	Bold       bool
	Continuous bool
	Speed      string
	Slack      bool
	Offset     bool
	OutDir     string
	Workers    int
	Verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(&options{}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "marquee-render [flags] [text...]",
		Short: "Render scrolling text to looping GIFs",
		Long: `marquee-render draws text as a horizontally scrolling marquee and writes
one looping GIF per tile. Defaults come from the [defaults] table of the
config file; flags override them.`,
		Example: `  # One 128px GIF in the current directory
  marquee-render "Hello World!"

  # Seamless loop, bold, green
  marquee-render --continuous --bold --color "#00ff00" "Now playing"

  # Split a long line into side-by-side 64px tiles
  marquee-render --slack --offset --out ./tiles "A much longer line of text"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, *opts, args)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.ConfigPath, "config", config.DefaultPath, "TOML config file providing [defaults]")
	flags.StringVar(&opts.Color, "color", marquee.DefaultColor, "fill color (#rgb or #rrggbb)")
	flags.StringVar(&opts.Font, "font", render.DefaultFamily, "font family")
	flags.StringVar(&opts.FontDir, "font-dir", "", "directory of extra .ttf families")
	flags.BoolVar(&opts.Bold, "bold", false, "use the bold face")
	flags.BoolVar(&opts.Continuous, "continuous", false, "seamless wraparound instead of a single pass")
	flags.StringVar(&opts.Speed, "speed", "2", "pixels advanced per frame (0.1 to 64)")
	flags.BoolVar(&opts.Slack, "slack", false, "64px canvas with at most 50 frames")
	flags.BoolVar(&opts.Offset, "offset", false, "split the scroll into up to 12 side-by-side tiles")
	flags.StringVarP(&opts.OutDir, "out", "o", ".", "output directory")
	flags.IntVar(&opts.Workers, "workers", 0, "concurrent tile workers (default from config)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log progress to stderr")
	return rootCmd
}

func run(cmd *cobra.Command, opts options, args []string) error {
	fileCfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	var logger app.Logger = app.NoopLogger{}
	if opts.Verbose {
		logger = app.NewFileLogger(cmd.ErrOrStderr())
	}

	cfg := renderConfig(cmd, opts, fileCfg.Defaults, args)
	workers := fileCfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	fonts, err := render.NewFontRegistry()
	if err != nil {
		return err
	}
	fonts.Logger = logger
	fontDir := fileCfg.FontDir
	if opts.FontDir != "" {
		fontDir = opts.FontDir
	}
	if err := fonts.LoadDir(fontDir); err != nil {
		return err
	}

	gen := &app.Generator{
		Measurer:   render.NewFontMeasurer(fonts, logger),
		NewPainter: app.FontPainters(fonts),
		Encoder:    encode.NewGIFEncoder(workers, logger),
		Workers:    workers,
		Logger:     logger,
	}
	rs, err := gen.Generate(cmd.Context(), 1, cfg)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer rs.Release()

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, f := range rs.Files() {
		path := filepath.Join(opts.OutDir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(out, "%s (%d bytes)\n", path, len(f.Data))
	}
	fmt.Fprintf(out, "%d frame(s) at %dms, %s profile\n", rs.FrameCount, rs.FrameDelayMs, cfg.Profile())
	return nil
}

// renderConfig starts from the config file defaults and applies the flags
// that were set explicitly. Positional arguments form the text.
func renderConfig(cmd *cobra.Command, opts options, defaults marquee.RenderConfig, args []string) marquee.RenderConfig {
	cfg := defaults
	if len(args) > 0 {
		cfg.Text = strings.Join(args, " ")
	}
	flags := cmd.Flags()
	if flags.Changed("color") {
		cfg.Color = opts.Color
	}
	if flags.Changed("font") {
		cfg.FontFamily = opts.Font
	}
	if flags.Changed("bold") {
		cfg.Bold = opts.Bold
	}
	if flags.Changed("continuous") {
		cfg.Continuous = opts.Continuous
	}
	if flags.Changed("speed") {
		cfg.PixelsPerFrame = marquee.ParseSpeed(opts.Speed)
	}
	if flags.Changed("slack") {
		cfg.SlackMode = opts.Slack
	}
	if flags.Changed("offset") {
		cfg.OffsetMode = opts.Offset
	}
	return cfg.Normalize()
}
