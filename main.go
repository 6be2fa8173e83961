package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rook-computer/marquee/internal/app"
	"github.com/rook-computer/marquee/internal/config"
	"github.com/rook-computer/marquee/internal/console"
	"github.com/rook-computer/marquee/internal/encode"
	"github.com/rook-computer/marquee/internal/render"
	"github.com/rook-computer/marquee/internal/state"
	"github.com/rook-computer/marquee/internal/web"
)

func main() {
	fmt.Println("Marquee starting")

	// Flags
	configPath := flag.String("config", config.DefaultPath, "TOML config file")
	envFile := flag.String("env", "", "load environment variables from this file (default ./.env if present)")
	listen := flag.String("listen", "", "HTTP listen address; also configurable via MARQUEE_LISTEN")
	dev := flag.Bool("dev", false, "enable permissive CORS for a separately served UI; also MARQUEE_DEV")
	workers := flag.Int("workers", 0, "concurrent tile workers (render pool and encoder cap)")
	fbDevice := flag.String("fb", "", "play the current result on this framebuffer device, e.g. /dev/fb0 (Esc or F4 quits)")
	staticDir := flag.String("static", "", "serve the UI from this directory instead of the embedded page")
	noInitial := flag.Bool("no-initial", false, "do not generate the default marquee at startup")
	debug := flag.Bool("debug", false, "enable debug logging to ./marquee-debug.log")
	stdioLog := flag.String("stdio-log", "", "redirect stdout+stderr (including panics) to this file; also configurable via MARQUEE_STDIO_LOG")
	flag.Parse()

	logPath := *stdioLog
	if logPath == "" {
		logPath = os.Getenv("MARQUEE_STDIO_LOG")
	}
	if logPath != "" {
		if err := redirectStdIO(logPath); err != nil {
			fmt.Println("stdio log redirect error:", err)
		}
	}

	var logger app.Logger = app.NoopLogger{}
	if *debug {
		f, err := os.OpenFile("./marquee-debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			defer f.Close()
			logger = app.NewFileLogger(f)
			logger.Infof("main", "debug logging enabled")
		} else {
			fmt.Println("debug log open error:", err)
		}
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(*configPath, envFiles...)
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}

	serverCfg, err := web.ServerConfigFromEnv(web.ServerConfig{ListenAddr: cfg.Listen, DevMode: cfg.DevMode})
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}

	// Explicit flags win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			serverCfg.ListenAddr = *listen
		case "dev":
			serverCfg.DevMode = *dev
		case "workers":
			cfg.Workers = *workers
		case "fb":
			cfg.FramebufferDevice = *fbDevice
		case "static":
			cfg.StaticDir = *staticDir
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}

	fonts, err := render.NewFontRegistry()
	if err != nil {
		fmt.Println("font error:", err)
		os.Exit(1)
	}
	fonts.Logger = logger
	if err := fonts.LoadDir(cfg.FontDir); err != nil {
		logger.Errorf("main", "font dir %s: %v", cfg.FontDir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := state.NewStore()
	generator := &app.Generator{
		Measurer:   render.NewFontMeasurer(fonts, logger),
		NewPainter: app.FontPainters(fonts),
		Encoder:    encode.NewGIFEncoder(cfg.Workers, logger),
		Workers:    cfg.Workers,
		Logger:     logger,
	}
	orchestrator := app.NewOrchestrator(ctx, generator, store, cfg.Debounce(), logger)

	server := web.NewHTTPServer(serverCfg, web.APIV1Deps{
		Generator: orchestrator,
		Results:   store,
		Fonts:     fonts,
		Logger:    logger,
	})
	server.StaticDir = cfg.StaticDir

	a := app.New(store, orchestrator, server)
	a.Logger = logger
	if cfg.FramebufferDevice != "" {
		a.Preview = render.NewFBPreview(cfg.FramebufferDevice, logger)
		restore := console.EnterGraphics(logger)
		defer restore()
		console.WatchKeys(ctx, logger, console.DefaultQuitKeys, func() { a.Exit(nil) })
	}
	if !*noInitial {
		initial := cfg.Defaults
		a.Initial = &initial
	}

	fmt.Println("Marquee listening on", serverCfg.ListenAddr)
	if err := a.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println("app error:", err)
	}

	if err := a.Stop(); err != nil {
		fmt.Println("app stop error:", err)
	}
}
