// Package config loads the server settings: an optional .env file, an
// optional TOML file, then MARQUEE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/rook-computer/marquee/internal/marquee"
)

const (
	DefaultPath    = "marquee.toml"
	DefaultEnvFile = ".env"

	EnvWorkers     = "MARQUEE_WORKERS"
	EnvDebounceMs  = "MARQUEE_DEBOUNCE_MS"
	EnvFontDir     = "MARQUEE_FONT_DIR"
	EnvStaticDir   = "MARQUEE_STATIC_DIR"
	EnvFramebuffer = "MARQUEE_FB"

	MaxWorkers    = 64
	MaxDebounceMs = 10_000
)

type Config struct {
	Listen            string `toml:"listen"`
	DevMode           bool   `toml:"dev"`
	Workers           int    `toml:"workers"`
	DebounceMs        int    `toml:"debounce_ms"`
	FontDir           string `toml:"font_dir"`
	StaticDir         string `toml:"static_dir"`
	FramebufferDevice string `toml:"framebuffer"`

	// Defaults is the request generated at startup and the base of every
	// CLI invocation.
	Defaults marquee.RenderConfig `toml:"defaults"`
}

func Default() Config {
	return Config{
		Listen:     ":8080",
		Workers:    10,
		DebounceMs: 300,
		Defaults:   marquee.DefaultRenderConfig(),
	}
}

// Load builds a Config from defaults, env files, the TOML file at path and
// the environment, in that order. A missing DefaultPath is not an error;
// any other missing path is.
func Load(path string, envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !(path == DefaultPath && errors.Is(err, fs.ErrNotExist)) {
				return Config{}, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.Defaults = cfg.Defaults.Normalize()
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	explicit := len(files) > 0
	if !explicit {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err == nil {
			continue
		}
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("load env file %s: %w", f, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if raw := os.Getenv(EnvWorkers); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be an integer (got %q): %w", EnvWorkers, raw, err)
		}
		c.Workers = v
	}
	if raw := os.Getenv(EnvDebounceMs); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be an integer (got %q): %w", EnvDebounceMs, raw, err)
		}
		c.DebounceMs = v
	}
	if v := os.Getenv(EnvFontDir); v != "" {
		c.FontDir = v
	}
	if v := os.Getenv(EnvStaticDir); v != "" {
		c.StaticDir = v
	}
	if v := os.Getenv(EnvFramebuffer); v != "" {
		c.FramebufferDevice = v
	}
	return nil
}

func (c Config) Validate() error {
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d (got %d)", MaxWorkers, c.Workers)
	}
	if c.DebounceMs < 1 || c.DebounceMs > MaxDebounceMs {
		return fmt.Errorf("debounce_ms must be between 1 and %d (got %d)", MaxDebounceMs, c.DebounceMs)
	}
	if c.Defaults.Color != "" {
		if _, err := marquee.ParseColor(c.Defaults.Color); err != nil {
			return fmt.Errorf("defaults: %w", err)
		}
	}
	for name, dir := range map[string]string{"font_dir": c.FontDir, "static_dir": c.StaticDir} {
		if dir == "" {
			continue
		}
		st, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if !st.IsDir() {
			return fmt.Errorf("%s: %s is not a directory", name, dir)
		}
	}
	return nil
}

func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}
