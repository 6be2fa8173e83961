package web

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvListenAddr = "MARQUEE_LISTEN"
	EnvDevMode    = "MARQUEE_DEV"

	DefaultListenAddr = ":8080"
)

// ServerConfig contains settings for running the HTTP server.
type ServerConfig struct {
	ListenAddr string
	DevMode    bool
}

// ServerConfigFromEnv overlays the MARQUEE_LISTEN and MARQUEE_DEV
// environment variables on base.
func ServerConfigFromEnv(base ServerConfig) (ServerConfig, error) {
	out := base
	if listenAddr := os.Getenv(EnvListenAddr); listenAddr != "" {
		out.ListenAddr = listenAddr
	}
	if out.ListenAddr == "" {
		out.ListenAddr = DefaultListenAddr
	}

	if raw := os.Getenv(EnvDevMode); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%s must be a boolean (got %q): %w", EnvDevMode, raw, err)
		}
		out.DevMode = parsed
	}
	return out, nil
}
