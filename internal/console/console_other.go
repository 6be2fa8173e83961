//go:build !linux

package console

import "context"

// EnterGraphics is a no-op off Linux.
func EnterGraphics(logger Logger) (restore func()) {
	orNoop(logger).Infof("tty", "console modes unsupported on this platform")
	return func() {}
}

// WatchKeys is a no-op off Linux.
func WatchKeys(ctx context.Context, logger Logger, keys []uint16, onPress func()) {}
