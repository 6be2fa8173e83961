//go:build linux

package console

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// KD console modes from linux/kd.h
const (
	kdText     = 0x00
	kdGraphics = 0x01
	kdSetMode  = 0x4B3A // KDSETMODE ioctl
)

// vtPaths are tried in order: the controlling VT, then the active one.
var vtPaths = []string{"/dev/tty", "/dev/tty0"}

// EnterGraphics switches the active VT to KD_GRAPHICS and hides the text
// cursor so it cannot blink through the preview. The returned func restores
// text mode; it is safe to call when entering failed.
func EnterGraphics(logger Logger) (restore func()) {
	logger = orNoop(logger)
	graphics := setMode(kdGraphics) == nil
	if graphics {
		logger.Infof("tty", "KD_GRAPHICS set")
	} else {
		logger.Errorf("tty", "KD_GRAPHICS unavailable; cursor may show")
	}
	if err := writeVT("\x1b[?25l"); err != nil {
		logger.Errorf("tty", "hide cursor: %v", err)
	}

	return func() {
		if err := writeVT("\x1b[?25h"); err != nil {
			logger.Errorf("tty", "show cursor: %v", err)
		}
		if !graphics {
			return
		}
		if err := setMode(kdText); err != nil {
			logger.Errorf("tty", "KD_TEXT: %v", err)
		}
	}
}

func setMode(mode int) error {
	var lastErr error
	for _, p := range vtPaths {
		fd, err := unix.Open(p, unix.O_RDONLY, 0)
		if err != nil {
			lastErr = fmt.Errorf("open %s: %w", p, err)
			continue
		}
		err = unix.IoctlSetInt(fd, kdSetMode, mode)
		_ = unix.Close(fd)
		if err != nil {
			lastErr = fmt.Errorf("KDSETMODE %d on %s: %w", mode, p, err)
			continue
		}
		return nil
	}
	return lastErr
}

func writeVT(s string) error {
	var lastErr error
	for _, p := range vtPaths {
		f, err := os.OpenFile(p, os.O_WRONLY, 0)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = f.WriteString(s)
		_ = f.Close()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("write VT: %w", lastErr)
}
