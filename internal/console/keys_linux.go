//go:build linux

package console

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// eventLayout is the size of struct input_event and the offset of its
// type field, which follows the arch-dependent timeval.
func eventLayout() (size, tvSize int) {
	tvSize = binary.Size(unix.Timeval{})
	if tvSize <= 0 {
		tvSize = 16
	}
	return tvSize + 2 + 2 + 4, tvSize
}

// WatchKeys reads every /dev/input/event* device and calls onPress once,
// the first time any of keys goes down. Devices that cannot be opened are
// skipped; with none at all WatchKeys logs and returns.
func WatchKeys(ctx context.Context, logger Logger, keys []uint16, onPress func()) {
	logger = orNoop(logger)
	if onPress == nil || len(keys) == 0 {
		return
	}
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil || len(paths) == 0 {
		logger.Infof("input", "no evdev devices; quit keys disabled")
		return
	}

	var once sync.Once
	fire := func(code uint16) {
		once.Do(func() {
			logger.Infof("input", "key %d pressed: exiting", code)
			onPress()
		})
	}
	for _, path := range paths {
		go watchDevice(ctx, path, keys, fire)
	}
}

func watchDevice(ctx context.Context, path string, keys []uint16, fire func(uint16)) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return
	}
	f := os.NewFile(uintptr(fd), path)
	defer f.Close()

	size, tvSize := eventLayout()
	buf := make([]byte, 64*size)
	for ctx.Err() == nil {
		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pollFds, 250); err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}
		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}
		if code, ok := findKeyDown(buf[:n], size, tvSize, keys); ok {
			fire(code)
			return
		}
	}
}
