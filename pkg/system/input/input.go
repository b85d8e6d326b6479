//go:build linux

// Package input listens on Linux evdev devices and reports that the user
// touched something. Only the fact that an event arrived matters; positions
// and key codes are not interpreted.
package input

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Event types from linux/input-event-codes.h.
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03
)

// rawEvent mirrors struct input_event.
type rawEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

var eventSize = binary.Size(rawEvent{})

const (
	DefaultSysRoot = "/sys"
	DefaultDevRoot = "/dev"
)

// Discover returns the event device nodes that report absolute axes, which
// covers touchscreens and touchpads.
func Discover(sysRoot, devRoot string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(sysRoot, "class", "input", "event*"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range matches {
		caps, err := os.ReadFile(filepath.Join(m, "device", "capabilities", "abs"))
		if err != nil {
			continue
		}
		if hasBits(string(caps)) {
			out = append(out, filepath.Join(devRoot, "input", filepath.Base(m)))
		}
	}
	return out, nil
}

// hasBits reports whether a sysfs capability bitmap (space separated hex
// words) has any bit set.
func hasBits(bitmap string) bool {
	for _, w := range strings.Fields(bitmap) {
		if strings.Trim(w, "0") != "" {
			return true
		}
	}
	return false
}

// Decode reads input_event records from r and calls notify for every key or
// absolute-axis event until r is exhausted or fails.
func Decode(r io.Reader, notify func()) error {
	var ev rawEvent
	for {
		if err := binary.Read(r, binary.NativeEndian, &ev); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
		switch ev.Type {
		case evKey, evAbs:
			notify()
		case evSyn:
		}
	}
}

// Listen opens the device at path and calls notify for each interaction
// until ctx is done.
func Listen(ctx context.Context, path string, notify func()) error {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	// A non-blocking descriptor lets the runtime poller park reads, so
	// closing the file unblocks Decode.
	f := os.NewFile(uintptr(fd), path)

	stop := context.AfterFunc(ctx, func() { _ = f.Close() })
	defer func() {
		if stop() {
			_ = f.Close()
		}
	}()

	if err := Decode(f, notify); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
