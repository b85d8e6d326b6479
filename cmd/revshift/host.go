//go:build linux

package main

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// hostSummary returns the hostname and kernel release for the start banner.
func hostSummary() (host, kernel string) {
	host, _ = os.Hostname()
	var u unix.Utsname
	if err := unix.Uname(&u); err == nil {
		kernel = unix.ByteSliceToString(u.Release[:])
	}
	if kernel == "" {
		kernel = runtime.GOOS
	}
	return host, kernel
}

const _console = `revshift - CPU hotplug and memory pressure daemon

       Host: %s
       Kernel: %s
       CPUs: %d

`
