//go:build linux

package proc

import (
	"os"
	"strconv"
	"strings"
)

// readUint reads a file holding a single decimal value (sysfs style).
func readUint(path string) (uint64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
}

// parseCPUList parses sysfs cpu lists such as "0-3", "0,2-5" or "0".
// It returns the highest listed id + 1.
func parseCPUList(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrBadRange
	}
	n := 0
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			hi = lo
		}
		a, err := strconv.Atoi(lo)
		if err != nil {
			return 0, ErrBadRange
		}
		b, err := strconv.Atoi(hi)
		if err != nil || b < a {
			return 0, ErrBadRange
		}
		if b+1 > n {
			n = b + 1
		}
	}
	return n, nil
}
