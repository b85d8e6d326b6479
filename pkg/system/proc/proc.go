//go:build linux

package proc

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultProcRoot = "/proc"
	DefaultSysRoot  = "/sys"
)

// Times is a pair of cumulative jiffy counters for one CPU.
type Times struct {
	Idle uint64 // idle + iowait
	Wall uint64 // sum of all accounted states
}

// ReadCPUTimes parses <procRoot>/stat for the per-CPU lines ("cpu0", "cpu1",
// ...) and returns the counters keyed by CPU id. The aggregate "cpu" line is
// skipped.
//
// Field order after the label: user nice system idle iowait irq softirq steal
// [guest guest_nice]. guest time is already folded into user/nice by the
// kernel, so it is not added to Wall again.
func ReadCPUTimes(procRoot string) (map[int]Times, error) {
	f, err := os.Open(filepath.Join(procRoot, "stat"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[int]Times)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fs := strings.Fields(sc.Text())
		if len(fs) == 0 || !strings.HasPrefix(fs[0], "cpu") || fs[0] == "cpu" {
			continue
		}
		id, err := strconv.Atoi(fs[0][3:])
		if err != nil {
			continue
		}
		t, err := parseCPULine(fs[1:])
		if err != nil {
			return nil, err
		}
		out[id] = t
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoCPU
	}
	return out, nil
}

func parseCPULine(fields []string) (Times, error) {
	if len(fields) < 7 {
		return Times{}, ErrShortStat
	}
	// user nice system idle iowait irq softirq steal
	n := len(fields)
	if n > 8 {
		n = 8
	}
	var vals [8]uint64
	for i := 0; i < n; i++ {
		v, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return Times{}, ErrShortStat
		}
		vals[i] = v
	}
	var wall uint64
	for _, v := range vals {
		wall += v
	}
	return Times{Idle: vals[3] + vals[4], Wall: wall}, nil
}
