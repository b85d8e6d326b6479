//go:build linux

package proc

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ja7ad/revshift/pkg/system/util"
)

// Reclaim counters of interest in /proc/vmstat. pgscan_anon/pgscan_file (and
// the pgsteal equivalents) duplicate these totals on newer kernels, so they
// are not summed.
var (
	scanKeys  = []string{"pgscan_kswapd", "pgscan_direct", "pgscan_khugepaged"}
	stealKeys = []string{"pgsteal_kswapd", "pgsteal_direct", "pgsteal_khugepaged"}
)

// ReadVMStat returns the cumulative pages scanned and reclaimed by the
// kernel's page reclaim.
func ReadVMStat(procRoot string) (scanned, reclaimed uint64, err error) {
	f, err := os.Open(filepath.Join(procRoot, "vmstat"))
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	vals := make(map[string]uint64)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), " ")
		if !ok || !strings.HasPrefix(k, "pgs") {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			continue
		}
		vals[k] = n
	}
	if err := sc.Err(); err != nil {
		return 0, 0, err
	}

	found := false
	for _, k := range scanKeys {
		if v, ok := vals[k]; ok {
			scanned += v
			found = true
		}
	}
	for _, k := range stealKeys {
		reclaimed += vals[k]
	}
	if !found {
		return 0, 0, ErrNoVMStat
	}
	return scanned, reclaimed, nil
}

// ReclaimCollector turns the cumulative /proc/vmstat reclaim counters into
// per-sample deltas suitable for vmpressure recording.
type ReclaimCollector struct {
	procRoot  string
	scanPrev  uint64
	stealPrev uint64
}

// NewReclaimCollector seeds the previous counters from the current vmstat.
func NewReclaimCollector(procRoot string) (*ReclaimCollector, error) {
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}
	s, r, err := ReadVMStat(procRoot)
	if err != nil {
		return nil, err
	}
	return &ReclaimCollector{procRoot: procRoot, scanPrev: s, stealPrev: r}, nil
}

// Sample returns pages scanned and reclaimed since the previous sample.
func (c *ReclaimCollector) Sample() (scanned, reclaimed uint64, err error) {
	s, r, err := ReadVMStat(c.procRoot)
	if err != nil {
		return 0, 0, err
	}
	scanned = util.DeltaU64(s, c.scanPrev)
	reclaimed = util.DeltaU64(r, c.stealPrev)
	c.scanPrev, c.stealPrev = s, r
	return scanned, reclaimed, nil
}
