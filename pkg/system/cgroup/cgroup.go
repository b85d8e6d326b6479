//go:build linux

// Package cgroup detects the cgroup hierarchy and reads reclaim counters
// from a cgroup v2 group, so pressure can be scoped to one group instead
// of the whole system.
package cgroup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ja7ad/revshift/pkg/system/util"
)

type Version int

const (
	Unsupported Version = iota // no cgroup mounts
	V1                         // legacy multi-hierarchy cgroup v1
	V2                         // unified cgroup v2
	Hybrid                     // both v1 and v2 present
)

func (v Version) String() string {
	switch v {
	case V1:
		return "cgroup v1"
	case V2:
		return "cgroup v2"
	case Hybrid:
		return "cgroup hybrid"
	default:
		return "unsupported"
	}
}

var (
	// ErrNoV2 is returned when a group is requested without a cgroup2 mount.
	ErrNoV2 = errors.New("cgroup: no cgroup2 mount")

	// ErrNoMemoryStat is returned when memory.stat lacks reclaim counters,
	// usually because the memory controller is not enabled for the group.
	ErrNoMemoryStat = errors.New("cgroup: no reclaim counters in memory.stat")
)

// Mounts lists the cgroup mount points by hierarchy.
type Mounts struct {
	V1 []string
	V2 []string
}

func (m Mounts) Version() Version {
	switch {
	case len(m.V1) > 0 && len(m.V2) > 0:
		return Hybrid
	case len(m.V2) > 0:
		return V2
	case len(m.V1) > 0:
		return V1
	}
	return Unsupported
}

// ParseMountinfo collects cgroup mount points from a mountinfo stream.
// Each line has a " - " separator followed by the fstype; the mount point is
// the fifth field before it (man 5 proc).
func ParseMountinfo(r io.Reader) (Mounts, error) {
	var m Mounts
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		pre, tail, ok := strings.Cut(line, " - ")
		if !ok {
			continue
		}
		fields := strings.Fields(tail)
		preFields := strings.Fields(pre)
		if len(fields) < 1 || len(preFields) < 5 {
			continue
		}
		switch fields[0] {
		case "cgroup2":
			m.V2 = append(m.V2, preFields[4])
		case "cgroup":
			m.V1 = append(m.V1, preFields[4])
		}
	}
	if err := sc.Err(); err != nil {
		return Mounts{}, fmt.Errorf("scan mountinfo: %w", err)
	}
	return m, nil
}

// Detect reads <procRoot>/self/mountinfo.
func Detect(procRoot string) (Mounts, error) {
	f, err := os.Open(filepath.Join(procRoot, "self", "mountinfo"))
	if err != nil {
		return Mounts{}, fmt.Errorf("open mountinfo: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ParseMountinfo(f)
}

// Resolve turns a group path into a directory. Absolute paths are used as
// they are; relative ones are taken from the first cgroup2 mount.
func (m Mounts) Resolve(group string) (string, error) {
	if filepath.IsAbs(group) {
		return group, nil
	}
	if len(m.V2) == 0 {
		return "", ErrNoV2
	}
	return filepath.Join(m.V2[0], group), nil
}

// ReadMemoryStat returns the group's cumulative pages scanned and reclaimed.
func ReadMemoryStat(dir string) (scanned, reclaimed uint64, err error) {
	f, err := os.Open(filepath.Join(dir, "memory.stat"))
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = f.Close()
	}()

	var haveScan, haveSteal bool
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), " ")
		if !ok {
			continue
		}
		var dst *uint64
		switch k {
		case "pgscan":
			dst, haveScan = &scanned, true
		case "pgsteal":
			dst, haveSteal = &reclaimed, true
		default:
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("memory.stat %s: %w", k, err)
		}
		*dst = n
	}
	if err := sc.Err(); err != nil {
		return 0, 0, err
	}
	if !haveScan || !haveSteal {
		return 0, 0, ErrNoMemoryStat
	}
	return scanned, reclaimed, nil
}

// ReclaimCollector reports per-sample reclaim deltas for one group.
type ReclaimCollector struct {
	dir       string
	scanPrev  uint64
	stealPrev uint64
}

func NewReclaimCollector(dir string) (*ReclaimCollector, error) {
	s, r, err := ReadMemoryStat(dir)
	if err != nil {
		return nil, err
	}
	return &ReclaimCollector{dir: dir, scanPrev: s, stealPrev: r}, nil
}

// Sample returns pages scanned and reclaimed since the previous sample.
func (c *ReclaimCollector) Sample() (scanned, reclaimed uint64, err error) {
	s, r, err := ReadMemoryStat(c.dir)
	if err != nil {
		return 0, 0, err
	}
	scanned = util.DeltaU64(s, c.scanPrev)
	reclaimed = util.DeltaU64(r, c.stealPrev)
	c.scanPrev, c.stealPrev = s, r
	return scanned, reclaimed, nil
}

func (c *ReclaimCollector) Dir() string { return c.dir }
