//go:build linux

package proc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Option configures CPUs.
type Option func(*CPUs)

// WithProcRoot overrides the procfs mount point (tests use a fixture tree).
func WithProcRoot(root string) Option {
	return func(c *CPUs) { c.procRoot = root }
}

// WithSysRoot overrides the sysfs mount point.
func WithSysRoot(root string) Option {
	return func(c *CPUs) { c.sysRoot = root }
}

// CPUs exposes Linux CPU hotplug, time accounting and cpufreq state. It
// implements the hotplug package's unit, time-accounting and ratio
// collaborators.
type CPUs struct {
	procRoot string
	sysRoot  string
	count    int

	mu   sync.Mutex
	snap map[int]Times // last Snapshot, nil until the first one
}

// NewCPUs discovers the possible CPU count from
// <sysRoot>/devices/system/cpu/possible.
func NewCPUs(opts ...Option) (*CPUs, error) {
	c := &CPUs{procRoot: DefaultProcRoot, sysRoot: DefaultSysRoot}
	for _, opt := range opts {
		opt(c)
	}
	b, err := os.ReadFile(filepath.Join(c.cpuDir(), "possible"))
	if err != nil {
		return nil, fmt.Errorf("read possible cpus: %w", err)
	}
	n, err := parseCPUList(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse possible cpus %q: %w", string(b), err)
	}
	c.count = n
	return c, nil
}

func (c *CPUs) cpuDir() string {
	return filepath.Join(c.sysRoot, "devices", "system", "cpu")
}

func (c *CPUs) unitDir(id int) string {
	return filepath.Join(c.cpuDir(), fmt.Sprintf("cpu%d", id))
}

// Count returns the number of possible CPUs.
func (c *CPUs) Count() int { return c.count }

// Online reports whether the CPU is online. CPUs without an online control
// file (cpu0 on most platforms) are always online.
func (c *CPUs) Online(id int) bool {
	if id < 0 || id >= c.count {
		return false
	}
	v, err := readUint(filepath.Join(c.unitDir(id), "online"))
	if err != nil {
		_, statErr := os.Stat(c.unitDir(id))
		return errors.Is(err, fs.ErrNotExist) && statErr == nil
	}
	return v == 1
}

// SetOnline writes the CPU's sysfs online control.
func (c *CPUs) SetOnline(id int, on bool) error {
	if id < 0 || id >= c.count {
		return fmt.Errorf("cpu%d: %w", id, ErrNoUnit)
	}
	path := filepath.Join(c.unitDir(id), "online")
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cpu%d: %w", id, ErrNotHotpluggable)
	}
	val := "0"
	if on {
		val = "1"
	}
	if err := os.WriteFile(path, []byte(val), 0o644); err != nil {
		return fmt.Errorf("cpu%d online=%s: %w", id, val, err)
	}
	return nil
}

// Snapshot reads /proc/stat once for all CPUs. Later UnitTimes calls are
// served from it until the next Snapshot.
func (c *CPUs) Snapshot() error {
	all, err := ReadCPUTimes(c.procRoot)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.snap = nil
		return err
	}
	c.snap = all
	return nil
}

// UnitTimes returns the cumulative idle and wall jiffies of one CPU, from the
// last Snapshot if there is one and from /proc/stat otherwise.
func (c *CPUs) UnitTimes(id int) (idle, wall uint64, err error) {
	if id < 0 || id >= c.count {
		return 0, 0, fmt.Errorf("cpu%d: %w", id, ErrNoUnit)
	}
	c.mu.Lock()
	all := c.snap
	c.mu.Unlock()
	if all == nil {
		if all, err = ReadCPUTimes(c.procRoot); err != nil {
			return 0, 0, err
		}
	}
	t, ok := all[id]
	if !ok {
		return 0, 0, fmt.Errorf("cpu%d: %w", id, ErrNoCPU)
	}
	return t.Idle, t.Wall, nil
}

// OperatingRatio returns current/max frequency summed over online CPUs that
// expose cpufreq. Without cpufreq the ratio is 1.
func (c *CPUs) OperatingRatio() (float64, error) {
	var cur, top uint64
	for id := 0; id < c.count; id++ {
		if !c.Online(id) {
			continue
		}
		dir := filepath.Join(c.unitDir(id), "cpufreq")
		f, err := readUint(filepath.Join(dir, "scaling_cur_freq"))
		if err != nil {
			continue
		}
		m, err := readUint(filepath.Join(dir, "cpuinfo_max_freq"))
		if err != nil || m == 0 {
			continue
		}
		cur += f
		top += m
	}
	if top == 0 {
		return 1, nil
	}
	return float64(cur) / float64(top), nil
}
