//go:build linux

package proc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statFixture = `cpu  400 0 200 1000 50 0 0 0 0 0
cpu0 100 0 50 300 10 0 0 0 0 0
cpu1 100 0 50 200 20 0 0 0 0 0
cpu3 200 0 100 500 20 0 0 0 0 0
intr 12345
ctxt 999
`

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

// fixture builds a 4-CPU tree: cpu0 without an online file, cpu1 online with
// cpufreq, cpu2 offline, cpu3 online.
func fixture(t *testing.T) (procRoot, sysRoot string) {
	t.Helper()
	procRoot = filepath.Join(t.TempDir(), "proc")
	sysRoot = filepath.Join(t.TempDir(), "sys")

	writeFile(t, filepath.Join(procRoot, "stat"), statFixture)

	cpuDir := filepath.Join(sysRoot, "devices", "system", "cpu")
	writeFile(t, filepath.Join(cpuDir, "possible"), "0-3\n")
	require.NoError(t, os.MkdirAll(filepath.Join(cpuDir, "cpu0"), 0o755))
	writeFile(t, filepath.Join(cpuDir, "cpu1", "online"), "1\n")
	writeFile(t, filepath.Join(cpuDir, "cpu1", "cpufreq", "scaling_cur_freq"), "1000000\n")
	writeFile(t, filepath.Join(cpuDir, "cpu1", "cpufreq", "cpuinfo_max_freq"), "2000000\n")
	writeFile(t, filepath.Join(cpuDir, "cpu2", "online"), "0\n")
	writeFile(t, filepath.Join(cpuDir, "cpu2", "cpufreq", "scaling_cur_freq"), "2000000\n")
	writeFile(t, filepath.Join(cpuDir, "cpu2", "cpufreq", "cpuinfo_max_freq"), "2000000\n")
	writeFile(t, filepath.Join(cpuDir, "cpu3", "online"), "1\n")
	return procRoot, sysRoot
}

func TestReadCPUTimes(t *testing.T) {
	procRoot, _ := fixture(t)

	all, err := ReadCPUTimes(procRoot)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, Times{Idle: 310, Wall: 460}, all[0])
	assert.Equal(t, Times{Idle: 220, Wall: 370}, all[1])
	assert.Equal(t, Times{Idle: 520, Wall: 820}, all[3])
	_, ok := all[2]
	assert.False(t, ok, "offline cpu has no stat line")
}

func TestReadCPUTimes_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadCPUTimes(dir)
	assert.Error(t, err, "missing stat file")

	writeFile(t, filepath.Join(dir, "stat"), "cpu 1 2 3 4 5 6 7\nintr 1\n")
	_, err = ReadCPUTimes(dir)
	assert.ErrorIs(t, err, ErrNoCPU)

	writeFile(t, filepath.Join(dir, "stat"), "cpu0 1 2 3\n")
	_, err = ReadCPUTimes(dir)
	assert.ErrorIs(t, err, ErrShortStat)
}

func TestCPUs_OnlineAndSetOnline(t *testing.T) {
	procRoot, sysRoot := fixture(t)
	c, err := NewCPUs(WithProcRoot(procRoot), WithSysRoot(sysRoot))
	require.NoError(t, err)
	assert.Equal(t, 4, c.Count())

	assert.True(t, c.Online(0), "cpu0 without online file is always online")
	assert.True(t, c.Online(1))
	assert.False(t, c.Online(2))
	assert.True(t, c.Online(3))
	assert.False(t, c.Online(7))

	require.NoError(t, c.SetOnline(2, true))
	assert.True(t, c.Online(2))
	require.NoError(t, c.SetOnline(3, false))
	assert.False(t, c.Online(3))

	assert.ErrorIs(t, c.SetOnline(0, false), ErrNotHotpluggable)
	assert.ErrorIs(t, c.SetOnline(9, true), ErrNoUnit)
}

func TestCPUs_UnitTimes(t *testing.T) {
	procRoot, sysRoot := fixture(t)
	c, err := NewCPUs(WithProcRoot(procRoot), WithSysRoot(sysRoot))
	require.NoError(t, err)

	idle, wall, err := c.UnitTimes(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(220), idle)
	assert.Equal(t, uint64(370), wall)

	_, _, err = c.UnitTimes(2)
	assert.ErrorIs(t, err, ErrNoCPU)
	_, _, err = c.UnitTimes(4)
	assert.ErrorIs(t, err, ErrNoUnit)
}

func TestCPUs_SnapshotServesUnitTimes(t *testing.T) {
	procRoot, sysRoot := fixture(t)
	c, err := NewCPUs(WithProcRoot(procRoot), WithSysRoot(sysRoot))
	require.NoError(t, err)
	require.NoError(t, c.Snapshot())

	writeFile(t, filepath.Join(procRoot, "stat"), "cpu0 200 0 50 400 10 0 0 0\ncpu1 300 0 50 300 20 0 0 0\n")
	idle, wall, err := c.UnitTimes(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(220), idle, "served from the snapshot")
	assert.Equal(t, uint64(370), wall)

	require.NoError(t, c.Snapshot())
	idle, wall, err = c.UnitTimes(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(320), idle)
	assert.Equal(t, uint64(670), wall)
	_, _, err = c.UnitTimes(3)
	assert.ErrorIs(t, err, ErrNoCPU)

	require.NoError(t, os.Remove(filepath.Join(procRoot, "stat")))
	assert.Error(t, c.Snapshot())
	_, _, err = c.UnitTimes(1)
	assert.Error(t, err, "a failed snapshot is not reused")
}

func TestCPUs_OperatingRatio(t *testing.T) {
	procRoot, sysRoot := fixture(t)
	c, err := NewCPUs(WithProcRoot(procRoot), WithSysRoot(sysRoot))
	require.NoError(t, err)

	// Only cpu1 is online with cpufreq; offline cpu2 is ignored.
	r, err := c.OperatingRatio()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r, 1e-9)

	require.NoError(t, c.SetOnline(2, true))
	r, err = c.OperatingRatio()
	require.NoError(t, err)
	assert.InDelta(t, 0.75, r, 1e-9)
}

func TestCPUs_OperatingRatio_NoCpufreq(t *testing.T) {
	procRoot := t.TempDir()
	sysRoot := t.TempDir()
	writeFile(t, filepath.Join(sysRoot, "devices", "system", "cpu", "possible"), "0\n")
	require.NoError(t, os.MkdirAll(filepath.Join(sysRoot, "devices", "system", "cpu", "cpu0"), 0o755))

	c, err := NewCPUs(WithProcRoot(procRoot), WithSysRoot(sysRoot))
	require.NoError(t, err)
	r, err := c.OperatingRatio()
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)
}

func TestNewCPUs_MissingPossible(t *testing.T) {
	_, err := NewCPUs(WithSysRoot(t.TempDir()))
	assert.Error(t, err)
}
