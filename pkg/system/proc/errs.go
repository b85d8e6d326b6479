package proc

import "errors"

var (
	// ErrNoCPU indicates that /proc/stat had no line for the requested CPU.
	// Offline CPUs are omitted from /proc/stat.
	ErrNoCPU = errors.New("proc: no cpu line")

	// ErrShortStat indicates that a /proc/stat cpu line had fewer fields than expected.
	ErrShortStat = errors.New("proc: short stat")

	// ErrNoUnit indicates a CPU id outside the possible range.
	ErrNoUnit = errors.New("proc: no such cpu")

	// ErrNotHotpluggable indicates the CPU has no sysfs online control (usually cpu0).
	ErrNotHotpluggable = errors.New("proc: cpu not hotpluggable")

	// ErrBadRange indicates a malformed sysfs cpu list such as "0-".
	ErrBadRange = errors.New("proc: malformed cpu list")

	// ErrNoVMStat indicates /proc/vmstat carried no reclaim counters.
	ErrNoVMStat = errors.New("proc: no reclaim counters in vmstat")
)
