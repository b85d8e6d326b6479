// Package proc provides the Linux side of the revshift controllers: CPU time
// accounting, CPU hotplug control, cpufreq operating ratio and page reclaim
// counters, all read from procfs/sysfs without cgo.
//
// Overview
//
//   - CPUs: one value covering every possible CPU.
//     Count() int
//     Online(id int) bool
//     SetOnline(id int, on bool) error
//     UnitTimes(id int) (idle, wall uint64, err error)
//     OperatingRatio() (float64, error)
//
//     CPUs satisfies the collaborator interfaces of pkg/hotplug (Units,
//     TimeAccounting, RatioSource), so a Controller can be wired directly to
//     the running kernel.
//
//   - ReclaimCollector: turns /proc/vmstat pgscan_* / pgsteal_* counters into
//     per-sample deltas for pkg/vmpressure's Record.
//
// # Sources
//
//	UnitTimes      : /proc/stat "cpuN" line; idle = idle+iowait, wall = sum
//	                 of user..steal (jiffies)
//	Online         : /sys/devices/system/cpu/cpuN/online ("0"/"1"); CPUs
//	                 without the file (cpu0 on most SoCs) are always online
//	SetOnline      : writes the same file, needs CAP_SYS_ADMIN
//	OperatingRatio : Σ scaling_cur_freq / Σ cpuinfo_max_freq over online CPUs,
//	                 1.0 when cpufreq is absent
//	ReclaimCollector: Σ pgscan_{kswapd,direct,khugepaged} and the matching
//	                 pgsteal_* counters from /proc/vmstat
//
// Offline CPUs disappear from /proc/stat, so UnitTimes returns ErrNoCPU for
// them. Callers reseed their previous counters when a CPU comes back.
//
// # Testing
//
// WithProcRoot and WithSysRoot point the readers at a fixture tree, so tests
// run without privileges and independent of the host's CPU layout.
//
// Example: wiring to the hotplug controller
//
//	/*
//	cpus, err := proc.NewCPUs()
//	if err != nil { log.Fatal(err) }
//	ctl, err := hotplug.New(hotplug.Config{
//	    Units:  cpus,
//	    Times:  cpus,
//	    Ratio:  cpus,
//	})
//	*/
//
// Package import path: github.com/ja7ad/revshift/pkg/system/proc
package proc
