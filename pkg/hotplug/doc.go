// Package hotplug is a closed-loop controller that brings processing units
// online and offline according to sampled load.
//
// Every tick (sample_time_ms) the Controller asks its LoadReporter for the
// aggregate load, in percent of one unit and scaled by the operating ratio,
// and evaluates three hysteresis rules against it:
//
//	load > shift_all                 for shift_all_threshold ticks → online all
//	up_load < load ≤ shift_all       for shift_threshold ticks     → online one
//	load < down_load                 for downshift_threshold ticks → offline one
//
// with up_load = min(shift_cpu1·n², shift_all) and
// down_load = min(shift_cpu1·(n-1)² - down_shift, shift_all - down_shift)
// for n active units. The up counters reset as soon as load falls back; the
// down counter decays by one per tick instead.
//
// With the touchplug switch on, Interact boosts a single-unit system to two
// units immediately, and a 2→1 downscale is deferred by
// touchplug_duration_ms so an interactive burst does not thrash the
// second unit.
//
// Ticks, fast-path tasks and tunable updates share one mutex; transitions
// are therefore totally ordered.
//
// Collaborators (Units, TimeAccounting, RatioSource) are interfaces;
// pkg/system/proc implements them for Linux sysfs/procfs.
package hotplug
