package hotplug

import (
	"fmt"
	"time"
)

// Tunables are the controller's runtime-settable thresholds. Loads are in
// percent of one unit, so a fully busy 4-unit system at max frequency
// reports 400.
type Tunables struct {
	// ShiftAll is the load above which every unit is brought online.
	ShiftAll uint32
	// ShiftCPU1 scales the per-unit-count up/down load curves.
	ShiftCPU1 uint32
	// ShiftThreshold is the number of consecutive ticks above the up load
	// before one unit is onlined.
	ShiftThreshold uint32
	// ShiftAllThreshold is the number of consecutive ticks above ShiftAll
	// before all units are onlined.
	ShiftAllThreshold uint32
	// DownShift is subtracted from the down load curve.
	DownShift uint32
	// DownshiftThreshold is the number of ticks below the down load before
	// one unit is offlined.
	DownshiftThreshold uint32
	SampleTimeMs       uint32
	// TouchplugDurationMs delays the 2→1 collapse when the fast path is on.
	TouchplugDurationMs uint32
	MinUnits            uint32
	MaxUnits            uint32
}

// DefaultTunables returns the stock tuning with every platform unit usable.
func DefaultTunables(platform int) Tunables {
	maxUnits := uint32(1)
	if platform > 1 {
		maxUnits = uint32(platform)
	}
	return Tunables{
		ShiftAll:            185,
		ShiftCPU1:           30,
		ShiftThreshold:      4,
		ShiftAllThreshold:   2,
		DownShift:           20,
		DownshiftThreshold:  10,
		SampleTimeMs:        100,
		TouchplugDurationMs: 5000,
		MinUnits:            1,
		MaxUnits:            maxUnits,
	}
}

// Validate checks the unit bounds against the platform unit count.
func (t Tunables) Validate(platform int) error {
	switch {
	case t.MinUnits < 1:
		return fmt.Errorf("min_units=%d must be >= 1: %w", t.MinUnits, ErrInvalidTunables)
	case t.MaxUnits < t.MinUnits:
		return fmt.Errorf("max_units=%d below min_units=%d: %w", t.MaxUnits, t.MinUnits, ErrInvalidTunables)
	case int(t.MaxUnits) > platform:
		return fmt.Errorf("max_units=%d exceeds %d platform units: %w", t.MaxUnits, platform, ErrInvalidTunables)
	case t.SampleTimeMs < 1:
		return fmt.Errorf("sample_time_ms must be >= 1: %w", ErrInvalidTunables)
	}
	return nil
}

func (t Tunables) sampleTime() time.Duration {
	return time.Duration(t.SampleTimeMs) * time.Millisecond
}

func (t Tunables) touchplugDuration() time.Duration {
	return time.Duration(t.TouchplugDurationMs) * time.Millisecond
}

// Switches are the module-level on/off flags.
type Switches struct {
	// Enabled turns tick evaluation on. A disabled controller keeps its
	// timer running but does not sample or transition.
	Enabled bool
	// Touchplug enables the interaction boost and the deferred 2→1 collapse.
	Touchplug bool
	// Debug logs every decision step at debug level.
	Debug bool
}

func DefaultSwitches() Switches {
	return Switches{Enabled: true, Touchplug: true}
}
