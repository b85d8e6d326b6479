package hotplug

import "github.com/ja7ad/revshift/pkg/attr"

// Attribute names exposed through the key-value surface.
const (
	AttrShiftAll            = "shift_all"
	AttrShiftCPU1           = "shift_cpu1"
	AttrShiftThreshold      = "shift_threshold"
	AttrShiftAllThreshold   = "shift_all_threshold"
	AttrDownShift           = "down_shift"
	AttrDownshiftThreshold  = "downshift_threshold"
	AttrSampleTimeMs        = "sample_time_ms"
	AttrTouchplugDurationMs = "touchplug_duration_ms"
	AttrMinUnits            = "min_units"
	AttrMaxUnits            = "max_units"
	AttrEnabled             = "enabled"
	AttrTouchplug           = "touchplug"
	AttrDebug               = "debug"
	AttrPlatformUnits       = "platform_units"
)

// RegisterAttrs exposes the tunables and switches on s.
func (c *Controller) RegisterAttrs(s *attr.Set) {
	field := func(name string, ptr func(*Tunables) *uint32) attr.Attr {
		return attr.Attr{
			Name: name,
			Get: func() uint64 {
				t := c.Tunables()
				return uint64(*ptr(&t))
			},
			Set: func(v uint64) error {
				return c.UpdateTunables(func(t *Tunables) { *ptr(t) = uint32(v) })
			},
		}
	}
	s.Register(
		field(AttrShiftAll, func(t *Tunables) *uint32 { return &t.ShiftAll }),
		field(AttrShiftCPU1, func(t *Tunables) *uint32 { return &t.ShiftCPU1 }),
		field(AttrShiftThreshold, func(t *Tunables) *uint32 { return &t.ShiftThreshold }),
		field(AttrShiftAllThreshold, func(t *Tunables) *uint32 { return &t.ShiftAllThreshold }),
		field(AttrDownShift, func(t *Tunables) *uint32 { return &t.DownShift }),
		field(AttrDownshiftThreshold, func(t *Tunables) *uint32 { return &t.DownshiftThreshold }),
		field(AttrSampleTimeMs, func(t *Tunables) *uint32 { return &t.SampleTimeMs }),
		field(AttrTouchplugDurationMs, func(t *Tunables) *uint32 { return &t.TouchplugDurationMs }),
		field(AttrMinUnits, func(t *Tunables) *uint32 { return &t.MinUnits }),
		field(AttrMaxUnits, func(t *Tunables) *uint32 { return &t.MaxUnits }),
		attr.Bool(AttrEnabled, c.enabled.Load, c.SetEnabled),
		attr.Bool(AttrTouchplug, c.touchplug.Load, c.SetTouchplug),
		attr.Bool(AttrDebug, c.debug.Load, c.SetDebug),
		attr.Attr{Name: AttrPlatformUnits, Get: func() uint64 { return uint64(c.platform) }},
	)
}
