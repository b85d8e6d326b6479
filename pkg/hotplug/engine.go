package hotplug

import (
	"errors"

	"github.com/ja7ad/revshift/pkg/metrics"
)

// Tick runs one sampling and decision cycle. Invalid samples skip the
// decision; the caller's timer keeps running either way.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled.Load() {
		metrics.TicksTotal.WithLabelValues("disabled").Inc()
		return
	}
	c.enforceBounds()

	load, err := c.load.Load()
	if err != nil {
		metrics.TicksTotal.WithLabelValues("invalid").Inc()
		if errors.Is(err, ErrInvalidSample) {
			c.trace("tick skipped", "err", err)
		} else {
			c.log.Warn("load sample failed", "err", err)
		}
		return
	}
	metrics.TicksTotal.WithLabelValues("evaluated").Inc()
	metrics.Load.Set(float64(load))
	c.lastLoad = load

	c.evaluate(load)
	c.publish()
}

// thresholds derives the up and down loads for the given active count.
// Arithmetic is signed: a negative down load disables scaling down.
func (t Tunables) thresholds(active int) (upLoad, downLoad int) {
	shiftAll := int(t.ShiftAll)
	cpu1 := int(t.ShiftCPU1)
	down := int(t.DownShift)

	upLoad = min(cpu1*active*active, shiftAll)
	downShift := cpu1 * (active - 1) * (active - 1)
	downLoad = min(downShift-down, shiftAll-down)
	return upLoad, downLoad
}

// evaluate applies the rule table in fixed order. All rules see the active
// count snapshotted at the start of the tick, even when an earlier rule
// already moved a unit.
func (c *Controller) evaluate(load int) {
	t := c.tun
	active := c.activeUnits()
	upLoad, downLoad := t.thresholds(active)
	shiftAll := int(t.ShiftAll)
	maxUnits, minUnits := int(t.MaxUnits), int(t.MinUnits)

	c.trace("tick", "load", load, "active", active, "up_load", upLoad, "down_load", downLoad)

	// scale to max
	if load > shiftAll && active < maxUnits && c.shiftDiffAll < t.ShiftAllThreshold {
		c.shiftDiffAll++
		c.trace("shift_diff_all", "value", c.shiftDiffAll)
		if c.shiftDiffAll >= t.ShiftAllThreshold {
			c.log.Info("onlining all units", "load", load, "active", active)
			c.scaleToMax()
			c.shiftDiffAll, c.shiftDiff, c.downDiff = 0, 0, 0
		}
	}
	if load <= shiftAll && c.shiftDiffAll > 0 {
		c.shiftDiffAll = 0
		c.trace("shift_diff_all reset")
	}

	// scale up one
	if load > upLoad && load <= shiftAll && active < maxUnits && c.shiftDiff < t.ShiftThreshold {
		c.shiftDiff++
		c.trace("shift_diff", "value", c.shiftDiff)
		if c.shiftDiff >= t.ShiftThreshold {
			c.log.Info("onlining one unit", "load", load, "active", active)
			c.scaleUpOne()
			c.shiftDiff, c.downDiff = 0, 0
		}
	}
	if load <= upLoad && c.shiftDiff > 0 {
		c.shiftDiff = 0
		c.trace("shift_diff reset")
	}

	// scale down one
	if load < downLoad && active > minUnits && c.downDiff < t.DownshiftThreshold {
		c.downDiff++
		c.trace("down_diff", "value", c.downDiff)
		if c.downDiff >= t.DownshiftThreshold {
			if c.touchplug.Load() && active == 2 {
				c.armDeferredDown(t.touchplugDuration())
			} else {
				c.log.Info("offlining one unit", "load", load, "active", active)
				c.scaleDownOne()
			}
			c.downDiff, c.shiftDiff, c.shiftDiffAll = 0, 0, 0
		}
	}
	// Decays by one instead of resetting, so brief spikes do not restart
	// the down count from zero.
	if load >= downLoad && c.downDiff > 0 {
		c.downDiff--
		c.trace("down_diff decayed", "value", c.downDiff)
	}
}
