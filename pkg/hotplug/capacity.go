package hotplug

import "github.com/ja7ad/revshift/pkg/metrics"

// The lower-case transition helpers run with c.mu held.

func (c *Controller) activeUnits() int {
	n := 0
	for id := 0; id < c.platform; id++ {
		if c.units.Online(id) {
			n++
		}
	}
	return n
}

// setOnline calls the primitive and logs a refusal; it never retries.
func (c *Controller) setOnline(id int, on bool) error {
	err := c.units.SetOnline(id, on)
	metrics.IncTransition(on, err)
	if err != nil {
		c.log.Warn("unit transition failed", "unit", id, "online", on, "err", err)
		return err
	}
	c.trace("unit transition", "unit", id, "online", on)
	return nil
}

// scaleToMax onlines offline units in index order until max_units are active.
func (c *Controller) scaleToMax() {
	active := c.activeUnits()
	for id := 0; id < c.platform && active < int(c.tun.MaxUnits); id++ {
		if c.units.Online(id) {
			continue
		}
		if c.setOnline(id, true) == nil {
			active++
		}
	}
}

// scaleUpOne onlines the lowest-indexed offline unit.
func (c *Controller) scaleUpOne() {
	if c.activeUnits() >= int(c.tun.MaxUnits) {
		return
	}
	for id := 0; id < c.platform; id++ {
		if !c.units.Online(id) {
			_ = c.setOnline(id, true)
			return
		}
	}
}

// scaleDownOne offlines the most idle non-primary unit.
func (c *Controller) scaleDownOne() {
	if c.activeUnits() <= int(c.tun.MinUnits) {
		return
	}
	if id := c.pickIdle(); id > 0 {
		_ = c.setOnline(id, false)
	}
}

// pickIdle returns the online non-primary unit with the highest idle rank,
// the lowest index winning ties, or -1 when only the primary is online.
func (c *Controller) pickIdle() int {
	best, bestRank := -1, uint64(0)
	for id := 1; id < c.platform; id++ {
		if !c.units.Online(id) {
			continue
		}
		rank := c.ranker.IdleRank(id)
		c.trace("idle rank", "unit", id, "rank", rank)
		if best < 0 || rank > bestRank {
			best, bestRank = id, rank
		}
	}
	return best
}

// enforceBounds pulls the active count back inside [min_units, max_units]
// after the bounds were changed at runtime.
func (c *Controller) enforceBounds() {
	for active := c.activeUnits(); active > int(c.tun.MaxUnits); active-- {
		id := c.pickIdle()
		if id <= 0 || c.setOnline(id, false) != nil {
			return
		}
	}
	for active := c.activeUnits(); active < int(c.tun.MinUnits); active++ {
		before := active
		c.scaleUpOne()
		if c.activeUnits() == before {
			return
		}
	}
}

// ScaleToMax brings units online up to max_units. It is a no-op at the bound.
func (c *Controller) ScaleToMax() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scaleToMax()
	c.publish()
}

// ScaleUpOne brings the lowest-indexed offline unit online, unless max_units
// are already active.
func (c *Controller) ScaleUpOne() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scaleUpOne()
	c.publish()
}

// ScaleDownOne takes the most idle non-primary unit offline, unless only
// min_units are active.
func (c *Controller) ScaleDownOne() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scaleDownOne()
	c.publish()
}
