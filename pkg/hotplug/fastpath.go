package hotplug

import (
	"context"
	"time"

	"github.com/ja7ad/revshift/pkg/metrics"
)

// Interact reports an external interaction event (touch, key press). With
// the touchplug switch on, it queues a boost that guarantees a second unit
// is online. Pending boosts are coalesced; Interact never blocks.
func (c *Controller) Interact() {
	if !c.touchplug.Load() {
		return
	}
	select {
	case c.boostCh <- struct{}{}:
	default:
	}
}

func (c *Controller) fastPathLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.boostCh:
			c.boost()
		}
	}
}

// boost onlines unit 1 when only the primary is active and max_units allows it.
func (c *Controller) boost() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	metrics.FastPathTotal.WithLabelValues("boost").Inc()
	c.trace("interaction boost")
	if c.tun.MaxUnits >= 2 && c.activeUnits() == 1 && !c.units.Online(1) {
		_ = c.setOnline(1, true)
	}
	c.publish()
}

// armDeferredDown schedules the 2→1 collapse unless one is already pending.
func (c *Controller) armDeferredDown(d time.Duration) {
	if c.deferred != nil {
		return
	}
	c.trace("deferred downscale armed", "after", d)
	c.deferred = time.AfterFunc(d, c.deferredDown)
}

// deferredDown offlines every non-primary unit if exactly two are still
// active when the timer fires.
func (c *Controller) deferredDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deferred = nil
	if c.stopped {
		return
	}
	metrics.FastPathTotal.WithLabelValues("deferred_down").Inc()
	if active := c.activeUnits(); active != 2 || c.tun.MinUnits > 1 {
		c.trace("deferred downscale dropped", "active", active)
		return
	}
	c.log.Info("deferred downscale to primary unit")
	for id := 1; id < c.platform; id++ {
		if c.units.Online(id) {
			_ = c.setOnline(id, false)
		}
	}
	c.publish()
}
