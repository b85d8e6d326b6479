package hotplug

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ja7ad/revshift/pkg/logging"
	"github.com/ja7ad/revshift/pkg/metrics"
)

// Units is the online/offline primitive over the platform's capacity units.
// Unit 0 is the primary unit and is never taken offline by the controller.
type Units interface {
	Count() int
	Online(id int) bool
	SetOnline(id int, on bool) error
}

// TimeAccounting reports monotonic cumulative idle and wall time per unit.
type TimeAccounting interface {
	UnitTimes(id int) (idle, wall uint64, err error)
}

// TimeSnapshotter is implemented by TimeAccounting sources that read every
// unit at once. The Sampler calls Snapshot once per pass, so all UnitTimes
// in that pass come from the same reading.
type TimeSnapshotter interface {
	Snapshot() error
}

// RatioSource reports the current/max operating point ratio.
type RatioSource interface {
	OperatingRatio() (float64, error)
}

// LoadReporter returns the aggregate load for one tick.
type LoadReporter interface {
	Load() (int, error)
}

// IdleRanker ranks units for offlining; the highest rank goes first.
type IdleRanker interface {
	IdleRank(id int) uint64
}

// DefaultInitialDelay holds off the first tick so boot-time load settles.
const DefaultInitialDelay = 20 * time.Second

// Config wires a Controller to its collaborators.
type Config struct {
	Units Units

	// Load reports the aggregate load. When nil, a Sampler over Times and
	// Ratio is used, and Times is required.
	Load  LoadReporter
	Times TimeAccounting
	Ratio RatioSource

	// Ranker selects the unit to offline. Defaults to the Sampler when one
	// is built; otherwise every unit ranks equal and the lowest index goes.
	Ranker IdleRanker

	// Tunables defaults to DefaultTunables(Units.Count()) when nil.
	Tunables *Tunables
	// Switches defaults to DefaultSwitches() when nil.
	Switches *Switches

	// InitialDelay before the first tick. Zero means tick immediately;
	// negative means DefaultInitialDelay.
	InitialDelay time.Duration

	Logger *slog.Logger
}

// Controller is the hotplug decision engine. One mutex serializes ticks,
// fast-path tasks and tunable updates, so every online/offline transition
// happens in a single total order.
type Controller struct {
	units    Units
	load     LoadReporter
	ranker   IdleRanker
	platform int
	delay    time.Duration
	log      *slog.Logger

	enabled   atomic.Bool
	touchplug atomic.Bool
	debug     atomic.Bool
	running   atomic.Bool

	boostCh chan struct{}

	mu           sync.Mutex
	tun          Tunables
	shiftDiff    uint32
	shiftDiffAll uint32
	downDiff     uint32
	lastLoad     int
	deferred     *time.Timer
	stopped      bool
}

// New validates the configuration and returns an idle controller; call Run
// to start ticking.
func New(cfg Config) (*Controller, error) {
	if cfg.Units == nil {
		return nil, fmt.Errorf("units: %w", ErrMissingCollaborator)
	}
	platform := cfg.Units.Count()
	if platform < 1 {
		return nil, ErrNoUnits
	}

	load, ranker := cfg.Load, cfg.Ranker
	if load == nil {
		if cfg.Times == nil {
			return nil, fmt.Errorf("time accounting: %w", ErrMissingCollaborator)
		}
		s := NewSampler(cfg.Units, cfg.Times, cfg.Ratio)
		load = s
		if ranker == nil {
			ranker = s
		}
	}
	if ranker == nil {
		if r, ok := load.(IdleRanker); ok {
			ranker = r
		} else {
			ranker = flatRanker{}
		}
	}

	tun := DefaultTunables(platform)
	if cfg.Tunables != nil {
		tun = *cfg.Tunables
	}
	if err := tun.Validate(platform); err != nil {
		return nil, err
	}
	sw := DefaultSwitches()
	if cfg.Switches != nil {
		sw = *cfg.Switches
	}
	delay := cfg.InitialDelay
	if delay < 0 {
		delay = DefaultInitialDelay
	}

	c := &Controller{
		units:    cfg.Units,
		load:     load,
		ranker:   ranker,
		platform: platform,
		delay:    delay,
		log:      logging.OrNop(cfg.Logger).With("component", "hotplug"),
		boostCh:  make(chan struct{}, 1),
		tun:      tun,
	}
	c.enabled.Store(sw.Enabled)
	c.touchplug.Store(sw.Touchplug)
	c.debug.Store(sw.Debug)
	return c, nil
}

type flatRanker struct{}

func (flatRanker) IdleRank(int) uint64 { return 0 }

// Run drives the periodic tick and the fast-path worker until ctx is done.
// The tick period is re-read from the tunables after every tick.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer c.running.Store(false)

	c.mu.Lock()
	c.stopped = false
	c.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.fastPathLoop(ctx)
	}()

	c.log.Info("controller started", "units", c.platform, "initial_delay", c.delay)
	timer := time.NewTimer(c.delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			wg.Wait()
			c.log.Info("controller stopped")
			return nil
		case <-timer.C:
			c.Tick()
			timer.Reset(c.sampleTime())
		}
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.deferred != nil {
		c.deferred.Stop()
		c.deferred = nil
	}
}

func (c *Controller) sampleTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tun.sampleTime()
}

// Tunables returns a copy of the current tunables.
func (c *Controller) Tunables() Tunables {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tun
}

// SetTunables validates and applies t as a whole. Debounce counters above a
// lowered threshold are clamped to it.
func (c *Controller) SetTunables(t Tunables) error {
	if err := t.Validate(c.platform); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tun = t
	c.shiftDiff = min(c.shiftDiff, t.ShiftThreshold)
	c.shiftDiffAll = min(c.shiftDiffAll, t.ShiftAllThreshold)
	c.downDiff = min(c.downDiff, t.DownshiftThreshold)
	return nil
}

// UpdateTunables applies fn to a copy of the current tunables and stores
// the result if it validates.
func (c *Controller) UpdateTunables(fn func(*Tunables)) error {
	t := c.Tunables()
	fn(&t)
	return c.SetTunables(t)
}

func (c *Controller) Switches() Switches {
	return Switches{
		Enabled:   c.enabled.Load(),
		Touchplug: c.touchplug.Load(),
		Debug:     c.debug.Load(),
	}
}

func (c *Controller) SetEnabled(on bool)   { c.enabled.Store(on) }
func (c *Controller) SetTouchplug(on bool) { c.touchplug.Store(on) }
func (c *Controller) SetDebug(on bool)     { c.debug.Store(on) }

// Platform returns the number of units the controller manages.
func (c *Controller) Platform() int { return c.platform }

// Stats is a point-in-time view of the engine state.
type Stats struct {
	Load            int
	Active          int
	ShiftDiff       uint32
	ShiftDiffAll    uint32
	DownDiff        uint32
	DeferredPending bool
}

func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Load:            c.lastLoad,
		Active:          c.activeUnits(),
		ShiftDiff:       c.shiftDiff,
		ShiftDiffAll:    c.shiftDiffAll,
		DownDiff:        c.downDiff,
		DeferredPending: c.deferred != nil,
	}
}

// trace logs a decision step when the debug switch is on.
func (c *Controller) trace(msg string, args ...any) {
	if c.debug.Load() {
		c.log.Debug(msg, args...)
	}
}

func (c *Controller) publish() {
	metrics.ActiveUnits.Set(float64(c.activeUnits()))
	metrics.SetDebounce(c.shiftDiff, c.shiftDiffAll, c.downDiff)
}
