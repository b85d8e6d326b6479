package vmpressure

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/ja7ad/revshift/pkg/logging"
	"github.com/ja7ad/revshift/pkg/metrics"
	"github.com/ja7ad/revshift/pkg/system/util"
)

// Config wires a Service.
type Config struct {
	// Tunables defaults to DefaultTunables() when nil.
	Tunables *Tunables
	// MaxWatchers caps concurrent subscriptions; zero means unlimited.
	MaxWatchers int
	Logger      *slog.Logger
}

// Service accumulates reclaim activity, publishes the pressure level and
// wakes watchers. Record and PrioEscalation are safe from any goroutine;
// recomputes run one at a time on the Run goroutine.
type Service struct {
	log *slog.Logger
	tun atomic.Pointer[Tunables]
	acc accumulator

	// kick holds at most one pending recompute request.
	kick    chan struct{}
	force   atomic.Bool
	level   atomic.Uint32
	score   atomic.Uint32
	running atomic.Bool

	reg registry
}

func New(cfg Config) (*Service, error) {
	tun := DefaultTunables()
	if cfg.Tunables != nil {
		tun = *cfg.Tunables
	}
	if err := tun.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		log:  logging.OrNop(cfg.Logger).With("component", "vmpressure"),
		kick: make(chan struct{}, 1),
		reg:  registry{max: cfg.MaxWatchers, watches: make(map[*Watch]struct{})},
	}
	s.tun.Store(&tun)
	return s, nil
}

// Run processes recompute requests until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.running.Store(false)

	s.log.Info("pressure worker started", "window", s.Tunables().Window)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("pressure worker stopped")
			return nil
		case <-s.kick:
			s.evaluate()
		}
	}
}

// Record reports pages scanned and reclaimed by one reclaim pass. Counts are
// saturated to 32 bits and reclaimed is capped at scanned. A report with
// nothing scanned is ignored.
func (s *Service) Record(scanned, reclaimed uint64) {
	if scanned == 0 {
		return
	}
	sc := util.ClampU32(scanned)
	rc := min(reclaimed, sc)
	total := s.acc.add(uint32(sc), uint32(rc))
	if total >= s.tun.Load().Window {
		s.enqueue()
	}
}

// PrioEscalation reports the current reclaim priority; lower is more
// desperate. At or below the pre-OOM priority OOM is published without
// waiting for a full window.
func (s *Service) PrioEscalation(prio int) {
	if prio > int(s.tun.Load().LevelOOMPrio) {
		return
	}
	s.force.Store(true)
	s.enqueue()
}

func (s *Service) enqueue() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// evaluate is the recompute step. Only the Run goroutine calls it, so it
// never races with itself.
func (s *Service) evaluate() {
	if s.force.Swap(false) {
		metrics.RecomputeTotal.WithLabelValues("escalated").Inc()
		s.log.Debug("pre-oom escalation")
		s.publish(OOM, 100)
		return
	}

	sc, rc := s.acc.drain()
	if sc == 0 {
		metrics.RecomputeTotal.WithLabelValues("starved").Inc()
		return
	}
	p := score(sc, rc)
	lvl := s.tun.Load().Level(p)
	metrics.RecomputeTotal.WithLabelValues("computed").Inc()
	s.log.Debug("pressure computed", "scanned", sc, "reclaimed", rc, "score", p, "level", lvl)
	s.publish(lvl, p)
}

// score is the share of scanned pages that were not reclaimed, in percent.
func score(scanned, reclaimed uint32) uint32 {
	r := uint64(min(reclaimed, scanned))
	return uint32(100 - r*100/uint64(scanned))
}

func (s *Service) publish(lvl Level, p uint32) {
	prev := Level(s.level.Swap(uint32(lvl)))
	s.score.Store(p)
	metrics.PressureLevel.Set(float64(lvl))
	metrics.PressureScore.Set(float64(p))
	if prev != lvl {
		s.log.Info("pressure level changed", "from", prev, "to", lvl, "score", p)
	}
	if n := s.reg.wake(lvl); n > 0 {
		metrics.WakeupsTotal.Add(float64(n))
	}
}

// Level returns the last published level, or 0 before the first publish.
func (s *Service) Level() Level { return Level(s.level.Load()) }

// Score returns the last computed 0-100 score.
func (s *Service) Score() uint32 { return s.score.Load() }

// Pending returns the scanned and reclaimed counts not yet evaluated.
func (s *Service) Pending() (scanned, reclaimed uint32) { return s.acc.peek() }

func (s *Service) Tunables() Tunables { return *s.tun.Load() }

// SetTunables validates and swaps in t. Producers pick it up on their next
// Record.
func (s *Service) SetTunables(t Tunables) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.tun.Store(&t)
	return nil
}

// UpdateTunables applies fn to a copy of the current tunables and stores
// the result if it validates. Concurrent updates are last-writer-wins.
func (s *Service) UpdateTunables(fn func(*Tunables)) error {
	t := s.Tunables()
	fn(&t)
	return s.SetTunables(t)
}
