package vmpressure

import (
	"context"
	"fmt"
	"sync"

	"github.com/ja7ad/revshift/pkg/metrics"
)

// registry is the set of live watchers. Its lock is held only while the set
// is scanned or modified, never while anyone blocks.
type registry struct {
	mu      sync.Mutex
	max     int
	watches map[*Watch]struct{}
}

func (r *registry) add(w *Watch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.watches) >= r.max {
		return fmt.Errorf("%d watchers registered: %w", len(r.watches), ErrNoResources)
	}
	r.watches[w] = struct{}{}
	metrics.Watchers.Set(float64(len(r.watches)))
	return nil
}

func (r *registry) remove(w *Watch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watches, w)
	metrics.Watchers.Set(float64(len(r.watches)))
}

// wake marks every idle watcher at or below lvl pending and returns how
// many it woke.
func (r *registry) wake(lvl Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for w := range r.watches {
		if w.notify(lvl) {
			n++
		}
	}
	return n
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watches)
}

// Watchers returns the number of live subscriptions.
func (s *Service) Watchers() int { return s.reg.count() }

// Watch is one subscription. Poll and Read may be used from one goroutine
// while Close is called from another.
type Watch struct {
	cfg WatchConfig
	reg *registry

	mu       sync.Mutex // guards pending and snapshot together
	pending  bool
	snapshot Level
	wake     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Subscribe registers a watcher that is woken whenever a published level is
// at or above cfg.Threshold.
func (s *Service) Subscribe(cfg WatchConfig) (*Watch, error) {
	if cfg.Size != WatchConfigSize {
		return nil, fmt.Errorf("size %d, want %d: %w", cfg.Size, WatchConfigSize, ErrInvalidConfig)
	}
	if !cfg.Threshold.Valid() {
		return nil, fmt.Errorf("threshold %v: %w", cfg.Threshold, ErrInvalidConfig)
	}
	w := &Watch{
		cfg:  cfg,
		reg:  &s.reg,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	if err := s.reg.add(w); err != nil {
		return nil, err
	}
	return w, nil
}

// notify runs under the registry lock.
func (w *Watch) notify(lvl Level) bool {
	if lvl < w.cfg.Threshold {
		return false
	}
	w.mu.Lock()
	if w.pending {
		w.mu.Unlock()
		return false
	}
	w.pending, w.snapshot = true, lvl
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

func (w *Watch) Config() WatchConfig { return w.cfg }

func (w *Watch) closed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Poll reports whether a Read would return without blocking.
func (w *Watch) Poll() bool {
	if w.closed() {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// take returns the wake-time level and clears pending, if a wake is pending.
func (w *Watch) take() (Event, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pending {
		return Event{}, false
	}
	w.pending = false
	return Event{Pressure: w.snapshot}, true
}

// Read blocks until the watcher is woken and returns the level published at
// wake time, clearing the pending state. If ctx ends first it returns an
// error wrapping both ErrInterrupted and the context error, and the watcher
// is left as it was.
func (w *Watch) Read(ctx context.Context) (Event, error) {
	for {
		if w.closed() {
			return Event{}, ErrClosed
		}
		if ev, ok := w.take(); ok {
			return ev, nil
		}
		select {
		case <-ctx.Done():
			return Event{}, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		case <-w.done:
			return Event{}, ErrClosed
		case <-w.wake:
		}
	}
}

// ReadInto is Read writing the encoded event record into buf. It returns
// EventSize on success.
func (w *Watch) ReadInto(ctx context.Context, buf []byte) (int, error) {
	if len(buf) < EventSize {
		return 0, fmt.Errorf("%d bytes: %w", len(buf), ErrShortBuffer)
	}
	ev, err := w.Read(ctx)
	if err != nil {
		return 0, err
	}
	b, _ := ev.MarshalBinary()
	return copy(buf, b), nil
}

// Close unregisters the watcher and unblocks any Read. Closing twice returns
// ErrClosed.
func (w *Watch) Close() error {
	err := ErrClosed
	w.once.Do(func() {
		w.reg.remove(w)
		close(w.done)
		err = nil
	})
	return err
}
