package hotplug

import (
	"fmt"
	"sync"
)

// unitState is the per-unit measurement snapshot carried between ticks.
type unitState struct {
	idlePrev uint64
	wallPrev uint64
	load     uint64 // last computed busy percent
	idleRank uint64 // last computed idle percent
	seeded   bool
}

// reset forgets the unit's baseline and last measurement.
func (st *unitState) reset() {
	*st = unitState{}
}

// Sampler computes the aggregate load of all online units from cumulative
// idle/wall counters, scaled by the current operating ratio. It implements
// LoadReporter and IdleRanker.
type Sampler struct {
	units Units
	times TimeAccounting
	ratio RatioSource

	mu    sync.Mutex
	state []unitState // indexed by unit id, sized once at construction
}

// NewSampler sizes the per-unit arena to units.Count(). ratio may be nil,
// meaning units always run at their maximum operating point.
func NewSampler(units Units, times TimeAccounting, ratio RatioSource) *Sampler {
	return &Sampler{
		units: units,
		times: times,
		ratio: ratio,
		state: make([]unitState, units.Count()),
	}
}

// Load samples every online unit and returns Σ 100·(wallΔ-idleΔ)/wallΔ scaled
// by the operating ratio.
//
// Units seen for the first time, or coming back from offline, are reseeded
// and do not contribute this tick. A zero wall delta, an idle delta larger
// than the wall delta or counters running backwards make the whole sample
// invalid; if no unit contributed at all the sample is invalid too.
func (s *Sampler) Load() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		sum         uint64
		contributed int
		anomaly     error
	)
	if snap, ok := s.times.(TimeSnapshotter); ok {
		if err := snap.Snapshot(); err != nil {
			return 0, fmt.Errorf("snapshot unit times: %w", err)
		}
	}
	for id := range s.state {
		st := &s.state[id]
		if !s.units.Online(id) {
			st.reset()
			continue
		}
		idle, wall, err := s.times.UnitTimes(id)
		if err != nil {
			// went offline between the online check and the read
			st.reset()
			continue
		}
		if !st.seeded {
			st.idlePrev, st.wallPrev, st.seeded = idle, wall, true
			continue
		}
		if wall < st.wallPrev || idle < st.idlePrev {
			st.idlePrev, st.wallPrev = idle, wall
			anomaly = fmt.Errorf("unit %d counters went backwards: %w", id, ErrInvalidSample)
			continue
		}
		wallDelta := wall - st.wallPrev
		idleDelta := idle - st.idlePrev
		st.idlePrev, st.wallPrev = idle, wall

		if wallDelta == 0 || wallDelta < idleDelta {
			anomaly = fmt.Errorf("unit %d wall=%d idle=%d: %w", id, wallDelta, idleDelta, ErrInvalidSample)
			continue
		}
		st.load = 100 * (wallDelta - idleDelta) / wallDelta
		st.idleRank = 100 * idleDelta / wallDelta
		sum += st.load
		contributed++
	}
	if anomaly != nil {
		return 0, anomaly
	}
	if contributed == 0 {
		return 0, fmt.Errorf("no unit measured yet: %w", ErrInvalidSample)
	}

	ratio := 1.0
	if s.ratio != nil {
		r, err := s.ratio.OperatingRatio()
		if err != nil {
			return 0, fmt.Errorf("operating ratio: %w", err)
		}
		ratio = r
	}
	return int(float64(sum) * ratio), nil
}

// IdleRank returns the unit's idle percent from the last valid measurement,
// or 0 for unknown ids.
func (s *Sampler) IdleRank(id int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.state) {
		return 0
	}
	return s.state[id].idleRank
}

// UnitLoad returns the unit's busy percent from the last valid measurement.
func (s *Sampler) UnitLoad(id int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.state) {
		return 0
	}
	return s.state[id].load
}
