package vmpressure

import "fmt"

// Tunables control windowing and level mapping.
type Tunables struct {
	// Window is the number of scanned pages that triggers a recompute.
	Window uint32
	// LevelMed and LevelOOM are the score cutoffs, 0-100, for Medium and OOM.
	LevelMed uint32
	LevelOOM uint32
	// LevelOOMPrio is the reclaim priority at or below which OOM is
	// published immediately.
	LevelOOMPrio uint32
}

// DefaultWindow is 16 reclaim batches of 32 pages.
const DefaultWindow = 32 * 16

func DefaultTunables() Tunables {
	return Tunables{
		Window:       DefaultWindow,
		LevelMed:     60,
		LevelOOM:     99,
		LevelOOMPrio: 4,
	}
}

func (t Tunables) Validate() error {
	switch {
	case t.Window == 0:
		return fmt.Errorf("window must be > 0: %w", ErrInvalidTunables)
	case t.LevelOOM > 100:
		return fmt.Errorf("level_oom=%d above 100: %w", t.LevelOOM, ErrInvalidTunables)
	case t.LevelMed >= t.LevelOOM:
		return fmt.Errorf("level_med=%d not below level_oom=%d: %w", t.LevelMed, t.LevelOOM, ErrInvalidTunables)
	}
	return nil
}

// Level maps a 0-100 score onto a pressure level.
func (t Tunables) Level(score uint32) Level {
	switch {
	case score >= t.LevelOOM:
		return OOM
	case score >= t.LevelMed:
		return Medium
	}
	return Low
}
