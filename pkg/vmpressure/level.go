package vmpressure

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Level is a discrete memory pressure level. The values are spread apart so
// new levels can be slotted in without renumbering.
type Level uint32

const (
	// Low means the system is short on idle pages and losing caches.
	Low Level = 1 << 10
	// Medium means new allocations have become expensive.
	Medium Level = 1 << 20
	// OOM means the system is about to run out of memory.
	OOM Level = 1 << 30
)

func (l Level) String() string {
	switch l {
	case 0:
		return "none"
	case Low:
		return "low"
	case Medium:
		return "medium"
	case OOM:
		return "oom"
	}
	return fmt.Sprintf("level(%d)", uint32(l))
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l == Low || l == Medium || l == OOM
}

// ParseLevel accepts the level names, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "medium", "med":
		return Medium, nil
	case "oom":
		return OOM, nil
	}
	return 0, fmt.Errorf("unknown pressure level %q", s)
}

// WatchConfig configures a subscription.
type WatchConfig struct {
	// Size versions the config and must equal WatchConfigSize.
	Size uint32
	// Threshold is the lowest level that wakes the watcher.
	Threshold Level
}

// WatchConfigSize is the encoded size of WatchConfig: two 32-bit words.
const WatchConfigSize = 8

// EventSize is the encoded size of Event.
const EventSize = 4

// Event is delivered to a woken watcher.
type Event struct {
	// Pressure is the level published when the watcher was woken.
	Pressure Level
}

// MarshalBinary encodes the event as one native-endian 32-bit word.
func (e Event) MarshalBinary() ([]byte, error) {
	buf := make([]byte, EventSize)
	binary.NativeEndian.PutUint32(buf, uint32(e.Pressure))
	return buf, nil
}

func (e *Event) UnmarshalBinary(data []byte) error {
	if len(data) < EventSize {
		return ErrShortBuffer
	}
	e.Pressure = Level(binary.NativeEndian.Uint32(data))
	return nil
}
