package vmpressure

import (
	"math"
	"sync/atomic"
)

// The scanned and reclaimed counts share one 64-bit word so a single atomic
// add updates both and a single swap drains both: scanned lives in the high
// 32 bits, reclaimed in the low 32 bits.
const (
	scannedShift  = 32
	reclaimedMask = 1<<scannedShift - 1
)

type accumulator struct {
	word atomic.Uint64
}

func pack(scanned, reclaimed uint32) uint64 {
	return uint64(scanned)<<scannedShift | uint64(reclaimed)
}

func unpack(w uint64) (scanned, reclaimed uint32) {
	return uint32(w >> scannedShift), uint32(w & reclaimedMask)
}

// add accumulates one report and returns the scanned total it observed.
// Each half saturates at math.MaxUint32 so reclaimed never carries into
// scanned and scanned never wraps.
func (a *accumulator) add(scanned, reclaimed uint32) uint32 {
	for {
		old := a.word.Load()
		s, r := unpack(old)
		s, r = satAdd(s, scanned), satAdd(r, reclaimed)
		if a.word.CompareAndSwap(old, pack(s, r)) {
			return s
		}
	}
}

func satAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

// drain takes everything accumulated so far and leaves zero behind.
func (a *accumulator) drain() (scanned, reclaimed uint32) {
	return unpack(a.word.Swap(0))
}

func (a *accumulator) peek() (scanned, reclaimed uint32) {
	return unpack(a.word.Load())
}
