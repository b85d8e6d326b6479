package util

import "math"

// DeltaU64 returns now-prev for a monotonic counter, or 0 when the counter
// went backwards (wrap, reset, or prev unset).
func DeltaU64(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	return 0
}

func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

// Clamp bounds x to [lo, hi]. NaN maps to lo.
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func Clamp01(x float64) float64 { return Clamp(x, 0, 1) }

// ClampU32 saturates v to the uint32 range.
func ClampU32(v uint64) uint64 {
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return v
}
