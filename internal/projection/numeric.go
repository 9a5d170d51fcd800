package projection

import (
	"math"

	"github.com/shopspring/decimal"
)

// maxDailyValue caps every per-day count and currency amount so that sums
// over the longest horizon stay inside int64.
const maxDailyValue = 1e15

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// clamp bounds v to [lo, hi]; NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// truncCount truncates a non-negative amount toward zero and caps it.
func truncCount(v float64) int64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= maxDailyValue {
		return int64(maxDailyValue)
	}
	return int64(v)
}

// truncSigned truncates toward zero keeping the sign, capped symmetrically.
func truncSigned(v float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return -truncCount(-v)
	}
	return truncCount(v)
}

// floorOne returns max(1, v) for use as a safe divisor.
func floorOne(v float64) float64 {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	return v
}

// valueAt reads series[i], extending the series with its last value.
// An empty series reads as zero.
func valueAt(series []float64, i int) float64 {
	if len(series) == 0 {
		return 0
	}
	if i < len(series) {
		return series[i]
	}
	return series[len(series)-1]
}

func constantSeries(v float64, days int) []float64 {
	out := make([]float64, days)
	for i := range out {
		out[i] = v
	}
	return out
}

// roundTo rounds half away from zero to the given decimal places.
func roundTo(v float64, places int32) float64 {
	if !isFinite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
