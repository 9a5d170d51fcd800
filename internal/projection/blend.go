package projection

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/irfndi/kpi-projection/internal/models"
)

// Weight bounds of the internal share.
const (
	minInternalWeight = 0.1
	maxInternalWeight = 0.9
)

// WeightSchedule decides how much of the blended value comes from the
// internal reference games on a given day.
type WeightSchedule struct {
	Mode  models.BlendMode
	Fixed float64
}

// Weight returns the internal weight for 1-based day t of a horizon.
// Time decay moves linearly from 0.9 on day 1 to 0.1 on the last day.
func (s WeightSchedule) Weight(t, days int) float64 {
	if s.Mode == models.BlendFixed {
		return clamp(s.Fixed, minInternalWeight, maxInternalWeight)
	}
	if days <= 1 {
		return maxInternalWeight
	}
	w := maxInternalWeight - (maxInternalWeight-minInternalWeight)*float64(t-1)/float64(days-1)
	return clamp(w, minInternalWeight, maxInternalWeight)
}

// Bounds is the valid range of a blended metric.
type Bounds struct {
	Min float64
	Max float64
}

var (
	RetentionBounds   = Bounds{Min: 0, Max: 1}
	PaymentRateBounds = Bounds{Min: 0, Max: 1}
	ARPPUBounds       = Bounds{Min: 1000, Max: maxDailyValue}
)

// Blend mixes internal and benchmark series day by day. Shorter series are
// extended with their last value; an empty internal series yields the
// benchmark alone.
func Blend(internal, benchmark []float64, days int, schedule WeightSchedule, bounds Bounds) []float64 {
	if days <= 0 {
		return []float64{}
	}
	out := make([]float64, days)
	for i := range out {
		w := 0.0
		if len(internal) > 0 {
			w = schedule.Weight(i+1, days)
		}
		v := valueAt(internal, i)*w + valueAt(benchmark, i)*(1-w)
		out[i] = clamp(v, bounds.Min, bounds.Max)
	}
	return out
}

// MeanSeries averages reference games day by day. Each game is extended
// with its last value up to the longest series; empty games are skipped and
// non-finite values count as zero.
func MeanSeries(series [][]float64) []float64 {
	longest := 0
	used := make([][]float64, 0, len(series))
	for _, s := range series {
		if len(s) == 0 {
			continue
		}
		used = append(used, s)
		if len(s) > longest {
			longest = len(s)
		}
	}
	if len(used) == 0 {
		return nil
	}

	out := make([]float64, longest)
	day := make([]float64, len(used))
	for i := range out {
		for g, s := range used {
			v := valueAt(s, i)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			day[g] = v
		}
		out[i] = floats.Sum(day) / float64(len(used))
	}
	return out
}
