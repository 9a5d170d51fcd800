package projection

// retentionAt returns the share of a cohort active d days after install.
// Install day is fully active; curve[0] is day-1 retention.
func retentionAt(curve []float64, d int) float64 {
	if d == 0 {
		return 1.0
	}
	if d < 0 || d > len(curve) {
		return 0
	}
	return curve[d-1]
}

// ReconstructDAU sums every earlier cohort's retained users for each day:
// DAU[t] = Σ_{c ≤ t} paid[c]·paidCurve(t−c) + organic[c]·organicCurve(t−c).
func ReconstructDAU(paid, organic []int64, paidCurve, organicCurve []float64) []int64 {
	days := len(paid)
	if len(organic) > days {
		days = len(organic)
	}

	dau := make([]int64, days)
	for t := 0; t < days; t++ {
		var active float64
		for c := 0; c <= t; c++ {
			d := t - c
			if c < len(paid) && paid[c] > 0 {
				active += float64(paid[c]) * retentionAt(paidCurve, d)
			}
			if c < len(organic) && organic[c] > 0 {
				active += float64(organic[c]) * retentionAt(organicCurve, d)
			}
		}
		dau[t] = truncCount(active)
	}
	return dau
}
