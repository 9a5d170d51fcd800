package projection

import "time"

// Calendar maps projection days (0-based, 0 is launch day) to calendar
// months. A zero launch date uses 30-day months starting in January.
type Calendar struct {
	Launch time.Time
}

func (c Calendar) date(t int) time.Time {
	return c.Launch.AddDate(0, 0, t)
}

// Month returns the calendar month (1..12) of day t.
func (c Calendar) Month(t int) int {
	if c.Launch.IsZero() {
		return (t/30)%12 + 1
	}
	return int(c.date(t).Month())
}

// MonthStart reports whether day t opens a new calendar month after launch.
func (c Calendar) MonthStart(t int) bool {
	if t <= 0 {
		return false
	}
	if c.Launch.IsZero() {
		return t%30 == 0
	}
	return c.date(t).Day() == 1
}

// SeasonalityTable holds month-of-year traffic and spend multipliers per
// region. Index 0 is January.
type SeasonalityTable struct {
	regions map[string][12]float64
}

// NewSeasonalityTable returns the built-in regional multipliers.
func NewSeasonalityTable() *SeasonalityTable {
	return &SeasonalityTable{
		regions: map[string][12]float64{
			"GLOBAL": {1.00, 0.97, 0.98, 0.97, 0.99, 1.00, 1.05, 1.06, 0.98, 0.99, 1.02, 1.08},
			"KR":     {1.08, 1.05, 0.95, 0.96, 0.98, 0.97, 1.05, 1.08, 1.02, 1.00, 0.97, 1.06},
			"JP":     {1.10, 0.96, 0.98, 1.03, 1.05, 0.95, 1.02, 1.08, 0.97, 0.98, 0.99, 1.08},
			"CN":     {1.06, 1.12, 0.96, 0.97, 1.02, 0.98, 1.06, 1.07, 0.97, 1.05, 0.98, 1.00},
			"NA":     {1.02, 0.96, 0.98, 0.97, 0.98, 1.02, 1.04, 1.00, 0.96, 0.98, 1.08, 1.12},
			"EU":     {1.03, 0.97, 0.98, 0.98, 0.97, 0.99, 1.03, 1.05, 0.97, 0.99, 1.04, 1.10},
			"SEA":    {1.05, 1.06, 0.99, 1.03, 0.98, 0.99, 1.01, 1.00, 0.98, 0.99, 1.01, 1.06},
			"LATAM":  {1.06, 1.00, 0.98, 0.98, 0.99, 1.01, 1.04, 0.99, 0.98, 0.99, 1.03, 1.10},
		},
	}
}

// Regions returns the region codes the table knows.
func (s *SeasonalityTable) Regions() []string {
	out := make([]string, 0, len(s.regions))
	for r := range s.regions {
		out = append(out, r)
	}
	return out
}

// MonthFactors averages the month multipliers of the known regions among
// the requested ones. With no known region every month is 1.0.
func (s *SeasonalityTable) MonthFactors(regions []string) [12]float64 {
	var sum [12]float64
	n := 0
	for _, r := range regions {
		row, ok := s.regions[normalizeKey(r)]
		if !ok {
			continue
		}
		for m := range row {
			sum[m] += row[m]
		}
		n++
	}

	var out [12]float64
	for m := range out {
		if n == 0 {
			out[m] = 1
			continue
		}
		out[m] = sum[m] / float64(n)
	}
	return out
}

// Daily expands the averaged month multipliers onto the projection horizon.
func (s *SeasonalityTable) Daily(regions []string, cal Calendar, days int) []float64 {
	factors := s.MonthFactors(regions)
	out := make([]float64, days)
	for t := range out {
		out[t] = factors[cal.Month(t)-1]
	}
	return out
}
