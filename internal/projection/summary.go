package projection

import "github.com/irfndi/kpi-projection/internal/models"

// Spend is the marketing outlay a summary is measured against.
type Spend struct {
	UA    float64
	Brand float64
}

// BreakEvenDay returns the 1-based first day whose cumulative profit is at
// least zero, or -1 when the horizon never breaks even.
func BreakEvenDay(cumulative []int64) int {
	for i, v := range cumulative {
		if v >= 0 {
			return i + 1
		}
	}
	return -1
}

func sum(series []int64) int64 {
	var total int64
	for _, v := range series {
		total += v
	}
	return total
}

func peak(series []int64) int64 {
	var m int64
	for _, v := range series {
		if v > m {
			m = v
		}
	}
	return m
}

// Summarize reduces a scenario's daily series to its headline KPIs.
func Summarize(series models.ScenarioSeries, spend Spend, acq Acquisition, multiplier float64) models.ScenarioSummary {
	revenue := sum(series.Revenue)
	cost := sum(series.Cost)
	paidNRU := sum(series.NRUPaid)
	organicNRU := sum(series.NRUOrganic)
	totalNRU := paidNRU + organicNRU
	total := spend.UA + spend.Brand

	rev := float64(revenue)
	return models.ScenarioSummary{
		TotalRevenue:    revenue,
		TotalCost:       cost,
		NetProfit:       revenue - cost,
		PaidROAS:        roundTo(rev/floorOne(spend.UA)*100, 1),
		BlendedROAS:     roundTo(rev/floorOne(total)*100, 1),
		ROI:             roundTo(float64(revenue-cost)/floorOne(float64(cost))*100, 1),
		BEPDay:          BreakEvenDay(series.CumulativeProfit),
		CACPaid:         truncCount(spend.UA / floorOne(float64(paidNRU))),
		CACBlended:      truncCount(total / floorOne(float64(totalNRU))),
		TotalNRU:        totalNRU,
		TotalNRUPaid:    paidNRU,
		TotalNRUOrganic: organicNRU,
		PeakDAU:         peak(series.DAU),
		EffectiveCPA:    truncCount(acq.EffectiveCPA),
		OrganicBoost:    roundTo(acq.OrganicBoost, 2),
		Multiplier:      roundTo(multiplier, 2),
	}
}
