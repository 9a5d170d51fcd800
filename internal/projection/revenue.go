package projection

import (
	"math"

	"github.com/irfndi/kpi-projection/internal/models"
)

// RevenueInputs are the per-day drivers of one scenario's revenue.
type RevenueInputs struct {
	NRU          []int64
	DAU          []int64
	PaymentRate  []float64
	ARPPU        []float64
	Multiplier   float64
	PackagePrice float64
	Ads          models.RevenueInput
	EventBoost   []float64
}

// CostInputs are the per-day drivers of one scenario's cost.
type CostInputs struct {
	HRCostMonthly       float64
	MarketingSpend      float64
	LaunchPeriodDays    int
	SustainingCostRatio float64
}

// EventRevenueBoost returns, for every day, the largest revenue boost among
// the live events of that day's calendar month, or 1.
func EventRevenueBoost(events []models.LiveEvent, cal Calendar, days int) []float64 {
	out := constantSeries(1, days)
	if len(events) == 0 {
		return out
	}
	for t := range out {
		month := cal.Month(t)
		boost := 0.0
		for _, ev := range events {
			if ev.Month == month && ev.RevenueBoost > boost {
				boost = ev.RevenueBoost
			}
		}
		if boost > 0 {
			out[t] = boost
		}
	}
	return out
}

// ComposeRevenue combines package sales, in-app purchases and ads.
// ARPPU is a monthly figure and is spread over 30 days.
func ComposeRevenue(in RevenueInputs) []int64 {
	days := len(in.DAU)
	out := make([]int64, days)
	for t := 0; t < days; t++ {
		var nru float64
		if t < len(in.NRU) {
			nru = float64(in.NRU[t])
		}
		dau := float64(in.DAU[t])

		pkg := nru * in.PackagePrice
		iap := dau * valueAt(in.PaymentRate, t) * valueAt(in.ARPPU, t) / 30 * in.Multiplier
		var ad float64
		if in.Ads.UseAdRevenue {
			ad = dau * in.Ads.AdImpressionsPerDAU * in.Ads.AdECPM / 1000
		}

		boost := 1.0
		if len(in.EventBoost) > 0 {
			boost = valueAt(in.EventBoost, t)
		}
		out[t] = truncCount((pkg + iap + ad) * boost)
	}
	return out
}

// ComposeCost adds the fixed HR cost, marketing spend pro-rated over the
// launch window, and a revenue-linked sustaining cost.
func ComposeCost(revenue []int64, in CostInputs) []int64 {
	out := make([]int64, len(revenue))
	window := in.LaunchPeriodDays
	if window <= 0 {
		window = models.DefaultLaunchPeriodDays
	}
	daily := math.Max(0, in.HRCostMonthly) / 30
	marketing := math.Max(0, in.MarketingSpend) / float64(window)
	for t := range out {
		cost := daily + float64(revenue[t])*in.SustainingCostRatio
		if t < window {
			cost += marketing
		}
		out[t] = truncCount(cost)
	}
	return out
}

// ProfitSeries returns daily and cumulative profit.
func ProfitSeries(revenue, cost []int64) (profit, cumulative []int64) {
	profit = make([]int64, len(revenue))
	cumulative = make([]int64, len(revenue))
	var running int64
	for t := range revenue {
		profit[t] = revenue[t] - cost[t]
		running += profit[t]
		cumulative[t] = running
	}
	return profit, cumulative
}
