package projection

import (
	"math"

	"github.com/irfndi/kpi-projection/internal/models"
)

// BudgetAllocation is the marketing plan of one scenario run.
type BudgetAllocation struct {
	UABudget               float64
	BrandBudget            float64
	TargetCPA              float64
	BaseOrganicRatio       float64
	PreMarketingShare      float64
	WishlistConversionRate float64
	LaunchPeriodDays       int
	BrandLag               bool
	BrandLagCenterDay      float64
	BrandLagSigmaDays      float64
}

// AllocationFromMarketing copies the marketing input of a normalized request.
func AllocationFromMarketing(m models.MarketingInput) BudgetAllocation {
	return BudgetAllocation{
		UABudget:               m.UABudget,
		BrandBudget:            m.BrandBudget,
		TargetCPA:              m.TargetCPA,
		BaseOrganicRatio:       m.BaseOrganicRatio,
		PreMarketingShare:      m.PreMarketingShare,
		WishlistConversionRate: m.WishlistConversionRate,
		LaunchPeriodDays:       m.LaunchPeriodDays,
		BrandLag:               m.BrandLag,
		BrandLagCenterDay:      m.BrandLagCenterDay,
		BrandLagSigmaDays:      m.BrandLagSigmaDays,
	}
}

// TotalBudget is UA plus brand spend.
func (a BudgetAllocation) TotalBudget() float64 {
	return a.UABudget + a.BrandBudget
}

// AcquisitionOptions carries the horizon-level inputs of one scenario.
type AcquisitionOptions struct {
	Days int
	// Shape is the launch-window distribution; nil uses the power decay.
	Shape       []float64
	Events      []models.LiveEvent
	Calendar    Calendar
	Seasonality []float64
	Multiplier  float64
}

// Acquisition is the daily user intake of one scenario.
type Acquisition struct {
	Paid         []int64
	Organic      []int64
	EffectiveCPA float64
	OrganicBoost float64
	OrganicRatio float64
	WishlistPool float64
	PaidTotal    float64
}

// BudgetConverter turns marketing budgets into daily paid and organic new
// users.
type BudgetConverter struct {
	ReferenceScale         float64
	SaturationFactor       float64
	OrganicBoostFactor     float64
	MaxOrganicBoost        float64
	WishlistCostRatio      float64
	WishlistOrganicFactor  float64
	BurstSplit             []float64
	LaunchDecayPower       float64
	SustainingShare        float64
	SustainingMonthlyDecay float64
	OrganicFloor           float64
	EventBoostDays         int
	EventOrganicFactor     float64
}

// NewBudgetConverter returns a converter with the standard constants.
func NewBudgetConverter() *BudgetConverter {
	return &BudgetConverter{
		ReferenceScale:         500_000_000,
		SaturationFactor:       0.1,
		OrganicBoostFactor:     0.7,
		MaxOrganicBoost:        3.0,
		WishlistCostRatio:      0.3,
		WishlistOrganicFactor:  1.5,
		BurstSplit:             []float64{0.8, 0.1, 0.1},
		LaunchDecayPower:       0.8,
		SustainingShare:        0.10,
		SustainingMonthlyDecay: 0.85,
		OrganicFloor:           10,
		EventBoostDays:         7,
		EventOrganicFactor:     1.5,
	}
}

// EffectiveCPA applies log saturation once total spend exceeds the
// reference scale. The result is never below 1.
func (c *BudgetConverter) EffectiveCPA(a BudgetAllocation) float64 {
	cpa := a.TargetCPA
	scale := a.TotalBudget() / c.ReferenceScale
	if scale > 1 && isFinite(scale) {
		cpa *= 1 + c.SaturationFactor*math.Log(scale)
	}
	return floorOne(cpa)
}

// OrganicBoost grows with the brand-to-UA ratio and is capped.
func (c *BudgetConverter) OrganicBoost(a BudgetAllocation) float64 {
	ratio := a.BrandBudget / floorOne(a.UABudget)
	boost := 1 + c.OrganicBoostFactor*math.Log1p(ratio)
	return clamp(boost, 1, c.MaxOrganicBoost)
}

// LaunchShape returns the launch-window distribution of new users, summing
// to 1 over window days. The mean normalized day share of the reference NRU
// series is used when any is usable, otherwise 1/t^LaunchDecayPower.
func (c *BudgetConverter) LaunchShape(window int, reference [][]float64) []float64 {
	if window <= 0 {
		return []float64{}
	}

	shape := make([]float64, window)
	games := 0
	for _, s := range reference {
		var total float64
		for i := 0; i < window; i++ {
			v := valueAt(s, i)
			if isFinite(v) && v > 0 {
				total += v
			}
		}
		if len(s) == 0 || total <= 0 || !isFinite(total) {
			continue
		}
		for i := 0; i < window; i++ {
			v := valueAt(s, i)
			if isFinite(v) && v > 0 {
				shape[i] += v / total
			}
		}
		games++
	}

	if games == 0 {
		for t := 1; t <= window; t++ {
			shape[t-1] = 1 / math.Pow(float64(t), c.LaunchDecayPower)
		}
	}
	return normalizeShape(shape)
}

// BrandLagShape is a Gaussian over the horizon centered at center (1-based
// day) with the given sigma, normalized to sum to 1.
func BrandLagShape(days int, center, sigma float64) []float64 {
	if days <= 0 {
		return []float64{}
	}
	if sigma <= 0 {
		sigma = models.DefaultBrandLagSigmaDays
	}
	shape := make([]float64, days)
	for t := 1; t <= days; t++ {
		z := (float64(t) - center) / sigma
		shape[t-1] = math.Exp(-0.5 * z * z)
	}
	return normalizeShape(shape)
}

func normalizeShape(shape []float64) []float64 {
	var total float64
	for _, v := range shape {
		total += v
	}
	if total <= 0 || !isFinite(total) {
		for i := range shape {
			shape[i] = 1 / float64(len(shape))
		}
		return shape
	}
	for i := range shape {
		shape[i] /= total
	}
	return shape
}

// Acquire converts one scenario's budget into daily paid and organic users.
// Derived quantities are recomputed on every call.
func (c *BudgetConverter) Acquire(a BudgetAllocation, opts AcquisitionOptions) Acquisition {
	days := opts.Days
	if days < 0 {
		days = 0
	}
	window := a.LaunchPeriodDays
	if window <= 0 {
		window = models.DefaultLaunchPeriodDays
	}

	shape := opts.Shape
	if len(shape) != window {
		shape = c.LaunchShape(window, nil)
	}

	effCPA := c.EffectiveCPA(a)
	boost := c.OrganicBoost(a)
	organicRatio := a.BaseOrganicRatio * boost

	paid := make([]float64, days)
	organic := make([]float64, days)

	// Pre-launch wishlist burst over the first days.
	pre := a.UABudget * a.PreMarketingShare
	paidPool := pre / (c.WishlistCostRatio * effCPA)
	organicPool := paidPool * organicRatio * c.WishlistOrganicFactor
	for i, share := range c.BurstSplit {
		if i >= days {
			break
		}
		paid[i] += paidPool * a.WishlistConversionRate * share
		organic[i] += organicPool * a.WishlistConversionRate * share
	}

	// Launch window.
	paidTotal := a.UABudget * (1 - a.PreMarketingShare) / effCPA
	organicTotal := paidTotal * organicRatio
	for t := 0; t < window && t < days; t++ {
		paid[t] += paidTotal * shape[t]
	}
	if a.BrandLag {
		lag := BrandLagShape(days, a.BrandLagCenterDay, a.BrandLagSigmaDays)
		for t := range organic {
			organic[t] += organicTotal * lag[t]
		}
	} else {
		for t := 0; t < window && t < days; t++ {
			organic[t] += organicTotal * shape[t]
		}
	}

	// Sustaining tail after the launch window.
	lastPaid := paidTotal * shape[window-1]
	lastOrganic := organicTotal * shape[window-1]
	for t := window; t < days; t++ {
		month := (t - window) / 30
		f := c.SustainingShare * math.Pow(c.SustainingMonthlyDecay, float64(month))
		paid[t] += lastPaid * f
		organic[t] += lastOrganic * f
	}

	c.applyLiveEvents(paid, organic, opts.Events, opts.Calendar)

	mult := opts.Multiplier
	if !isFinite(mult) || mult < 0 {
		mult = 0
	}

	out := Acquisition{
		Paid:         make([]int64, days),
		Organic:      make([]int64, days),
		EffectiveCPA: effCPA,
		OrganicBoost: boost,
		OrganicRatio: organicRatio,
		WishlistPool: paidPool,
		PaidTotal:    paidTotal,
	}
	for t := 0; t < days; t++ {
		season := 1.0
		if len(opts.Seasonality) > 0 {
			season = valueAt(opts.Seasonality, t)
		}
		out.Paid[t] = truncCount(paid[t] * season * mult)
		out.Organic[t] = truncCount(organic[t] * season * mult)
	}

	// The sustaining floor holds after every scaling step.
	floor := truncCount(c.OrganicFloor)
	for t := window; t < days; t++ {
		if out.Organic[t] < floor {
			out.Organic[t] = floor
		}
	}
	return out
}

// applyLiveEvents adds a decaying traffic boost from the first day of each
// event's calendar month. The boost is proportional to the previous day's
// intake.
func (c *BudgetConverter) applyLiveEvents(paid, organic []float64, events []models.LiveEvent, cal Calendar) {
	if len(events) == 0 || c.EventBoostDays <= 0 {
		return
	}
	days := len(paid)
	for t := 1; t < days; t++ {
		if !cal.MonthStart(t) {
			continue
		}
		month := cal.Month(t)
		for _, ev := range events {
			if ev.Month != month {
				continue
			}
			extra := ev.TrafficBoost - 1
			paidBoost := paid[t-1] * extra
			organicBoost := organic[t-1] * extra * c.EventOrganicFactor
			for k := 0; k < c.EventBoostDays && t+k < days; k++ {
				decay := 1 - float64(k)/float64(c.EventBoostDays)
				paid[t+k] = math.Max(0, paid[t+k]+paidBoost*decay)
				organic[t+k] = math.Max(0, organic[t+k]+organicBoost*decay)
			}
		}
	}
}
