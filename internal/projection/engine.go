// Package projection computes best/normal/worst daily KPI projections for
// a game launch from reference games, market benchmarks and a marketing
// budget. Everything in this package is pure: no I/O, no shared state, and
// no error crosses Project.
package projection

import (
	"github.com/irfndi/kpi-projection/internal/models"
)

// Engine runs projections against fixed benchmark and seasonality tables.
// It is safe for concurrent use.
type Engine struct {
	benchmarks  *BenchmarkTable
	seasonality *SeasonalityTable
	fitter      *CurveFitter
	converter   *BudgetConverter
	settings    models.EngineSettings
}

// NewEngine returns an engine using the built-in tables.
func NewEngine(settings models.EngineSettings) *Engine {
	return NewEngineWith(settings, NewBenchmarkTable(), NewSeasonalityTable(), NewCurveFitter(), NewBudgetConverter())
}

// NewEngineWith returns an engine with explicit components. Nil components
// fall back to their defaults.
func NewEngineWith(settings models.EngineSettings, bench *BenchmarkTable, season *SeasonalityTable, fitter *CurveFitter, converter *BudgetConverter) *Engine {
	if bench == nil {
		bench = NewBenchmarkTable()
	}
	if season == nil {
		season = NewSeasonalityTable()
	}
	if fitter == nil {
		fitter = NewCurveFitter()
	}
	if converter == nil {
		converter = NewBudgetConverter()
	}
	return &Engine{
		benchmarks:  bench,
		seasonality: season,
		fitter:      fitter,
		converter:   converter,
		settings:    settings,
	}
}

// Settings returns the configured cost settings and scenario adjustments.
func (e *Engine) Settings() models.EngineSettings {
	return e.settings
}

// Benchmarks exposes the benchmark table.
func (e *Engine) Benchmarks() *BenchmarkTable {
	return e.benchmarks
}

// Seasonality exposes the regional seasonality table.
func (e *Engine) Seasonality() *SeasonalityTable {
	return e.seasonality
}

// Fitter exposes the curve fitter.
func (e *Engine) Fitter() *CurveFitter {
	return e.fitter
}

// baseline holds everything shared by the three scenarios. It is never
// mutated after construction.
type baseline struct {
	days        int
	retention   []float64
	paymentRate []float64
	arppu       []float64
	shape       []float64
	season      []float64
	eventBoost  []float64
	calendar    Calendar
	benchFit    FitResult
	internal    RetentionCurveParams
	games       int
}

func (e *Engine) baseline(req models.ProjectionRequest, refs models.ReferenceData) baseline {
	days := req.ProjectionDays
	anchors := e.benchmarks.Anchors(req.Platforms, req.Genre, req.BMType)
	quality := e.benchmarks.QualityMultiplier(req.Quality.Score)
	schedule := WeightSchedule{Mode: req.Blending.Mode, Fixed: req.Blending.Weight}

	benchFit := e.fitter.BenchmarkRetention(anchors)
	benchRetention := scaleCurve(GenerateRetentionCurve(benchFit.Params, anchors.D1, days), quality, 0, 1)

	internalParams, games := e.fitter.FitReferenceGames(refs.Retention)
	var internalRetention []float64
	if games > 0 {
		internalRetention = GenerateRetentionCurve(internalParams, internalParams.A, days)
	}

	cal := Calendar{Launch: req.LaunchTime()}
	return baseline{
		days:        days,
		retention:   Blend(internalRetention, benchRetention, days, schedule, RetentionBounds),
		paymentRate: Blend(MeanSeries(refs.PaymentRate), constantSeries(anchors.PaymentRate*quality, days), days, schedule, PaymentRateBounds),
		arppu:       Blend(MeanSeries(refs.ARPPU), constantSeries(anchors.ARPPU*quality, days), days, schedule, ARPPUBounds),
		shape:       e.converter.LaunchShape(req.Marketing.LaunchPeriodDays, refs.NRU),
		season:      e.seasonality.Daily(req.Regions, cal, days),
		eventBoost:  EventRevenueBoost(req.LiveEvents, cal, days),
		calendar:    cal,
		benchFit:    benchFit,
		internal:    internalParams,
		games:       games,
	}
}

// Project runs all three scenarios. The request is normalized first, so any
// input yields a complete result with finite values.
func (e *Engine) Project(req models.ProjectionRequest, refs models.ReferenceData) models.ProjectionResult {
	req = req.Normalize()
	base := e.baseline(req, refs)
	basic := e.settings.Basic.Apply(req.BasicSettings)

	result := models.ProjectionResult{
		Status:  "success",
		Version: models.EngineVersion,
		Results: make(map[models.ScenarioName]models.ScenarioSeries, len(models.AllScenarios)),
		Summary: make(map[models.ScenarioName]models.ScenarioSummary, len(models.AllScenarios)),
		Assumptions: models.Assumptions{
			Settings:    basic,
			Adjustments: e.settings.Adjustments,
			Multipliers: make(map[models.ScenarioName]float64, len(models.AllScenarios)),
			LaunchDays:  req.Marketing.LaunchPeriodDays,
		},
	}

	var normal Acquisition
	for _, name := range models.AllScenarios {
		series, summary, acq := e.scenario(req, base, basic, name)
		result.Results[name] = series
		result.Summary[name] = summary
		result.Assumptions.Multipliers[name] = summary.Multiplier
		if name == models.ScenarioNormal {
			normal = acq
		}
	}

	result.Meta = models.ProjectionMeta{
		ProjectionDays: base.days,
		LaunchDate:     req.LaunchDate,
		Genre:          req.Genre,
		Platforms:      req.Platforms,
		Regions:        req.Regions,
		BMType:         req.BMType,
		QualityScore:   req.Quality.Score,
		BlendMode:      req.Blending.Mode,
		EffectiveCPA:   truncCount(normal.EffectiveCPA),
		OrganicRatio:   roundTo(normal.OrganicRatio, 4),
		WishlistPool:   truncCount(normal.WishlistPool),
		Fit: models.FitDiagnostics{
			InternalGames:   base.games,
			InternalA:       roundTo(base.internal.A, 4),
			InternalB:       roundTo(base.internal.B, 4),
			BenchmarkA:      roundTo(base.benchFit.Params.A, 4),
			BenchmarkB:      roundTo(base.benchFit.Params.B, 4),
			BenchmarkStatus: string(base.benchFit.Status),
		},
	}
	return result
}

// scenario computes one scenario from the shared baseline. It reads base
// and never writes to it.
func (e *Engine) scenario(req models.ProjectionRequest, base baseline, basic models.BasicSettings, name models.ScenarioName) (models.ScenarioSeries, models.ScenarioSummary, Acquisition) {
	input := req.Scenarios.Get(name)
	multiplier := e.settings.Adjustments.Multiplier(name)

	target := input.TargetD1Retention
	if target <= 0 && len(base.retention) > 0 {
		target = base.retention[0]
	}
	organicCurve := RescaleCurve(base.retention, target)
	paidCurve := scaleCurve(organicCurve, req.Marketing.PaidUserQualityRatio, 0, 1)

	paymentRate := scaleCurve(base.paymentRate, input.PaymentRateAdjustment, PaymentRateBounds.Min, PaymentRateBounds.Max)
	arppu := scaleCurve(base.arppu, input.ARPPUAdjustment, 0, ARPPUBounds.Max)
	if req.Seasonality.ApplyToARPPU {
		for t := range arppu {
			arppu[t] = clamp(arppu[t]*valueAt(base.season, t), 0, ARPPUBounds.Max)
		}
	}

	alloc := AllocationFromMarketing(req.Marketing)
	opts := AcquisitionOptions{
		Days:       base.days,
		Shape:      base.shape,
		Events:     req.LiveEvents,
		Calendar:   base.calendar,
		Multiplier: multiplier * input.NRURatio,
	}
	if req.Seasonality.ApplyToNRU {
		opts.Seasonality = base.season
	}
	acq := e.converter.Acquire(alloc, opts)

	nru := make([]int64, base.days)
	for t := range nru {
		nru[t] = acq.Paid[t] + acq.Organic[t]
	}
	dau := ReconstructDAU(acq.Paid, acq.Organic, paidCurve, organicCurve)

	revenue := ComposeRevenue(RevenueInputs{
		NRU:          nru,
		DAU:          dau,
		PaymentRate:  paymentRate,
		ARPPU:        arppu,
		Multiplier:   multiplier,
		PackagePrice: req.Revenue.PackagePrice,
		Ads:          req.Revenue,
		EventBoost:   base.eventBoost,
	})
	cost := ComposeCost(revenue, CostInputs{
		HRCostMonthly:       basic.HRCostMonthly,
		MarketingSpend:      alloc.TotalBudget(),
		LaunchPeriodDays:    alloc.LaunchPeriodDays,
		SustainingCostRatio: req.Marketing.SustainingCostRatio,
	})
	profit, cumulative := ProfitSeries(revenue, cost)

	series := models.ScenarioSeries{
		NRU:              nru,
		NRUPaid:          acq.Paid,
		NRUOrganic:       acq.Organic,
		DAU:              dau,
		Revenue:          revenue,
		Cost:             cost,
		Profit:           profit,
		CumulativeProfit: cumulative,
		Retention:        organicCurve,
		PaymentRate:      paymentRate,
		ARPPU:            arppu,
	}
	summary := Summarize(series, Spend{UA: alloc.UABudget, Brand: alloc.BrandBudget}, acq, multiplier)
	return series, summary, acq
}
