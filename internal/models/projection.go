package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Defaults applied to a ProjectionRequest before binding and by Normalize.
const (
	DefaultProjectionDays         = 365
	MaxProjectionDays             = 3650
	DefaultLaunchPeriodDays       = 30
	DefaultTargetCPA              = 2000
	DefaultBaseOrganicRatio       = 0.2
	DefaultWishlistConversionRate = 0.15
	DefaultSustainingCostRatio    = 0.07
	DefaultPaidUserQualityRatio   = 0.8
	DefaultAdImpressionsPerDAU    = 5
	DefaultAdECPM                 = 5000
	DefaultBlendWeight            = 0.5
	DefaultBrandLagCenterDay      = 14
	DefaultBrandLagSigmaDays      = 7
	LaunchDateLayout              = "2006-01-02"
)

// BlendMode selects the internal/benchmark weighting schedule.
type BlendMode string

const (
	BlendTimeDecay BlendMode = "time_decay"
	BlendFixed     BlendMode = "fixed"
)

// ProjectionRequest is the input of a single projection run.
type ProjectionRequest struct {
	LaunchDate     string              `json:"launch_date"`
	ProjectionDays int                 `json:"projection_days" binding:"omitempty,min=1,max=3650"`
	Regions        []string            `json:"regions"`
	Genre          string              `json:"genre"`
	Platforms      []string            `json:"platforms"`
	BMType         string              `json:"bm_type"`
	Marketing      MarketingInput      `json:"marketing"`
	Quality        QualityInput        `json:"quality"`
	SelectedGames  SelectedGames       `json:"selected_games"`
	Scenarios      ScenarioSet         `json:"scenarios"`
	Revenue        RevenueInput        `json:"revenue"`
	LiveEvents     []LiveEvent         `json:"live_events" binding:"dive"`
	Blending       BlendingInput       `json:"blending"`
	Seasonality    SeasonalityInput    `json:"seasonality"`
	BasicSettings  BasicSettingsChange `json:"basic_settings"`
}

// MarketingInput holds the budget levers converted into acquired users.
type MarketingInput struct {
	UABudget               float64 `json:"ua_budget" binding:"gte=0"`
	BrandBudget            float64 `json:"brand_budget" binding:"gte=0"`
	TargetCPA              float64 `json:"target_cpa" binding:"gte=0"`
	BaseOrganicRatio       float64 `json:"base_organic_ratio" binding:"gte=0"`
	PreMarketingShare      float64 `json:"pre_marketing_share" binding:"gte=0,lte=1"`
	WishlistConversionRate float64 `json:"wishlist_conversion_rate" binding:"gte=0,lte=1"`
	SustainingCostRatio    float64 `json:"sustaining_cost_ratio" binding:"gte=0,lte=1"`
	PaidUserQualityRatio   float64 `json:"paid_user_quality_ratio" binding:"gte=0,lte=1"`
	LaunchPeriodDays       int     `json:"launch_period_days" binding:"gte=0,max=3650"`
	BrandLag               bool    `json:"brand_lag"`
	BrandLagCenterDay      float64 `json:"brand_lag_center_day"`
	BrandLagSigmaDays      float64 `json:"brand_lag_sigma_days"`
}

// QualityInput carries the assessed quality grade (S/A/B/C/D).
type QualityInput struct {
	Score string `json:"score"`
}

// RevenueInput configures the non-IAP revenue streams.
type RevenueInput struct {
	PackagePrice        float64 `json:"package_price" binding:"gte=0"`
	UseAdRevenue        bool    `json:"use_ad_revenue"`
	AdImpressionsPerDAU float64 `json:"ad_impressions_per_dau" binding:"gte=0"`
	AdECPM              float64 `json:"ad_ecpm" binding:"gte=0"`
}

// LiveEvent boosts traffic and revenue during one calendar month.
type LiveEvent struct {
	Month        int     `json:"month" binding:"min=1,max=12"`
	Name         string  `json:"name"`
	TrafficBoost float64 `json:"traffic_boost"`
	RevenueBoost float64 `json:"revenue_boost"`
}

// BlendingInput picks how internal and benchmark curves are combined.
// Weight is the internal share used by the fixed mode.
type BlendingInput struct {
	Mode   BlendMode `json:"mode"`
	Weight float64   `json:"weight"`
}

// SeasonalityInput toggles the regional month-of-year multipliers.
type SeasonalityInput struct {
	ApplyToNRU   bool `json:"apply_to_nru"`
	ApplyToARPPU bool `json:"apply_to_arppu"`
}

// BasicSettingsChange lets a request override configured cost settings.
type BasicSettingsChange struct {
	HRCostMonthly *float64 `json:"hr_cost_monthly,omitempty"`
}

// ScenarioInput holds one scenario's scalar adjustments.
// A zero TargetD1Retention means "use the blended day-1 retention".
type ScenarioInput struct {
	TargetD1Retention     float64 `json:"target_d1_retention" binding:"gte=0,lte=1"`
	NRURatio              float64 `json:"nru_ratio" binding:"gte=0"`
	PaymentRateAdjustment float64 `json:"payment_rate_adjustment" binding:"gte=0"`
	ARPPUAdjustment       float64 `json:"arppu_adjustment" binding:"gte=0"`
}

// ScenarioSet groups the three named scenarios.
type ScenarioSet struct {
	Best   ScenarioInput `json:"best"`
	Normal ScenarioInput `json:"normal"`
	Worst  ScenarioInput `json:"worst"`
}

// Get returns the input for a scenario name, falling back to Normal.
func (s ScenarioSet) Get(name ScenarioName) ScenarioInput {
	switch name {
	case ScenarioBest:
		return s.Best
	case ScenarioWorst:
		return s.Worst
	default:
		return s.Normal
	}
}

// SelectedGames lists reference games per metric. A bare JSON array selects
// the same games for every metric.
type SelectedGames struct {
	Retention   []string `json:"retention"`
	NRU         []string `json:"nru"`
	PaymentRate []string `json:"payment_rate"`
	ARPPU       []string `json:"arppu"`
}

// UnmarshalJSON accepts either the per-metric object or a flat list.
func (s *SelectedGames) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return err
		}
		s.Retention = names
		s.NRU = names
		s.PaymentRate = names
		s.ARPPU = names
		return nil
	}

	type plain SelectedGames
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*s = SelectedGames(p)
	return nil
}

// For returns the games selected for a metric.
func (s SelectedGames) For(metric Metric) []string {
	switch metric {
	case MetricRetention:
		return s.Retention
	case MetricNRU:
		return s.NRU
	case MetricPaymentRate:
		return s.PaymentRate
	case MetricARPPU:
		return s.ARPPU
	}
	return nil
}

// DefaultScenarioInput is the neutral scenario adjustment.
func DefaultScenarioInput() ScenarioInput {
	return ScenarioInput{NRURatio: 1, PaymentRateAdjustment: 1, ARPPUAdjustment: 1}
}

// DefaultProjectionRequest returns a request populated with documented
// defaults. JSON is bound on top of it so absent fields keep these values.
func DefaultProjectionRequest() ProjectionRequest {
	return ProjectionRequest{
		ProjectionDays: DefaultProjectionDays,
		Regions:        []string{"Global"},
		Genre:          "RPG",
		Platforms:      []string{"Mobile"},
		BMType:         "Midcore",
		Marketing: MarketingInput{
			TargetCPA:              DefaultTargetCPA,
			BaseOrganicRatio:       DefaultBaseOrganicRatio,
			WishlistConversionRate: DefaultWishlistConversionRate,
			SustainingCostRatio:    DefaultSustainingCostRatio,
			PaidUserQualityRatio:   DefaultPaidUserQualityRatio,
			LaunchPeriodDays:       DefaultLaunchPeriodDays,
			BrandLagCenterDay:      DefaultBrandLagCenterDay,
			BrandLagSigmaDays:      DefaultBrandLagSigmaDays,
		},
		Quality: QualityInput{Score: "B"},
		Scenarios: ScenarioSet{
			Best:   DefaultScenarioInput(),
			Normal: DefaultScenarioInput(),
			Worst:  DefaultScenarioInput(),
		},
		Revenue: RevenueInput{
			AdImpressionsPerDAU: DefaultAdImpressionsPerDAU,
			AdECPM:              DefaultAdECPM,
		},
		Blending: BlendingInput{Mode: BlendTimeDecay, Weight: DefaultBlendWeight},
	}
}

// LaunchTime parses the launch date; the zero time is returned when it is
// absent or malformed.
func (r ProjectionRequest) LaunchTime() time.Time {
	t, err := time.Parse(LaunchDateLayout, strings.TrimSpace(r.LaunchDate))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Normalize clamps every numeric field into its valid range and fills zero
// values that have no meaningful interpretation. It never fails.
func (r ProjectionRequest) Normalize() ProjectionRequest {
	out := r

	if out.ProjectionDays <= 0 {
		out.ProjectionDays = DefaultProjectionDays
	}
	if out.ProjectionDays > MaxProjectionDays {
		out.ProjectionDays = MaxProjectionDays
	}
	if len(out.Platforms) == 0 {
		out.Platforms = []string{"Mobile"}
	}

	m := &out.Marketing
	m.UABudget = nonNegative(m.UABudget)
	m.BrandBudget = nonNegative(m.BrandBudget)
	m.TargetCPA = nonNegative(m.TargetCPA)
	if m.TargetCPA == 0 {
		m.TargetCPA = DefaultTargetCPA
	}
	m.BaseOrganicRatio = nonNegative(m.BaseOrganicRatio)
	m.PreMarketingShare = unit(m.PreMarketingShare)
	m.WishlistConversionRate = unit(m.WishlistConversionRate)
	m.SustainingCostRatio = unit(m.SustainingCostRatio)
	m.PaidUserQualityRatio = unit(m.PaidUserQualityRatio)
	if m.LaunchPeriodDays <= 0 {
		m.LaunchPeriodDays = DefaultLaunchPeriodDays
	}
	if m.LaunchPeriodDays > MaxProjectionDays {
		m.LaunchPeriodDays = MaxProjectionDays
	}
	if m.BrandLagSigmaDays <= 0 || !finite(m.BrandLagSigmaDays) {
		m.BrandLagSigmaDays = DefaultBrandLagSigmaDays
	}
	if !finite(m.BrandLagCenterDay) || m.BrandLagCenterDay < 1 {
		m.BrandLagCenterDay = DefaultBrandLagCenterDay
	}

	out.Revenue.PackagePrice = nonNegative(out.Revenue.PackagePrice)
	out.Revenue.AdImpressionsPerDAU = nonNegative(out.Revenue.AdImpressionsPerDAU)
	out.Revenue.AdECPM = nonNegative(out.Revenue.AdECPM)

	out.Scenarios.Best = out.Scenarios.Best.normalize()
	out.Scenarios.Normal = out.Scenarios.Normal.normalize()
	out.Scenarios.Worst = out.Scenarios.Worst.normalize()

	if out.Blending.Mode != BlendFixed {
		out.Blending.Mode = BlendTimeDecay
	}
	out.Blending.Weight = unit(out.Blending.Weight)

	events := make([]LiveEvent, 0, len(out.LiveEvents))
	for _, ev := range out.LiveEvents {
		if ev.Month < 1 || ev.Month > 12 {
			continue
		}
		if !finite(ev.TrafficBoost) || ev.TrafficBoost <= 0 {
			ev.TrafficBoost = 1
		}
		if !finite(ev.RevenueBoost) || ev.RevenueBoost <= 0 {
			ev.RevenueBoost = 1
		}
		events = append(events, ev)
	}
	out.LiveEvents = events

	return out
}

func (s ScenarioInput) normalize() ScenarioInput {
	s.TargetD1Retention = unit(s.TargetD1Retention)
	s.NRURatio = nonNegative(s.NRURatio)
	s.PaymentRateAdjustment = nonNegative(s.PaymentRateAdjustment)
	s.ARPPUAdjustment = nonNegative(s.ARPPUAdjustment)
	return s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nonNegative(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}

func unit(v float64) float64 {
	v = nonNegative(v)
	if v > 1 {
		return 1
	}
	return v
}
