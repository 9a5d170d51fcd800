package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectedGames_UnmarshalArray(t *testing.T) {
	var s SelectedGames
	require.NoError(t, json.Unmarshal([]byte(` ["A", "B"]`), &s))

	for _, m := range AllMetrics {
		assert.Equal(t, []string{"A", "B"}, s.For(m), m)
	}
}

func TestSelectedGames_UnmarshalObject(t *testing.T) {
	var s SelectedGames
	require.NoError(t, json.Unmarshal([]byte(`{"retention":["A"],"arppu":["B","C"]}`), &s))

	assert.Equal(t, []string{"A"}, s.For(MetricRetention))
	assert.Nil(t, s.For(MetricNRU))
	assert.Equal(t, []string{"B", "C"}, s.For(MetricARPPU))
	assert.Nil(t, s.For(Metric("dau")))
}

func TestSelectedGames_UnmarshalInvalid(t *testing.T) {
	var s SelectedGames
	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &s))
	assert.Error(t, json.Unmarshal([]byte(`"A"`), &s))
}

func TestDefaultProjectionRequest_BindOverlay(t *testing.T) {
	req := DefaultProjectionRequest()
	require.NoError(t, json.Unmarshal([]byte(`{"genre":"Puzzle","marketing":{"ua_budget":1000}}`), &req))

	assert.Equal(t, "Puzzle", req.Genre)
	assert.Equal(t, 1000.0, req.Marketing.UABudget)
	assert.Equal(t, float64(DefaultTargetCPA), req.Marketing.TargetCPA)
	assert.Equal(t, DefaultProjectionDays, req.ProjectionDays)
	assert.Equal(t, 1.0, req.Scenarios.Worst.NRURatio)
}

func TestNormalize(t *testing.T) {
	req := ProjectionRequest{
		ProjectionDays: 10_000,
		Marketing: MarketingInput{
			UABudget:             -5,
			PreMarketingShare:    1.5,
			PaidUserQualityRatio: math.NaN(),
			BrandLagSigmaDays:    math.Inf(1),
		},
		Revenue:  RevenueInput{AdECPM: -1},
		Blending: BlendingInput{Mode: "unknown", Weight: 2},
		LiveEvents: []LiveEvent{
			{Month: 0, TrafficBoost: 2},
			{Month: 6, TrafficBoost: -1, RevenueBoost: 1.5},
		},
		Scenarios: ScenarioSet{Best: ScenarioInput{TargetD1Retention: 3, NRURatio: -1}},
	}

	out := req.Normalize()

	assert.Equal(t, MaxProjectionDays, out.ProjectionDays)
	assert.Equal(t, []string{"Mobile"}, out.Platforms)
	assert.Zero(t, out.Marketing.UABudget)
	assert.Equal(t, 1.0, out.Marketing.PreMarketingShare)
	assert.Zero(t, out.Marketing.PaidUserQualityRatio)
	assert.Equal(t, float64(DefaultTargetCPA), out.Marketing.TargetCPA)
	assert.Equal(t, DefaultLaunchPeriodDays, out.Marketing.LaunchPeriodDays)

	req.Marketing.LaunchPeriodDays = 1 << 40
	assert.Equal(t, MaxProjectionDays, req.Normalize().Marketing.LaunchPeriodDays)
	assert.Equal(t, float64(DefaultBrandLagSigmaDays), out.Marketing.BrandLagSigmaDays)
	assert.Equal(t, float64(DefaultBrandLagCenterDay), out.Marketing.BrandLagCenterDay)
	assert.Zero(t, out.Revenue.AdECPM)
	assert.Equal(t, BlendTimeDecay, out.Blending.Mode)
	assert.Equal(t, 1.0, out.Blending.Weight)
	assert.Equal(t, 1.0, out.Scenarios.Best.TargetD1Retention)
	assert.Zero(t, out.Scenarios.Best.NRURatio)

	require.Len(t, out.LiveEvents, 1)
	assert.Equal(t, 6, out.LiveEvents[0].Month)
	assert.Equal(t, 1.0, out.LiveEvents[0].TrafficBoost)
	assert.Equal(t, 1.5, out.LiveEvents[0].RevenueBoost)

	// The input is left untouched.
	assert.Equal(t, -5.0, req.Marketing.UABudget)
	assert.Len(t, req.LiveEvents, 2)
}

func TestNormalize_Idempotent(t *testing.T) {
	once := DefaultProjectionRequest().Normalize()
	assert.Equal(t, once, once.Normalize())
}

func TestLaunchTime(t *testing.T) {
	r := ProjectionRequest{LaunchDate: " 2025-03-01 "}
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), r.LaunchTime())

	r.LaunchDate = "03/01/2025"
	assert.True(t, r.LaunchTime().IsZero())
}

func TestScenarioSet_Get(t *testing.T) {
	set := ScenarioSet{
		Best:   ScenarioInput{NRURatio: 2},
		Normal: ScenarioInput{NRURatio: 1},
		Worst:  ScenarioInput{NRURatio: 0.5},
	}
	assert.Equal(t, 2.0, set.Get(ScenarioBest).NRURatio)
	assert.Equal(t, 0.5, set.Get(ScenarioWorst).NRURatio)
	assert.Equal(t, 1.0, set.Get("other").NRURatio)
}

func TestAdjustments_Multiplier(t *testing.T) {
	a := Adjustments{BestVsNormal: 0.1, WorstVsNormal: -0.1}
	assert.InDelta(t, 1.1, a.Multiplier(ScenarioBest), 1e-12)
	assert.Equal(t, 1.0, a.Multiplier(ScenarioNormal))
	assert.InDelta(t, 0.9, a.Multiplier(ScenarioWorst), 1e-12)

	a.WorstVsNormal = -2
	assert.Zero(t, a.Multiplier(ScenarioWorst))
}

func TestBasicSettings_Apply(t *testing.T) {
	base := DefaultEngineSettings().Basic

	assert.Equal(t, base, base.Apply(BasicSettingsChange{}))

	hr := 5_000_000.0
	assert.Equal(t, hr, base.Apply(BasicSettingsChange{HRCostMonthly: &hr}).HRCostMonthly)

	neg := -1.0
	assert.Equal(t, base.HRCostMonthly, base.Apply(BasicSettingsChange{HRCostMonthly: &neg}).HRCostMonthly)
}

func TestConfidenceForMAPE(t *testing.T) {
	tests := []struct {
		mape float64
		want Confidence
	}{
		{0, ConfidenceHigh},
		{14.99, ConfidenceHigh},
		{15, ConfidenceModerate},
		{24.9, ConfidenceModerate},
		{25, ConfidenceLowModerate},
		{35, ConfidenceLow},
		{120, ConfidenceLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceForMAPE(tt.mape), tt.mape)
	}
}

func TestMetricValid(t *testing.T) {
	for _, m := range AllMetrics {
		assert.True(t, m.Valid())
	}
	assert.False(t, Metric("dau").Valid())
	assert.False(t, Metric("").Valid())
}

func TestReferenceData_Add(t *testing.T) {
	var r ReferenceData
	r.Add(MetricRetention, []float64{0.4})
	r.Add(MetricNRU, []float64{100})
	r.Add(MetricPaymentRate, nil)
	r.Add(Metric("dau"), []float64{1})

	assert.Len(t, r.Retention, 1)
	assert.Len(t, r.NRU, 1)
	assert.Empty(t, r.PaymentRate)
	assert.Empty(t, r.ARPPU)
}

func TestEmptyRawGameData(t *testing.T) {
	d := EmptyRawGameData()
	for _, m := range AllMetrics {
		assert.NotNil(t, d.Games[m])
	}
}
