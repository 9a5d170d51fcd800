package models

// BasicSettings are the studio cost settings read from the config store.
// Only HRCostMonthly enters the daily cost; the remaining ratios are carried
// through to the assumptions for reporting collaborators.
type BasicSettings struct {
	HRCostMonthly           float64 `json:"hr_cost_monthly" mapstructure:"hr_cost_monthly"`
	ServerCostRatio         float64 `json:"server_cost_ratio" mapstructure:"server_cost_ratio"`
	MarketFeeRatio          float64 `json:"market_fee_ratio" mapstructure:"market_fee_ratio"`
	VATRatio                float64 `json:"vat_ratio" mapstructure:"vat_ratio"`
	InfrastructureCostRatio float64 `json:"infrastructure_cost_ratio" mapstructure:"infrastructure_cost_ratio"`
}

// Adjustments are the best/worst scenario deltas relative to normal.
type Adjustments struct {
	BestVsNormal  float64 `json:"best_vs_normal" mapstructure:"best_vs_normal"`
	WorstVsNormal float64 `json:"worst_vs_normal" mapstructure:"worst_vs_normal"`
}

// EngineSettings bundles everything the engine reads from configuration.
type EngineSettings struct {
	Basic       BasicSettings `json:"basic_settings" mapstructure:"basic_settings"`
	Adjustments Adjustments   `json:"adjustments" mapstructure:"adjustments"`
}

// DefaultEngineSettings mirrors the defaults of the config store.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		Basic: BasicSettings{
			HRCostMonthly:           20_000_000,
			ServerCostRatio:         0.05,
			MarketFeeRatio:          0.3,
			VATRatio:                0.1,
			InfrastructureCostRatio: 0.05,
		},
		Adjustments: Adjustments{
			BestVsNormal:  0.1,
			WorstVsNormal: -0.1,
		},
	}
}

// Multiplier returns the volume/performance multiplier for a scenario.
// Results below zero are floored at zero.
func (a Adjustments) Multiplier(name ScenarioName) float64 {
	m := 1.0
	switch name {
	case ScenarioBest:
		m = 1 + a.BestVsNormal
	case ScenarioWorst:
		m = 1 + a.WorstVsNormal
	}
	if !finite(m) || m < 0 {
		return 0
	}
	return m
}

// Apply overlays request-level changes on the configured settings.
func (b BasicSettings) Apply(change BasicSettingsChange) BasicSettings {
	if change.HRCostMonthly != nil && finite(*change.HRCostMonthly) && *change.HRCostMonthly >= 0 {
		b.HRCostMonthly = *change.HRCostMonthly
	}
	return b
}
