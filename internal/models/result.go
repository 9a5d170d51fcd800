package models

// ScenarioName identifies one of the three projection scenarios.
type ScenarioName string

const (
	ScenarioBest   ScenarioName = "best"
	ScenarioNormal ScenarioName = "normal"
	ScenarioWorst  ScenarioName = "worst"
)

// AllScenarios lists scenarios in reporting order.
var AllScenarios = []ScenarioName{ScenarioBest, ScenarioNormal, ScenarioWorst}

// EngineVersion is reported with every projection result.
const EngineVersion = "10.0.0"

// ProjectionResult is the full response payload of a projection run.
type ProjectionResult struct {
	Status      string                           `json:"status"`
	Version     string                           `json:"version"`
	Results     map[ScenarioName]ScenarioSeries  `json:"results"`
	Summary     map[ScenarioName]ScenarioSummary `json:"summary"`
	Meta        ProjectionMeta                   `json:"meta"`
	Assumptions Assumptions                      `json:"assumptions"`
}

// ScenarioSeries holds the daily series of one scenario. Every slice has
// exactly ProjectionDays entries; index 0 is launch day (day 1).
type ScenarioSeries struct {
	NRU              []int64   `json:"nru"`
	NRUPaid          []int64   `json:"nru_paid"`
	NRUOrganic       []int64   `json:"nru_organic"`
	DAU              []int64   `json:"dau"`
	Revenue          []int64   `json:"revenue"`
	Cost             []int64   `json:"cost"`
	Profit           []int64   `json:"profit"`
	CumulativeProfit []int64   `json:"cum_profit"`
	Retention        []float64 `json:"retention"`
	PaymentRate      []float64 `json:"pr"`
	ARPPU            []float64 `json:"arppu"`
}

// ScenarioSummary holds the non time-series KPIs of one scenario.
type ScenarioSummary struct {
	TotalRevenue    int64   `json:"total_revenue"`
	TotalCost       int64   `json:"total_cost"`
	NetProfit       int64   `json:"net_profit"`
	PaidROAS        float64 `json:"paid_roas"`
	BlendedROAS     float64 `json:"blended_roas"`
	ROI             float64 `json:"roi"`
	BEPDay          int     `json:"bep_day"`
	CACPaid         int64   `json:"cac_paid"`
	CACBlended      int64   `json:"cac_blended"`
	TotalNRU        int64   `json:"total_nru"`
	TotalNRUPaid    int64   `json:"total_nru_paid"`
	TotalNRUOrganic int64   `json:"total_nru_organic"`
	PeakDAU         int64   `json:"peak_dau"`
	EffectiveCPA    int64   `json:"effective_cpa"`
	OrganicBoost    float64 `json:"organic_boost"`
	Multiplier      float64 `json:"scenario_multiplier"`
}

// FitDiagnostics reports how the retention curves were obtained.
type FitDiagnostics struct {
	InternalGames   int     `json:"internal_games"`
	InternalA       float64 `json:"internal_a"`
	InternalB       float64 `json:"internal_b"`
	BenchmarkA      float64 `json:"benchmark_a"`
	BenchmarkB      float64 `json:"benchmark_b"`
	BenchmarkStatus string  `json:"benchmark_status"`
}

// ProjectionMeta describes the resolved inputs of a run.
type ProjectionMeta struct {
	ProjectionDays int            `json:"projection_days"`
	LaunchDate     string         `json:"launch_date"`
	Genre          string         `json:"genre"`
	Platforms      []string       `json:"platforms"`
	Regions        []string       `json:"regions"`
	BMType         string         `json:"bm_type"`
	QualityScore   string         `json:"quality_score"`
	BlendMode      BlendMode      `json:"blend_mode"`
	EffectiveCPA   int64          `json:"effective_cpa"`
	OrganicRatio   float64        `json:"organic_ratio"`
	WishlistPool   int64          `json:"wishlist_pool"`
	Fit            FitDiagnostics `json:"fit"`
}

// Assumptions echoes the cost settings and scenario multipliers in effect.
type Assumptions struct {
	Settings    BasicSettings            `json:"basic_settings"`
	Adjustments Adjustments              `json:"adjustments"`
	Multipliers map[ScenarioName]float64 `json:"scenario_multipliers"`
	LaunchDays  int                      `json:"launch_period_days"`
}
