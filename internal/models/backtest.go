package models

import "time"

// Confidence grades a retention model by its average holdout error.
type Confidence string

const (
	ConfidenceHigh        Confidence = "HIGH"
	ConfidenceModerate    Confidence = "MODERATE"
	ConfidenceLowModerate Confidence = "LOW-MODERATE"
	ConfidenceLow         Confidence = "LOW"
)

// ConfidenceForMAPE maps an average MAPE (in percent) to its grade.
func ConfidenceForMAPE(mape float64) Confidence {
	switch {
	case mape < 15:
		return ConfidenceHigh
	case mape < 25:
		return ConfidenceModerate
	case mape < 35:
		return ConfidenceLowModerate
	default:
		return ConfidenceLow
	}
}

// BacktestConfig controls the observation and holdout windows.
type BacktestConfig struct {
	ObservedDays int     `json:"observed_days"` // days used for fitting
	HoldoutDays  int     `json:"holdout_days"`  // days predicted and scored
	DecayPower   float64 `json:"decay_power"`   // exponent of the baseline model
}

// DefaultBacktestConfig observes D1..D30 and scores D31..D60.
func DefaultBacktestConfig() BacktestConfig {
	return BacktestConfig{ObservedDays: 30, HoldoutDays: 30, DecayPower: -0.5}
}

// GameBacktest is the holdout error of one reference game.
type GameBacktest struct {
	Game         string  `json:"game"`
	Days         int     `json:"days"`
	ActualD1     float64 `json:"d1_actual"`
	ActualD30    float64 `json:"d30_actual"`
	PredictedD30 float64 `json:"d30_pred"`
	ActualD60    float64 `json:"d60_actual"`
	PredictedD60 float64 `json:"d60_pred"`
	MAPE         float64 `json:"mape"`
	MaxError     float64 `json:"max_err"`
	FittedA      float64 `json:"fitted_a"`
	FittedB      float64 `json:"fitted_b"`
	FitStatus    string  `json:"fit_status"`
	FittedMAPE   float64 `json:"fitted_mape"`
}

// BacktestReport aggregates a backtest run over all eligible games.
type BacktestReport struct {
	Config            BacktestConfig `json:"config"`
	Games             []GameBacktest `json:"games"`
	Skipped           []string       `json:"skipped"`
	AverageMAPE       float64        `json:"average_mape"`
	MedianMAPE        float64        `json:"median_mape"`
	MinMAPE           float64        `json:"min_mape"`
	MaxMAPE           float64        `json:"max_mape"`
	AverageFittedMAPE float64        `json:"average_fitted_mape"`
	Confidence        Confidence     `json:"confidence"`
	StartedAt         time.Time      `json:"started_at"`
	CompletedAt       time.Time      `json:"completed_at"`
	Duration          time.Duration  `json:"duration"`
}
