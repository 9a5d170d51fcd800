package models

// Metric names a historical series kind stored per reference game.
type Metric string

const (
	MetricRetention   Metric = "retention"
	MetricNRU         Metric = "nru"
	MetricPaymentRate Metric = "payment_rate"
	MetricARPPU       Metric = "arppu"
)

// AllMetrics lists the metrics the history store recognizes.
var AllMetrics = []Metric{MetricRetention, MetricNRU, MetricPaymentRate, MetricARPPU}

// Valid reports whether m is a recognized metric.
func (m Metric) Valid() bool {
	for _, known := range AllMetrics {
		if m == known {
			return true
		}
	}
	return false
}

// RawGameData is the on-disk layout of the reference game data set.
// Index 0 of every series is day 1 of that game's life.
type RawGameData struct {
	Version     string                          `json:"version"`
	Description string                          `json:"description"`
	Games       map[Metric]map[string][]float64 `json:"games"`
}

// EmptyRawGameData returns a data set with every metric present and empty.
func EmptyRawGameData() *RawGameData {
	games := make(map[Metric]map[string][]float64, len(AllMetrics))
	for _, m := range AllMetrics {
		games[m] = map[string][]float64{}
	}
	return &RawGameData{Version: "1.0", Description: "Game KPI Raw Data for Projection", Games: games}
}

// ReferenceData holds the resolved series of the selected reference games,
// one slice per game, grouped by metric.
type ReferenceData struct {
	Retention   [][]float64
	NRU         [][]float64
	PaymentRate [][]float64
	ARPPU       [][]float64
}

// Add appends a series to the slot for its metric.
func (r *ReferenceData) Add(metric Metric, series []float64) {
	if len(series) == 0 {
		return
	}
	switch metric {
	case MetricRetention:
		r.Retention = append(r.Retention, series)
	case MetricNRU:
		r.NRU = append(r.NRU, series)
	case MetricPaymentRate:
		r.PaymentRate = append(r.PaymentRate, series)
	case MetricARPPU:
		r.ARPPU = append(r.ARPPU, series)
	}
}
