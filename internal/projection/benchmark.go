package projection

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BenchmarkAnchors are the market reference values for one platform/genre
// cell or an average of several.
type BenchmarkAnchors struct {
	D1          float64 `json:"d1"`
	D7          float64 `json:"d7"`
	D30         float64 `json:"d30"`
	D90         float64 `json:"d90"`
	PaymentRate float64 `json:"payment_rate"`
	ARPPU       float64 `json:"arppu"`
}

// BMModifier scales payment rate and ARPPU for a business model.
type BMModifier struct {
	PaymentRate float64 `json:"payment_rate"`
	ARPPU       float64 `json:"arppu"`
}

const (
	defaultPlatform = "MOBILE"
	defaultGenre    = "RPG"
	defaultBMType   = "MIDCORE"
	defaultQuality  = "B"
)

var benchmarkAnchorDays = []float64{1, 7, 30, 90}

// BenchmarkTable is the immutable market benchmark lookup. Build it once with
// NewBenchmarkTable and share it by pointer.
type BenchmarkTable struct {
	cells     map[string]map[string]BenchmarkAnchors
	modifiers map[string]BMModifier
	quality   map[string]float64
}

// NewBenchmarkTable returns the built-in benchmark table.
func NewBenchmarkTable() *BenchmarkTable {
	return &BenchmarkTable{
		cells: map[string]map[string]BenchmarkAnchors{
			"MOBILE": {
				"RPG":        {D1: 0.40, D7: 0.18, D30: 0.08, D90: 0.040, PaymentRate: 0.050, ARPPU: 25000},
				"MMORPG":     {D1: 0.38, D7: 0.17, D30: 0.08, D90: 0.045, PaymentRate: 0.060, ARPPU: 40000},
				"STRATEGY":   {D1: 0.35, D7: 0.16, D30: 0.08, D90: 0.050, PaymentRate: 0.050, ARPPU: 45000},
				"ACTION":     {D1: 0.38, D7: 0.16, D30: 0.07, D90: 0.030, PaymentRate: 0.040, ARPPU: 20000},
				"PUZZLE":     {D1: 0.45, D7: 0.20, D30: 0.09, D90: 0.040, PaymentRate: 0.030, ARPPU: 8000},
				"CASUAL":     {D1: 0.45, D7: 0.19, D30: 0.08, D90: 0.030, PaymentRate: 0.020, ARPPU: 6000},
				"SIMULATION": {D1: 0.40, D7: 0.18, D30: 0.08, D90: 0.040, PaymentRate: 0.040, ARPPU: 15000},
				"SHOOTER":    {D1: 0.37, D7: 0.15, D30: 0.06, D90: 0.030, PaymentRate: 0.040, ARPPU: 22000},
				"SPORTS":     {D1: 0.36, D7: 0.15, D30: 0.06, D90: 0.030, PaymentRate: 0.040, ARPPU: 18000},
			},
			"PC": {
				"RPG":        {D1: 0.50, D7: 0.28, D30: 0.15, D90: 0.08, PaymentRate: 0.080, ARPPU: 35000},
				"MMORPG":     {D1: 0.52, D7: 0.30, D30: 0.17, D90: 0.10, PaymentRate: 0.090, ARPPU: 50000},
				"STRATEGY":   {D1: 0.48, D7: 0.27, D30: 0.15, D90: 0.09, PaymentRate: 0.070, ARPPU: 40000},
				"ACTION":     {D1: 0.47, D7: 0.25, D30: 0.12, D90: 0.06, PaymentRate: 0.060, ARPPU: 28000},
				"PUZZLE":     {D1: 0.42, D7: 0.20, D30: 0.09, D90: 0.04, PaymentRate: 0.030, ARPPU: 10000},
				"CASUAL":     {D1: 0.40, D7: 0.18, D30: 0.08, D90: 0.03, PaymentRate: 0.030, ARPPU: 9000},
				"SIMULATION": {D1: 0.48, D7: 0.26, D30: 0.13, D90: 0.07, PaymentRate: 0.060, ARPPU: 25000},
				"SHOOTER":    {D1: 0.50, D7: 0.27, D30: 0.14, D90: 0.07, PaymentRate: 0.070, ARPPU: 30000},
				"SPORTS":     {D1: 0.45, D7: 0.24, D30: 0.12, D90: 0.06, PaymentRate: 0.060, ARPPU: 26000},
			},
			"CONSOLE": {
				"RPG":        {D1: 0.55, D7: 0.32, D30: 0.18, D90: 0.10, PaymentRate: 0.060, ARPPU: 30000},
				"MMORPG":     {D1: 0.55, D7: 0.33, D30: 0.19, D90: 0.11, PaymentRate: 0.070, ARPPU: 42000},
				"STRATEGY":   {D1: 0.50, D7: 0.28, D30: 0.15, D90: 0.08, PaymentRate: 0.050, ARPPU: 30000},
				"ACTION":     {D1: 0.53, D7: 0.30, D30: 0.15, D90: 0.07, PaymentRate: 0.050, ARPPU: 25000},
				"PUZZLE":     {D1: 0.45, D7: 0.22, D30: 0.10, D90: 0.05, PaymentRate: 0.030, ARPPU: 9000},
				"CASUAL":     {D1: 0.44, D7: 0.21, D30: 0.10, D90: 0.04, PaymentRate: 0.030, ARPPU: 8000},
				"SIMULATION": {D1: 0.50, D7: 0.28, D30: 0.14, D90: 0.07, PaymentRate: 0.050, ARPPU: 22000},
				"SHOOTER":    {D1: 0.56, D7: 0.33, D30: 0.17, D90: 0.09, PaymentRate: 0.070, ARPPU: 32000},
				"SPORTS":     {D1: 0.52, D7: 0.30, D30: 0.16, D90: 0.08, PaymentRate: 0.080, ARPPU: 35000},
			},
		},
		modifiers: map[string]BMModifier{
			"HARDCORE": {PaymentRate: 0.6, ARPPU: 2.0},
			"MIDCORE":  {PaymentRate: 1.0, ARPPU: 1.0},
			"CASUAL":   {PaymentRate: 1.6, ARPPU: 0.4},
			"F2P":      {PaymentRate: 1.2, ARPPU: 0.6},
			"GACHA":    {PaymentRate: 0.8, ARPPU: 1.8},
		},
		quality: map[string]float64{
			"S": 1.2,
			"A": 1.1,
			"B": 1.0,
			"C": 0.8,
			"D": 0.6,
		},
	}
}

// normalizeKey upper-cases a user tag for table lookup.
func normalizeKey(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// Lookup returns the anchors for one platform and genre. Unknown genres fall
// back to the platform's RPG row and unknown platforms to Mobile.
func (b *BenchmarkTable) Lookup(platform, genre string) BenchmarkAnchors {
	row, ok := b.cells[normalizeKey(platform)]
	if !ok {
		row = b.cells[defaultPlatform]
	}
	cell, ok := row[normalizeKey(genre)]
	if !ok {
		cell = row[defaultGenre]
	}
	return cell
}

// Modifier returns the business-model modifier, Midcore when unknown.
func (b *BenchmarkTable) Modifier(bmType string) BMModifier {
	if m, ok := b.modifiers[normalizeKey(bmType)]; ok {
		return m
	}
	return b.modifiers[defaultBMType]
}

// QualityMultiplier maps an S/A/B/C/D grade to its multiplier, 1.0 when
// unknown.
func (b *BenchmarkTable) QualityMultiplier(score string) float64 {
	if q, ok := b.quality[normalizeKey(score)]; ok {
		return q
	}
	return b.quality[defaultQuality]
}

// Anchors averages the cells of every requested platform for the genre and
// applies the business-model modifier.
func (b *BenchmarkTable) Anchors(platforms []string, genre, bmType string) BenchmarkAnchors {
	if len(platforms) == 0 {
		platforms = []string{defaultPlatform}
	}

	var sum BenchmarkAnchors
	for _, p := range platforms {
		c := b.Lookup(p, genre)
		sum.D1 += c.D1
		sum.D7 += c.D7
		sum.D30 += c.D30
		sum.D90 += c.D90
		sum.PaymentRate += c.PaymentRate
		sum.ARPPU += c.ARPPU
	}

	n := float64(len(platforms))
	mod := b.Modifier(bmType)
	return BenchmarkAnchors{
		D1:          sum.D1 / n,
		D7:          sum.D7 / n,
		D30:         sum.D30 / n,
		D90:         sum.D90 / n,
		PaymentRate: sum.PaymentRate / n * mod.PaymentRate,
		ARPPU:       sum.ARPPU / n * mod.ARPPU,
	}
}

// BenchmarkRetention fits a power law through the day 1/7/30/90 anchors.
// On failure the result carries the (d1, −0.5) fallback.
func (f *CurveFitter) BenchmarkRetention(a BenchmarkAnchors) FitResult {
	res := f.FitPowerLaw(benchmarkAnchorDays, []float64{a.D1, a.D7, a.D30, a.D90})
	if !res.Converged() {
		res.Params = RetentionCurveParams{A: clamp(a.D1, f.MinA, f.MaxA), B: f.FallbackB}
	}
	return res
}
