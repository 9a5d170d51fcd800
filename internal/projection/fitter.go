package projection

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// FitStatus reports how a power-law fit ended.
type FitStatus string

const (
	FitConverged          FitStatus = "converged"
	FitInsufficientPoints FitStatus = "insufficient_points"
	FitDiverged           FitStatus = "diverged"
)

// RetentionCurveParams are the (a, b) of retention(t) = a·t^b for t ≥ 1.
type RetentionCurveParams struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// At evaluates the power law at day t.
func (p RetentionCurveParams) At(t float64) float64 {
	return p.A * math.Pow(t, p.B)
}

// DefaultRetentionParams is used when nothing can be fitted at all.
var DefaultRetentionParams = RetentionCurveParams{A: 1.0, B: -0.5}

// FitResult is the outcome of one fit. Params always holds a usable
// parameterization; Status tells whether it came from the optimizer or from
// the fallback.
type FitResult struct {
	Params RetentionCurveParams
	Status FitStatus
	Points int
}

// Converged reports whether Params came from a successful optimization.
func (r FitResult) Converged() bool {
	return r.Status == FitConverged
}

// CurveFitter fits y = a·x^b by nonlinear least squares.
type CurveFitter struct {
	MinPoints       int
	MaxIterations   int
	MaxEvaluations  int
	MinA, MaxA      float64
	MinB, MaxB      float64
	FallbackB       float64
	ConvergenceTol  float64
	ConvergenceRuns int
}

// NewCurveFitter returns a fitter with the bounds and budget used across the
// engine: a ∈ [0,2], b ∈ [−2,0], at least 3 points.
func NewCurveFitter() *CurveFitter {
	return &CurveFitter{
		MinPoints:       3,
		MaxIterations:   400,
		MaxEvaluations:  2000,
		MinA:            0,
		MaxA:            2,
		MinB:            -2,
		MaxB:            0,
		FallbackB:       -0.5,
		ConvergenceTol:  1e-12,
		ConvergenceRuns: 50,
	}
}

// FitPowerLaw fits the points (x[i], y[i]) keeping only x > 0 and 0 < y ≤ 1.
func (f *CurveFitter) FitPowerLaw(x, y []float64) FitResult {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}

	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if !isFinite(x[i]) || !isFinite(y[i]) || x[i] <= 0 || y[i] <= 0 || y[i] > 1 {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}

	fallback := RetentionCurveParams{A: DefaultRetentionParams.A, B: f.FallbackB}
	if len(ys) > 0 {
		fallback.A = clamp(ys[0], f.MinA, f.MaxA)
	}

	if len(ys) < f.MinPoints {
		return FitResult{Params: fallback, Status: FitInsufficientPoints, Points: len(ys)}
	}

	bounded := func(p []float64) (float64, float64) {
		return clamp(p[0], f.MinA, f.MaxA), clamp(p[1], f.MinB, f.MaxB)
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			a, b := bounded(p)
			var sse float64
			for i := range xs {
				r := a*math.Pow(xs[i], b) - ys[i]
				sse += r * r
			}
			return sse
		},
	}

	settings := &optimize.Settings{
		MajorIterations: f.MaxIterations,
		FuncEvaluations: f.MaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   f.ConvergenceTol,
			Iterations: f.ConvergenceRuns,
		},
	}

	initial := []float64{fallback.A, f.FallbackB}
	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if err != nil || result == nil {
		return FitResult{Params: fallback, Status: FitDiverged, Points: len(ys)}
	}
	if !converged(result.Status) {
		return FitResult{Params: fallback, Status: FitDiverged, Points: len(ys)}
	}

	a, b := bounded(result.X)
	if !isFinite(a) || !isFinite(b) || !isFinite(result.F) {
		return FitResult{Params: fallback, Status: FitDiverged, Points: len(ys)}
	}

	return FitResult{Params: RetentionCurveParams{A: a, B: b}, Status: FitConverged, Points: len(ys)}
}

// converged reports whether the optimizer stopped on a convergence test
// rather than on a budget limit or failure.
func converged(status optimize.Status) bool {
	switch status {
	case optimize.FunctionConvergence, optimize.MethodConverge,
		optimize.FunctionThreshold, optimize.GradientThreshold:
		return true
	default:
		return false
	}
}

// FitRetention fits a historical retention series whose index 0 is day 1.
func (f *CurveFitter) FitRetention(series []float64) FitResult {
	x := make([]float64, len(series))
	for i := range series {
		x[i] = float64(i + 1)
	}
	return f.FitPowerLaw(x, series)
}

// FitReferenceGames fits every game independently and returns the
// arithmetic mean of the fitted (a, b) pairs with the number of games used.
// Averaging exponents is not the same as a joint fit; the mean is kept
// because model output depends on it.
func (f *CurveFitter) FitReferenceGames(series [][]float64) (RetentionCurveParams, int) {
	var sumA, sumB float64
	used := 0
	for _, s := range series {
		if len(s) == 0 {
			continue
		}
		res := f.FitRetention(s)
		sumA += res.Params.A
		sumB += res.Params.B
		used++
	}
	if used == 0 {
		return DefaultRetentionParams, 0
	}
	return RetentionCurveParams{A: sumA / float64(used), B: sumB / float64(used)}, used
}

// GenerateRetentionCurve emits day 1..days of a·t^b rescaled so that day 1
// equals targetD1. curve[0] is day-1 retention; install-day retention is
// never part of the curve.
func GenerateRetentionCurve(p RetentionCurveParams, targetD1 float64, days int) []float64 {
	if days <= 0 {
		return []float64{}
	}
	targetD1 = clamp(targetD1, 0, 1)

	scale := 1.0
	if base := p.At(1); base > 0 && isFinite(base) {
		scale = targetD1 / base
	}

	curve := make([]float64, days)
	for t := 1; t <= days; t++ {
		curve[t-1] = clamp(p.At(float64(t))*scale, 0, 1)
	}
	return curve
}

// RescaleCurve scales an arbitrary retention curve so that its day-1 value
// equals targetD1. A curve with no positive day-1 value is replaced by the
// default power law at the target.
func RescaleCurve(curve []float64, targetD1 float64) []float64 {
	if len(curve) == 0 {
		return []float64{}
	}
	targetD1 = clamp(targetD1, 0, 1)
	if curve[0] <= 0 || !isFinite(curve[0]) {
		return GenerateRetentionCurve(DefaultRetentionParams, targetD1, len(curve))
	}

	scale := targetD1 / curve[0]
	out := make([]float64, len(curve))
	for i, v := range curve {
		out[i] = clamp(v*scale, 0, 1)
	}
	return out
}

// scaleCurve multiplies every entry by factor and clamps to [lo, hi].
func scaleCurve(curve []float64, factor, lo, hi float64) []float64 {
	out := make([]float64, len(curve))
	for i, v := range curve {
		out[i] = clamp(v*factor, lo, hi)
	}
	return out
}
