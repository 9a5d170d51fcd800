package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func powerLawSeries(a, b float64, n int) []float64 {
	out := make([]float64, n)
	for t := 1; t <= n; t++ {
		out[t-1] = a * math.Pow(float64(t), b)
	}
	return out
}

func TestNewCurveFitter(t *testing.T) {
	f := NewCurveFitter()
	require.NotNil(t, f)
	assert.Equal(t, 3, f.MinPoints)
	assert.Equal(t, 0.0, f.MinA)
	assert.Equal(t, 2.0, f.MaxA)
	assert.Equal(t, -2.0, f.MinB)
	assert.Equal(t, 0.0, f.MaxB)
}

func TestFitPowerLaw(t *testing.T) {
	f := NewCurveFitter()

	t.Run("recovers exact power law", func(t *testing.T) {
		res := f.FitRetention(powerLawSeries(0.5, -0.4, 30))
		require.True(t, res.Converged(), "status %s", res.Status)
		assert.Equal(t, 30, res.Points)
		assert.InDelta(t, 0.5, res.Params.A, 0.02)
		assert.InDelta(t, -0.4, res.Params.B, 0.02)
	})

	t.Run("too few points falls back", func(t *testing.T) {
		res := f.FitRetention([]float64{0.42, 0.30})
		assert.Equal(t, FitInsufficientPoints, res.Status)
		assert.Equal(t, 2, res.Points)
		assert.Equal(t, RetentionCurveParams{A: 0.42, B: -0.5}, res.Params)
	})

	t.Run("no valid points uses default", func(t *testing.T) {
		res := f.FitRetention([]float64{0, 1.5, math.NaN()})
		assert.Equal(t, FitInsufficientPoints, res.Status)
		assert.Equal(t, 0, res.Points)
		assert.Equal(t, DefaultRetentionParams, res.Params)
	})

	t.Run("filters out of range values", func(t *testing.T) {
		series := powerLawSeries(0.4, -0.5, 20)
		series[3] = 0
		series[5] = 1.7
		res := f.FitRetention(series)
		assert.Equal(t, 18, res.Points)
		require.True(t, res.Converged())
		assert.InDelta(t, 0.4, res.Params.A, 0.02)
	})

	t.Run("exhausted evaluation budget falls back", func(t *testing.T) {
		limited := NewCurveFitter()
		limited.MaxEvaluations = 5
		series := powerLawSeries(0.5, -1.3, 60)
		res := limited.FitRetention(series)
		assert.Equal(t, FitDiverged, res.Status)
		assert.False(t, res.Converged())
		assert.Equal(t, 60, res.Points)
		assert.Equal(t, RetentionCurveParams{A: series[0], B: limited.FallbackB}, res.Params)
	})

	t.Run("params stay within bounds", func(t *testing.T) {
		res := f.FitPowerLaw([]float64{1, 2, 3, 4}, []float64{0.1, 0.2, 0.4, 0.8})
		assert.GreaterOrEqual(t, res.Params.A, 0.0)
		assert.LessOrEqual(t, res.Params.A, 2.0)
		assert.GreaterOrEqual(t, res.Params.B, -2.0)
		assert.LessOrEqual(t, res.Params.B, 0.0)
	})
}

func TestFitReferenceGames(t *testing.T) {
	f := NewCurveFitter()

	t.Run("no games", func(t *testing.T) {
		params, n := f.FitReferenceGames(nil)
		assert.Equal(t, 0, n)
		assert.Equal(t, DefaultRetentionParams, params)
	})

	t.Run("averages fitted params", func(t *testing.T) {
		params, n := f.FitReferenceGames([][]float64{
			powerLawSeries(0.4, -0.4, 30),
			powerLawSeries(0.6, -0.6, 30),
			{},
		})
		assert.Equal(t, 2, n)
		assert.InDelta(t, 0.5, params.A, 0.02)
		assert.InDelta(t, -0.5, params.B, 0.02)
	})
}

func TestGenerateRetentionCurve(t *testing.T) {
	t.Run("day one equals target", func(t *testing.T) {
		for _, target := range []float64{0, 0.1, 0.45, 0.9, 1} {
			curve := GenerateRetentionCurve(RetentionCurveParams{A: 0.7, B: -0.3}, target, 60)
			require.Len(t, curve, 60)
			assert.InDelta(t, target, curve[0], 1e-12)
		}
	})

	t.Run("known values", func(t *testing.T) {
		curve := GenerateRetentionCurve(RetentionCurveParams{A: 0.5, B: -0.5}, 0.45, 30)
		assert.InDelta(t, 0.45, curve[0], 1e-12)
		assert.InDelta(t, 0.170, curve[6], 0.001)
	})

	t.Run("values clamped to unit range", func(t *testing.T) {
		curve := GenerateRetentionCurve(RetentionCurveParams{A: 2, B: 0}, 1, 10)
		for _, v := range curve {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	})

	t.Run("non-positive base keeps scale one", func(t *testing.T) {
		curve := GenerateRetentionCurve(RetentionCurveParams{A: 0, B: -0.5}, 0.4, 5)
		assert.Equal(t, []float64{0, 0, 0, 0, 0}, curve)
	})

	t.Run("empty horizon", func(t *testing.T) {
		assert.Empty(t, GenerateRetentionCurve(DefaultRetentionParams, 0.4, 0))
	})
}

func TestRescaleCurve(t *testing.T) {
	curve := []float64{0.5, 0.25, 0.1}
	out := RescaleCurve(curve, 0.4)
	assert.InDelta(t, 0.4, out[0], 1e-12)
	assert.InDelta(t, 0.2, out[1], 1e-12)
	assert.InDelta(t, 0.08, out[2], 1e-12)
	assert.Equal(t, []float64{0.5, 0.25, 0.1}, curve, "input must not change")

	zero := RescaleCurve([]float64{0, 0, 0}, 0.3)
	assert.InDelta(t, 0.3, zero[0], 1e-12)
}
