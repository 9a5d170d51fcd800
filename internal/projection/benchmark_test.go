package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarkLookup(t *testing.T) {
	b := NewBenchmarkTable()

	t.Run("case insensitive", func(t *testing.T) {
		assert.Equal(t, b.Lookup("Mobile", "Puzzle"), b.Lookup("mobile", "PUZZLE"))
	})

	t.Run("unknown genre falls back to RPG", func(t *testing.T) {
		assert.Equal(t, b.Lookup("PC", "RPG"), b.Lookup("PC", "Racing"))
	})

	t.Run("unknown platform falls back to Mobile", func(t *testing.T) {
		assert.Equal(t, b.Lookup("Mobile", "Action"), b.Lookup("Arcade", "Action"))
	})
}

func TestBenchmarkAnchors(t *testing.T) {
	b := NewBenchmarkTable()

	t.Run("averages platforms", func(t *testing.T) {
		mobile := b.Lookup("Mobile", "RPG")
		pc := b.Lookup("PC", "RPG")
		got := b.Anchors([]string{"Mobile", "PC"}, "RPG", "Midcore")
		assert.InDelta(t, (mobile.D1+pc.D1)/2, got.D1, 1e-12)
		assert.InDelta(t, (mobile.D90+pc.D90)/2, got.D90, 1e-12)
		assert.InDelta(t, (mobile.ARPPU+pc.ARPPU)/2, got.ARPPU, 1e-9)
	})

	t.Run("applies business model modifier", func(t *testing.T) {
		base := b.Anchors(nil, "RPG", "Midcore")
		gacha := b.Anchors(nil, "RPG", "gacha")
		assert.InDelta(t, base.PaymentRate*0.8, gacha.PaymentRate, 1e-12)
		assert.InDelta(t, base.ARPPU*1.8, gacha.ARPPU, 1e-9)
		assert.Equal(t, base.D1, gacha.D1)
	})

	t.Run("unknown business model is midcore", func(t *testing.T) {
		assert.Equal(t, b.Modifier("Midcore"), b.Modifier("Subscription"))
	})
}

func TestQualityMultiplier(t *testing.T) {
	b := NewBenchmarkTable()
	tests := map[string]float64{"S": 1.2, "a": 1.1, "B": 1.0, "C": 0.8, "D": 0.6, "Z": 1.0, "": 1.0}
	for score, want := range tests {
		assert.Equal(t, want, b.QualityMultiplier(score), score)
	}
}

func TestBenchmarkRetention(t *testing.T) {
	f := NewCurveFitter()
	anchors := NewBenchmarkTable().Anchors([]string{"Mobile"}, "RPG", "Midcore")

	res := f.BenchmarkRetention(anchors)
	assert.Equal(t, 4, res.Points)
	assert.Greater(t, res.Params.A, 0.0)
	assert.Less(t, res.Params.B, 0.0)

	fallback := f.BenchmarkRetention(BenchmarkAnchors{D1: 0.3})
	assert.Equal(t, FitInsufficientPoints, fallback.Status)
	assert.Equal(t, RetentionCurveParams{A: 0.3, B: -0.5}, fallback.Params)
}

func TestSeasonality(t *testing.T) {
	s := NewSeasonalityTable()

	t.Run("no known region is neutral", func(t *testing.T) {
		f := s.MonthFactors([]string{"Atlantis"})
		for _, v := range f {
			assert.Equal(t, 1.0, v)
		}
	})

	t.Run("averages regions", func(t *testing.T) {
		kr := s.MonthFactors([]string{"KR"})
		jp := s.MonthFactors([]string{"JP"})
		both := s.MonthFactors([]string{"kr", "JP"})
		assert.InDelta(t, (kr[0]+jp[0])/2, both[0], 1e-12)
	})

	t.Run("daily uses calendar months from launch", func(t *testing.T) {
		cal := Calendar{Launch: time.Date(2025, time.January, 30, 0, 0, 0, 0, time.UTC)}
		daily := s.Daily([]string{"CN"}, cal, 5)
		factors := s.MonthFactors([]string{"CN"})
		require.Len(t, daily, 5)
		assert.Equal(t, factors[0], daily[0])
		assert.Equal(t, factors[0], daily[1])
		assert.Equal(t, factors[1], daily[2])
	})
}

func TestCalendar(t *testing.T) {
	t.Run("zero launch uses 30 day months", func(t *testing.T) {
		var cal Calendar
		assert.Equal(t, 1, cal.Month(0))
		assert.Equal(t, 2, cal.Month(30))
		assert.Equal(t, 1, cal.Month(360))
		assert.False(t, cal.MonthStart(0))
		assert.True(t, cal.MonthStart(30))
		assert.False(t, cal.MonthStart(31))
	})

	t.Run("calendar launch", func(t *testing.T) {
		cal := Calendar{Launch: time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)}
		assert.Equal(t, 3, cal.Month(0))
		assert.Equal(t, 4, cal.Month(17))
		assert.True(t, cal.MonthStart(17))
		assert.False(t, cal.MonthStart(16))
	})
}
