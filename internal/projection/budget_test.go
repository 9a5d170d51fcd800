package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/kpi-projection/internal/models"
)

func testAllocation() BudgetAllocation {
	return BudgetAllocation{
		UABudget:               60_000_000,
		TargetCPA:              2000,
		BaseOrganicRatio:       0.2,
		WishlistConversionRate: 0.15,
		LaunchPeriodDays:       30,
		BrandLagCenterDay:      14,
		BrandLagSigmaDays:      7,
	}
}

func sumInt(series []int64) int64 {
	var total int64
	for _, v := range series {
		total += v
	}
	return total
}

func TestEffectiveCPA(t *testing.T) {
	c := NewBudgetConverter()

	t.Run("below reference scale", func(t *testing.T) {
		a := BudgetAllocation{UABudget: 500_000_000, TargetCPA: 2000}
		assert.Equal(t, 2000.0, c.EffectiveCPA(a))
	})

	t.Run("saturates above reference scale", func(t *testing.T) {
		a := BudgetAllocation{UABudget: 1_000_000_000, TargetCPA: 2000}
		assert.InDelta(t, 2000*(1+0.1*math.Log(2)), c.EffectiveCPA(a), 1e-9)
		assert.InDelta(t, 2138.63, c.EffectiveCPA(a), 0.01)
	})

	t.Run("never below one", func(t *testing.T) {
		assert.Equal(t, 1.0, c.EffectiveCPA(BudgetAllocation{TargetCPA: 0.2}))
	})
}

func TestOrganicBoost(t *testing.T) {
	c := NewBudgetConverter()

	assert.Equal(t, 1.0, c.OrganicBoost(BudgetAllocation{UABudget: 1000}))
	assert.InDelta(t, 1+0.7*math.Log(2), c.OrganicBoost(BudgetAllocation{UABudget: 1000, BrandBudget: 1000}), 1e-12)
	assert.Equal(t, 3.0, c.OrganicBoost(BudgetAllocation{UABudget: 1, BrandBudget: 1e12}))
}

func TestLaunchShape(t *testing.T) {
	c := NewBudgetConverter()

	t.Run("power decay sums to one", func(t *testing.T) {
		shape := c.LaunchShape(30, nil)
		require.Len(t, shape, 30)
		var total float64
		for _, v := range shape {
			total += v
		}
		assert.InDelta(t, 1.0, total, 1e-9)
		assert.Greater(t, shape[0], shape[29])
	})

	t.Run("reference NRU shape", func(t *testing.T) {
		shape := c.LaunchShape(4, [][]float64{{4, 3, 2, 1}, {1, 1, 1, 1}})
		assert.InDelta(t, (0.4+0.25)/2, shape[0], 1e-12)
		assert.InDelta(t, (0.1+0.25)/2, shape[3], 1e-12)
	})

	t.Run("unusable references fall back", func(t *testing.T) {
		assert.Equal(t, c.LaunchShape(10, nil), c.LaunchShape(10, [][]float64{{0, 0}, {}}))
	})
}

func TestBrandLagShape(t *testing.T) {
	shape := BrandLagShape(60, 14, 7)
	var total float64
	best := 0
	for i, v := range shape {
		total += v
		if v > shape[best] {
			best = i
		}
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Equal(t, 13, best)
}

func TestAcquire(t *testing.T) {
	c := NewBudgetConverter()

	t.Run("launch window preserves paid volume", func(t *testing.T) {
		a := testAllocation()
		acq := c.Acquire(a, AcquisitionOptions{Days: 30, Multiplier: 1})
		require.Len(t, acq.Paid, 30)
		require.Len(t, acq.Organic, 30)

		total := a.UABudget / 2000
		got := sumInt(acq.Paid)
		assert.LessOrEqual(t, float64(got), total)
		assert.GreaterOrEqual(t, float64(got), total-30)
		assert.InDelta(t, total, acq.PaidTotal, 1e-6)
	})

	t.Run("organic follows ratio", func(t *testing.T) {
		a := testAllocation()
		acq := c.Acquire(a, AcquisitionOptions{Days: 30, Multiplier: 1})
		assert.InDelta(t, 0.2*float64(sumInt(acq.Paid)), float64(sumInt(acq.Organic)), 60)
	})

	t.Run("pre-launch burst lands on first days", func(t *testing.T) {
		a := testAllocation()
		a.PreMarketingShare = 0.5
		acq := c.Acquire(a, AcquisitionOptions{Days: 30, Multiplier: 1})
		base := c.Acquire(testAllocation(), AcquisitionOptions{Days: 30, Multiplier: 1})

		pool := a.UABudget * 0.5 / (0.3 * 2000)
		assert.InDelta(t, pool, acq.WishlistPool, 1e-6)
		assert.Greater(t, acq.Paid[0]-base.Paid[0]/2, int64(0))
	})

	t.Run("sustaining tail keeps organic floor", func(t *testing.T) {
		a := testAllocation()
		a.UABudget = 0
		acq := c.Acquire(a, AcquisitionOptions{Days: 120, Multiplier: 1})
		for d := 30; d < 120; d++ {
			assert.Equal(t, int64(10), acq.Organic[d])
			assert.Equal(t, int64(0), acq.Paid[d])
		}
	})

	t.Run("organic floor holds after scaling", func(t *testing.T) {
		a := testAllocation()
		a.UABudget = 0
		for _, opts := range []AcquisitionOptions{
			{Days: 90, Multiplier: 0.9},
			{Days: 90, Multiplier: 0},
			{Days: 90, Multiplier: 1, Seasonality: constantSeries(0.5, 90)},
		} {
			acq := c.Acquire(a, opts)
			for d := 30; d < 90; d++ {
				assert.Equal(t, int64(10), acq.Organic[d], "day %d multiplier %v", d, opts.Multiplier)
			}
		}
	})

	t.Run("horizon shorter than window", func(t *testing.T) {
		acq := c.Acquire(testAllocation(), AcquisitionOptions{Days: 5, Multiplier: 1})
		assert.Len(t, acq.Paid, 5)
	})

	t.Run("brand lag peaks after launch", func(t *testing.T) {
		a := testAllocation()
		a.BrandLag = true
		acq := c.Acquire(a, AcquisitionOptions{Days: 60, Multiplier: 1})
		assert.Greater(t, acq.Organic[13], acq.Organic[0])
	})

	t.Run("multiplier scales intake", func(t *testing.T) {
		one := c.Acquire(testAllocation(), AcquisitionOptions{Days: 30, Multiplier: 1})
		zero := c.Acquire(testAllocation(), AcquisitionOptions{Days: 30, Multiplier: 0})
		assert.Greater(t, sumInt(one.Paid), int64(0))
		assert.Equal(t, int64(0), sumInt(zero.Paid))
		assert.Equal(t, int64(0), sumInt(zero.Organic))
	})

	t.Run("live event boosts month start", func(t *testing.T) {
		events := []models.LiveEvent{{Month: 2, TrafficBoost: 2, RevenueBoost: 1}}
		plain := c.Acquire(testAllocation(), AcquisitionOptions{Days: 60, Multiplier: 1})
		boosted := c.Acquire(testAllocation(), AcquisitionOptions{Days: 60, Multiplier: 1, Events: events})
		assert.Equal(t, plain.Paid[29], boosted.Paid[29])
		assert.Greater(t, boosted.Paid[30], plain.Paid[30])
		assert.Greater(t, boosted.Organic[30], plain.Organic[30])
		assert.Equal(t, plain.Paid[40], boosted.Paid[40])
	})

	t.Run("seasonality multiplies intake", func(t *testing.T) {
		season := constantSeries(2, 30)
		plain := c.Acquire(testAllocation(), AcquisitionOptions{Days: 30, Multiplier: 1})
		seasonal := c.Acquire(testAllocation(), AcquisitionOptions{Days: 30, Multiplier: 1, Seasonality: season})
		assert.InDelta(t, 2*float64(plain.Paid[0]), float64(seasonal.Paid[0]), 1)
	})
}
