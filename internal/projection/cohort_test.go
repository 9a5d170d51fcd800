package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetentionAt(t *testing.T) {
	curve := []float64{0.5, 0.25}
	assert.Equal(t, 1.0, retentionAt(curve, 0))
	assert.Equal(t, 0.5, retentionAt(curve, 1))
	assert.Equal(t, 0.25, retentionAt(curve, 2))
	assert.Equal(t, 0.0, retentionAt(curve, 3))
	assert.Equal(t, 1.0, retentionAt(nil, 0))
}

func TestReconstructDAU(t *testing.T) {
	t.Run("single cohort decays by curve", func(t *testing.T) {
		dau := ReconstructDAU([]int64{100, 0, 0, 0}, []int64{0, 0, 0, 0}, []float64{0.5, 0.25}, []float64{0.5, 0.25})
		assert.Equal(t, []int64{100, 50, 25, 0}, dau)
	})

	t.Run("cohorts overlap", func(t *testing.T) {
		dau := ReconstructDAU([]int64{100, 100}, []int64{10, 10}, []float64{0.5}, []float64{1})
		assert.Equal(t, []int64{110, 170}, dau)
	})

	t.Run("launch day equals intake", func(t *testing.T) {
		dau := ReconstructDAU([]int64{7}, []int64{3}, nil, nil)
		assert.Equal(t, []int64{10}, dau)
	})

	t.Run("zero retention leaves only new users", func(t *testing.T) {
		curve := []float64{0, 0, 0}
		dau := ReconstructDAU([]int64{5, 6, 7}, []int64{1, 1, 1}, curve, curve)
		assert.Equal(t, []int64{6, 7, 8}, dau)
	})
}
