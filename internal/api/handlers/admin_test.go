package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/kpi-projection/internal/history"
	"github.com/irfndi/kpi-projection/internal/services"
)

type cacheStatsBody struct {
	Success bool `json:"success"`
	Enabled bool `json:"enabled"`
	Data    struct {
		Cache struct {
			Hits   int64 `json:"hits"`
			Misses int64 `json:"misses"`
			Sets   int64 `json:"sets"`
		} `json:"cache"`
		HitRate float64                      `json:"hit_rate"`
		Circuit services.CircuitBreakerStats `json:"circuit"`
	} `json:"data"`
}

func TestAdmin_CacheStatsAndClear(t *testing.T) {
	router := newFixture(t, nil).router()

	require.Equal(t, http.StatusOK, do(router, http.MethodPost, "/projection", `{"projection_days": 10}`).Code)
	require.Equal(t, http.StatusOK, do(router, http.MethodPost, "/projection", `{"projection_days": 10}`).Code)

	w := do(router, http.MethodGet, "/admin/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats cacheStatsBody
	decode(t, w, &stats)
	assert.True(t, stats.Enabled)
	assert.Equal(t, int64(1), stats.Data.Cache.Hits)
	assert.Equal(t, int64(1), stats.Data.Cache.Misses)
	assert.Equal(t, int64(1), stats.Data.Cache.Sets)
	assert.Equal(t, 50.0, stats.Data.HitRate)
	assert.Equal(t, "closed", stats.Data.Circuit.State)

	w = do(router, http.MethodDelete, "/admin/cache", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cleared struct {
		Success bool `json:"success"`
		Cleared int  `json:"cleared"`
	}
	decode(t, w, &cleared)
	assert.True(t, cleared.Success)
	assert.Equal(t, 1, cleared.Cleared)

	assert.Equal(t, "MISS", do(router, http.MethodPost, "/projection", `{"projection_days": 10}`).Header().Get(CacheHeader))
}

func TestAdmin_CacheDisabled(t *testing.T) {
	f := newFixture(t, nil)
	f.projections = services.NewProjectionService(f.projections.Engine(), f.store, nil, nil, f.logger)
	router := f.router()

	w := do(router, http.MethodGet, "/admin/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats cacheStatsBody
	decode(t, w, &stats)
	assert.False(t, stats.Enabled)

	w = do(router, http.MethodDelete, "/admin/cache", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin_ReloadReference(t *testing.T) {
	f := newFixture(t, nil)
	_, ok := f.store.(*history.FileStore)
	require.True(t, ok)

	w := do(f.router(), http.MethodPost, "/admin/reference/reload", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Reference data reloaded")

	w = do(newFixture(t, downStore{}).router(), http.MethodPost, "/admin/reference/reload", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
