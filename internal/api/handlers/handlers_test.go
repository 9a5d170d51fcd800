package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/kpi-projection/internal/cache"
	"github.com/irfndi/kpi-projection/internal/history"
	"github.com/irfndi/kpi-projection/internal/logging"
	"github.com/irfndi/kpi-projection/internal/models"
	"github.com/irfndi/kpi-projection/internal/projection"
	"github.com/irfndi/kpi-projection/internal/services"
)

var errStoreDown = errors.New("store down")

// downStore fails every read.
type downStore struct{}

func (downStore) Series(context.Context, models.Metric, string) ([]float64, error) {
	return nil, errStoreDown
}

func (downStore) Games(context.Context, models.Metric) ([]string, error) {
	return nil, errStoreDown
}

func (downStore) Snapshot(context.Context) (*models.RawGameData, error) {
	return nil, errStoreDown
}

func writeReferenceData(t *testing.T) string {
	t.Helper()
	data := models.EmptyRawGameData()
	retention := make([]float64, 60)
	for i := range retention {
		retention[i] = 0.4 * math.Pow(float64(i+1), -0.5)
	}
	data.Games[models.MetricRetention]["GameA"] = retention
	data.Games[models.MetricNRU]["GameA"] = []float64{1000, 800, 700, 650}
	data.Games[models.MetricPaymentRate]["GameA"] = []float64{0.05, 0.045, 0.04}
	data.Games[models.MetricARPPU]["GameA"] = []float64{30000, 28000}

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "raw_game_data.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

type fixture struct {
	store       history.Store
	projections *services.ProjectionService
	backtests   *services.BacktestService
	logger      *logging.Logger
}

func newFixture(t *testing.T, store history.Store) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if store == nil {
		store = history.NewFileStore(writeReferenceData(t))
	}
	logger := logging.NewLoggerWithOutput(io.Discard, "error", "test")
	engine := projection.NewEngine(models.DefaultEngineSettings())
	return fixture{
		store:       store,
		projections: services.NewProjectionService(engine, store, cache.NewInMemoryProjectionCache(time.Minute), nil, logger),
		backtests:   services.NewBacktestService(store, engine.Fitter(), nil, logger),
		logger:      logger,
	}
}

func (f fixture) router() *gin.Engine {
	ph := NewProjectionHandler(f.projections, f.backtests, f.store, f.logger)
	ah := NewAdminHandler(f.projections, f.store, f.logger)

	router := gin.New()
	router.POST("/projection", ph.Project)
	router.GET("/games", ph.ListGames)
	router.GET("/raw-data", ph.RawData)
	router.GET("/config", ph.Config)
	router.GET("/backtest", ph.Backtest)
	router.GET("/admin/cache/stats", ah.GetCacheStats)
	router.DELETE("/admin/cache", ah.ClearCache)
	router.POST("/admin/reference/reload", ah.ReloadReference)
	return router
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
