package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/kpi-projection/internal/history"
	"github.com/irfndi/kpi-projection/internal/logging"
	"github.com/irfndi/kpi-projection/internal/middleware"
	"github.com/irfndi/kpi-projection/internal/models"
	"github.com/irfndi/kpi-projection/internal/services"
	"github.com/irfndi/kpi-projection/internal/utils"
)

// CacheHeader reports whether a projection was served from cache.
const CacheHeader = "X-Cache"

// ProjectionHandler serves projection, reference data and backtest
// endpoints.
type ProjectionHandler struct {
	projections *services.ProjectionService
	backtests   *services.BacktestService
	store       history.Store
	logger      *logging.Logger
}

// NewProjectionHandler creates a new projection handler.
func NewProjectionHandler(projections *services.ProjectionService, backtests *services.BacktestService, store history.Store, logger *logging.Logger) *ProjectionHandler {
	return &ProjectionHandler{
		projections: projections,
		backtests:   backtests,
		store:       store,
		logger:      logger,
	}
}

// Project runs a projection. Absent fields keep their documented defaults;
// an empty body projects the default request.
func (h *ProjectionHandler) Project(c *gin.Context) {
	req := models.DefaultProjectionRequest()
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	outcome, err := h.projections.Project(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "projection failed")
		return
	}

	if outcome.Cached {
		c.Header(CacheHeader, "HIT")
	} else {
		c.Header(CacheHeader, "MISS")
	}
	c.JSON(http.StatusOK, outcome.Result)
}

// ListGames returns reference game names for one metric, or for all metrics
// when none is given.
func (h *ProjectionHandler) ListGames(c *gin.Context) {
	ctx := c.Request.Context()

	if raw := c.Query("metric"); raw != "" {
		metric := models.Metric(raw)
		names, err := h.store.Games(ctx, metric)
		if err != nil {
			h.fail(c, err, "list reference games failed")
			return
		}
		c.JSON(http.StatusOK, gin.H{"metric": metric, "games": names})
		return
	}

	all := make(map[models.Metric][]string, len(models.AllMetrics))
	for _, metric := range models.AllMetrics {
		names, err := h.store.Games(ctx, metric)
		if err != nil {
			h.fail(c, err, "list reference games failed")
			return
		}
		all[metric] = names
	}
	c.JSON(http.StatusOK, gin.H{"games": all})
}

// RawData returns the full reference data set.
func (h *ProjectionHandler) RawData(c *gin.Context) {
	data, err := h.store.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, err, "load reference data failed")
		return
	}
	c.JSON(http.StatusOK, data)
}

// Config returns the engine settings and request defaults in effect.
func (h *ProjectionHandler) Config(c *gin.Context) {
	engine := h.projections.Engine()
	c.JSON(http.StatusOK, gin.H{
		"version":  models.EngineVersion,
		"settings": engine.Settings(),
		"defaults": models.DefaultProjectionRequest(),
		"regions":  engine.Seasonality().Regions(),
	})
}

// Backtest scores the retention model against the reference games.
// observed_days, holdout_days and decay_power override the defaults.
func (h *ProjectionHandler) Backtest(c *gin.Context) {
	cfg := models.DefaultBacktestConfig()

	var err error
	if cfg.ObservedDays, err = intQuery(c, "observed_days", cfg.ObservedDays); err != nil {
		h.fail(c, err, "")
		return
	}
	if cfg.HoldoutDays, err = intQuery(c, "holdout_days", cfg.HoldoutDays); err != nil {
		h.fail(c, err, "")
		return
	}
	if raw := c.Query("decay_power"); raw != "" {
		v, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			h.fail(c, utils.NewValidationError("decay_power", "must be a number"), "")
			return
		}
		cfg.DecayPower = v
	}

	report, err := h.backtests.Run(c.Request.Context(), cfg)
	if err != nil {
		h.fail(c, err, "backtest failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, utils.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

// fail maps validation and unknown-metric errors to 400 and everything else
// to 500.
func (h *ProjectionHandler) fail(c *gin.Context, err error, msg string) {
	if utils.IsValidationError(err) || errors.Is(err, history.ErrUnknownMetric) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	middleware.RecordError(c, err, msg)
	if h.logger != nil {
		h.logger.WithError(err).WithField("request_id", middleware.GetRequestID(c)).Error(msg)
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal server error",
		"message": msg,
	})
}
