package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/kpi-projection/internal/history"
	"github.com/irfndi/kpi-projection/internal/logging"
	"github.com/irfndi/kpi-projection/internal/middleware"
	"github.com/irfndi/kpi-projection/internal/services"
)

// reloader is implemented by stores that cache their source in memory.
type reloader interface {
	Reload()
}

// AdminHandler serves the operator endpoints behind the admin key.
type AdminHandler struct {
	projections *services.ProjectionService
	store       history.Store
	logger      *logging.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(projections *services.ProjectionService, store history.Store, logger *logging.Logger) *AdminHandler {
	return &AdminHandler{projections: projections, store: store, logger: logger}
}

// ClearCache drops every cached projection result.
func (h *AdminHandler) ClearCache(c *gin.Context) {
	n, err := h.projections.ClearCache(c.Request.Context())
	if err != nil {
		middleware.RecordError(c, err, "clear projection cache failed")
		h.logger.WithError(err).Error("Failed to clear projection cache")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to clear projection cache",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Projection cache cleared",
		"cleared": n,
	})
}

// GetCacheStats reports cache hit/miss counters and the cache circuit state.
func (h *AdminHandler) GetCacheStats(c *gin.Context) {
	stats, breaker, ok := h.projections.CacheStats()
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"enabled": false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"enabled": true,
		"data": gin.H{
			"cache":    stats,
			"hit_rate": stats.HitRate(),
			"circuit":  breaker,
		},
	})
}

// ReloadReference makes the store re-read its source. Cached projections
// were computed from the old data and are cleared too.
func (h *AdminHandler) ReloadReference(c *gin.Context) {
	r, ok := h.store.(reloader)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{
			"success": false,
			"error":   "Reference store does not support reload",
		})
		return
	}
	r.Reload()

	n, err := h.projections.ClearCache(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Reference data reloaded but projection cache was not cleared")
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Reference data reloaded",
		"cleared": n,
	})
}
