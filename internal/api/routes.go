package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/kpi-projection/internal/api/handlers"
	"github.com/irfndi/kpi-projection/internal/config"
	"github.com/irfndi/kpi-projection/internal/history"
	"github.com/irfndi/kpi-projection/internal/logging"
	"github.com/irfndi/kpi-projection/internal/middleware"
	"github.com/irfndi/kpi-projection/internal/models"
	"github.com/irfndi/kpi-projection/internal/services"
)

// Dependencies are the collaborators the HTTP layer is built from. DB and
// Redis are nil when the service runs without them.
type Dependencies struct {
	Config      *config.Config
	Logger      *logging.Logger
	Store       history.Store
	Projections *services.ProjectionService
	Backtests   *services.BacktestService
	DB          handlers.HealthChecker
	Redis       handlers.HealthChecker
}

// NewRouter builds a gin engine with the standard middleware chain and all
// routes registered.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(deps.Config.Telemetry.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORS(deps.Config.Server.AllowedOrigins))

	SetupRoutes(router, deps)
	return router
}

// SetupRoutes configures all the HTTP routes for the application.
//
// Parameters:
//
//	router: The Gin engine instance to register routes on.
//	deps: Services, store and health checkers the handlers use.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	adminMiddleware := middleware.NewAdminMiddleware(deps.Config.Admin.APIKey)

	healthHandler := handlers.NewHealthHandler(models.EngineVersion).
		AddCheck("reference_store", handlers.StoreHealth{Store: deps.Store}, true)
	if deps.DB != nil {
		healthHandler.AddCheck("database", deps.DB, true)
	}
	if deps.Redis != nil {
		healthHandler.AddCheck("redis", deps.Redis, false)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Game KPI Projection Engine",
			"version": models.EngineVersion,
		})
	})
	router.GET("/health", gin.WrapF(healthHandler.HealthCheck))
	router.HEAD("/health", gin.WrapF(healthHandler.HealthCheck))
	router.GET("/live", gin.WrapF(healthHandler.LivenessCheck))

	projectionHandler := handlers.NewProjectionHandler(deps.Projections, deps.Backtests, deps.Store, deps.Logger)
	adminHandler := handlers.NewAdminHandler(deps.Projections, deps.Store, deps.Logger)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})

		v1.POST("/projection", projectionHandler.Project)
		v1.GET("/config", projectionHandler.Config)
		v1.GET("/backtest", projectionHandler.Backtest)

		reference := v1.Group("/reference")
		{
			reference.GET("/games", projectionHandler.ListGames)
			reference.GET("/raw-data", projectionHandler.RawData)
		}

		admin := v1.Group("/admin")
		admin.Use(adminMiddleware.RequireAdminAuth())
		{
			admin.GET("/cache/stats", adminHandler.GetCacheStats)
			admin.DELETE("/cache", adminHandler.ClearCache)
			admin.POST("/reference/reload", adminHandler.ReloadReference)
		}
	}
}
