// Package app assembles the runtime shared by the server and the command
// line tools: logger, tracer provider, connections and the history store.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/irfndi/kpi-projection/internal/cache"
	"github.com/irfndi/kpi-projection/internal/config"
	"github.com/irfndi/kpi-projection/internal/database"
	"github.com/irfndi/kpi-projection/internal/history"
	"github.com/irfndi/kpi-projection/internal/logging"
	"github.com/irfndi/kpi-projection/internal/projection"
	"github.com/irfndi/kpi-projection/internal/services"
	"github.com/irfndi/kpi-projection/internal/telemetry"
)

// Runtime owns every long-lived resource of a process.
type Runtime struct {
	Config    *config.Config
	Logger    *logging.Logger
	Telemetry *telemetry.Provider
	DB        *database.PostgresDB
	Redis     *database.RedisClient
	Store     history.Store
	Cache     cache.ProjectionCache

	closers []func(context.Context) error
}

// New initializes logging and tracing for cfg. Connections are opened by
// OpenStore and OpenCache.
func New(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	logger, stopLogs, err := logging.NewOTLPLogger(logging.OTLPConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		LogLevel:       cfg.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	provider, err := telemetry.InitTelemetry(ctx, telemetry.TelemetryConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Exporter:       cfg.Telemetry.Exporter,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		SampleRate:     1.0,
	})
	if err != nil {
		_ = stopLogs(ctx)
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	rt := &Runtime{Config: cfg, Logger: logger, Telemetry: provider}
	rt.closers = append(rt.closers, stopLogs, provider.Shutdown)
	return rt, nil
}

// OpenStore connects the configured history source.
func (rt *Runtime) OpenStore(ctx context.Context) (history.Store, error) {
	switch rt.Config.History.Source {
	case config.HistorySourcePostgres:
		store, err := rt.PostgresStore(ctx)
		if err != nil {
			return nil, err
		}
		rt.Store = store
	default:
		rt.Store = history.NewFileStore(rt.Config.History.DataPath)
	}

	rt.Logger.WithComponent("history").
		WithField("source", rt.Config.History.Source).
		Info("Reference store ready")
	return rt.Store, nil
}

// PostgresStore opens the database regardless of the configured source.
// The seed command writes through it.
func (rt *Runtime) PostgresStore(ctx context.Context) (*history.PostgresStore, error) {
	db, err := rt.openDB(ctx)
	if err != nil {
		return nil, err
	}
	store := history.NewPostgresStore(database.NewTracedPool(db.Pool, rt.Telemetry.Tracer()))
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (rt *Runtime) openDB(ctx context.Context) (*database.PostgresDB, error) {
	if rt.DB != nil {
		return rt.DB, nil
	}
	db, err := database.NewPostgresConnection(ctx, rt.Config.Database)
	if err != nil {
		return nil, err
	}
	rt.DB = db
	rt.closers = append(rt.closers, func(context.Context) error {
		db.Close()
		return nil
	})
	return db, nil
}

// OpenCache returns the projection cache. With caching disabled it returns
// nil. When Redis is unreachable an in-memory cache is used instead.
func (rt *Runtime) OpenCache(ctx context.Context) cache.ProjectionCache {
	if !rt.Config.Cache.Enabled {
		return nil
	}
	ttl := rt.Config.Cache.CacheTTL()

	redisClient, err := database.NewRedisConnection(ctx, rt.Config.Redis)
	if err != nil {
		rt.Logger.WithComponent("cache").WithError(err).
			Warn("Redis unavailable, using in-memory projection cache")
		rt.Cache = cache.NewInMemoryProjectionCache(ttl)
		return rt.Cache
	}

	rt.Redis = redisClient
	rt.closers = append(rt.closers, func(context.Context) error {
		redisClient.Close()
		return nil
	})
	rt.Cache = cache.NewRedisProjectionCache(redisClient.Client, ttl, rt.Logger.Logger)
	return rt.Cache
}

// Services builds the projection engine and both services over the opened
// store and cache.
func (rt *Runtime) Services() (*services.ProjectionService, *services.BacktestService) {
	tracer := telemetry.NewBusinessTracer(rt.Telemetry.Tracer())
	engine := projection.NewEngine(rt.Config.EngineSettings())
	return services.NewProjectionService(engine, rt.Store, rt.Cache, tracer, rt.Logger),
		services.NewBacktestService(rt.Store, engine.Fitter(), tracer, rt.Logger)
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
