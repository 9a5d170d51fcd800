package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/kpi-projection/internal/cache"
	"github.com/irfndi/kpi-projection/internal/history"
	"github.com/irfndi/kpi-projection/internal/logging"
	"github.com/irfndi/kpi-projection/internal/models"
	"github.com/irfndi/kpi-projection/internal/projection"
	"github.com/irfndi/kpi-projection/internal/telemetry"
)

// ProjectionOutcome is a projection together with how it was produced.
type ProjectionOutcome struct {
	Result  models.ProjectionResult
	Cached  bool
	Missing map[models.Metric][]string
}

// ProjectionService resolves reference series, runs the engine and caches
// results.
type ProjectionService struct {
	engine  *projection.Engine
	store   history.Store
	cache   cache.ProjectionCache
	breaker *CircuitBreaker
	tracer  *telemetry.BusinessTracer
	logger  *logging.Logger
}

// NewProjectionService wires the service. A nil cache disables caching.
//
// Parameters:
//   - engine: The projection engine.
//   - store: Source of reference game series.
//   - resultCache: Optional result cache.
//   - tracer: Business tracer for request spans.
//   - logger: Structured logger.
//
// Returns:
//   - A pointer to an initialized ProjectionService.
func NewProjectionService(engine *projection.Engine, store history.Store, resultCache cache.ProjectionCache, tracer *telemetry.BusinessTracer, logger *logging.Logger) *ProjectionService {
	if tracer == nil {
		tracer = telemetry.NewBusinessTracer(nil)
	}
	if logger == nil {
		logger = logging.NewLogger("info", "production")
	}
	return &ProjectionService{
		engine:  engine,
		store:   store,
		cache:   resultCache,
		breaker: NewCircuitBreaker("projection_cache", CircuitBreakerConfig{FailureThreshold: 3, Timeout: 30 * time.Second}, logger.Logger),
		tracer:  tracer,
		logger:  logger,
	}
}

// Engine returns the engine the service runs.
func (s *ProjectionService) Engine() *projection.Engine {
	return s.engine
}

// Project returns the projection for req. Reference games the store does
// not know are skipped. Cache failures never fail the request.
func (s *ProjectionService) Project(ctx context.Context, req models.ProjectionRequest) (*ProjectionOutcome, error) {
	req = req.Normalize()
	start := time.Now()

	ctx, span := s.tracer.TraceProjection(ctx, req)
	defer span.End()

	key, err := cache.Key(req, s.engine.Settings())
	if err != nil {
		s.logger.WithError(err).Warn("Projection cache key unavailable")
	}

	if key != "" {
		if entry := s.cached(ctx, key); entry != nil {
			s.tracer.RecordProjectionResult(span, entry.Result, true)
			return &ProjectionOutcome{Result: entry.Result, Cached: true}, nil
		}
	}

	resolved, err := history.Resolve(ctx, s.store, req.SelectedGames)
	if err != nil {
		s.tracer.RecordError(span, err)
		return nil, fmt.Errorf("failed to resolve reference games: %w", err)
	}
	for metric, games := range resolved.Missing {
		s.logger.WithFields(logrus.Fields{
			"component": "projection_service",
			"metric":    string(metric),
			"games":     games,
		}).Warn("Selected reference games not found, skipping")
	}

	result := s.engine.Project(req, resolved.Data)
	s.tracer.RecordProjectionResult(span, result, false)

	if key != "" {
		s.save(ctx, key, result)
	}

	normal := result.Summary[models.ScenarioNormal]
	s.logger.LogBusinessEvent("projection_completed", map[string]interface{}{
		"projection_days": result.Meta.ProjectionDays,
		"genre":           result.Meta.Genre,
		"internal_games":  result.Meta.Fit.InternalGames,
		"normal_bep_day":  normal.BEPDay,
		"normal_revenue":  normal.TotalRevenue,
		"duration_ms":     time.Since(start).Milliseconds(),
	})

	return &ProjectionOutcome{Result: result, Missing: resolved.Missing}, nil
}

func (s *ProjectionService) cached(ctx context.Context, key string) *cache.ProjectionCacheEntry {
	if s.cache == nil {
		return nil
	}
	start := time.Now()
	var (
		entry *cache.ProjectionCacheEntry
		hit   bool
	)
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		entry, hit, err = s.cache.Get(ctx, key)
		return err
	})
	if err != nil && !errors.Is(err, ErrCircuitOpen) {
		s.logger.WithError(err).Warn("Projection cache read failed")
	}
	s.logger.LogCacheOperation("get", key, hit, time.Since(start))
	if !hit {
		return nil
	}
	return entry
}

func (s *ProjectionService) save(ctx context.Context, key string, result models.ProjectionResult) {
	if s.cache == nil {
		return
	}
	start := time.Now()
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.cache.Set(ctx, key, result)
	})
	if err != nil && !errors.Is(err, ErrCircuitOpen) {
		s.logger.WithError(err).Warn("Projection cache write failed")
	}
	s.logger.LogCacheOperation("set", key, false, time.Since(start))
}

// ClearCache drops every cached projection.
func (s *ProjectionService) ClearCache(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	n, err := s.cache.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear projection cache: %w", err)
	}
	s.logger.LogBusinessEvent("projection_cache_cleared", map[string]interface{}{"entries": n})
	return n, nil
}

// CacheStats reports cache and breaker counters. ok is false when caching
// is disabled.
func (s *ProjectionService) CacheStats() (stats cache.ProjectionCacheStats, breaker CircuitBreakerStats, ok bool) {
	if s.cache == nil {
		return cache.ProjectionCacheStats{}, CircuitBreakerStats{}, false
	}
	return s.cache.GetStats(), s.breaker.GetStats(), true
}
