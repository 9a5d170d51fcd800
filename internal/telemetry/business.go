package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/kpi-projection/internal/models"
)

// BusinessTracer provides utilities for tracing projection workloads.
// It records domain attributes such as horizon, genre and break-even days
// on the spans it starts.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer creates a new instance of BusinessTracer.
//
// Parameters:
//   - tracer: The tracer to start spans from. Nil uses the global provider.
//
// Returns:
//   - A pointer to an initialized BusinessTracer.
func NewBusinessTracer(tracer trace.Tracer) *BusinessTracer {
	if tracer == nil {
		tracer = otel.Tracer(ServiceName)
	}
	return &BusinessTracer{tracer: tracer}
}

// TraceProjection starts a span for one projection run.
//
// Parameters:
//   - ctx: The context to attach the span to.
//   - req: The normalized projection request.
//
// Returns:
//   - A context containing the new span.
//   - The created span. Callers must end it.
func (bt *BusinessTracer) TraceProjection(ctx context.Context, req models.ProjectionRequest) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "projection.project",
		trace.WithAttributes(
			attribute.Int("projection.days", req.ProjectionDays),
			attribute.String("projection.genre", req.Genre),
			attribute.String("projection.platforms", strings.Join(req.Platforms, ",")),
			attribute.String("projection.bm_type", req.BMType),
			attribute.String("projection.blend_mode", string(req.Blending.Mode)),
			attribute.Float64("projection.ua_budget", req.Marketing.UABudget),
			attribute.Float64("projection.brand_budget", req.Marketing.BrandBudget),
		),
	)
}

// RecordProjectionResult adds the headline outputs of a run to a span.
//
// Parameters:
//   - span: The span to update.
//   - result: The completed projection.
//   - cached: Whether the result was served from the cache.
func (bt *BusinessTracer) RecordProjectionResult(span trace.Span, result models.ProjectionResult, cached bool) {
	span.SetAttributes(
		attribute.Int("projection.scenarios", len(result.Results)),
		attribute.Bool("projection.cached", cached),
		attribute.Int("projection.internal_games", result.Meta.Fit.InternalGames),
		attribute.String("projection.benchmark_fit", result.Meta.Fit.BenchmarkStatus),
	)
	for _, name := range models.AllScenarios {
		s, ok := result.Summary[name]
		if !ok {
			continue
		}
		span.SetAttributes(
			attribute.Int("projection."+string(name)+".bep_day", s.BEPDay),
			attribute.Int64("projection."+string(name)+".total_revenue", s.TotalRevenue),
		)
	}
}

// TraceBacktest starts a span for a retention backtest run.
//
// Parameters:
//   - ctx: The context to attach the span to.
//
// Returns:
//   - A context containing the new span.
//   - The created span.
func (bt *BusinessTracer) TraceBacktest(ctx context.Context) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "projection.backtest")
}

// RecordBacktestResult adds the backtest aggregate to a span.
func (bt *BusinessTracer) RecordBacktestResult(span trace.Span, report models.BacktestReport) {
	span.SetAttributes(
		attribute.Int("backtest.games", len(report.Games)),
		attribute.Float64("backtest.average_mape", report.AverageMAPE),
		attribute.String("backtest.confidence", string(report.Confidence)),
	)
}

// RecordError marks a span as failed.
func (bt *BusinessTracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
