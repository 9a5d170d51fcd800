package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/irfndi/kpi-projection/internal/history"
	"github.com/irfndi/kpi-projection/internal/logging"
	"github.com/irfndi/kpi-projection/internal/models"
	"github.com/irfndi/kpi-projection/internal/projection"
	"github.com/irfndi/kpi-projection/internal/telemetry"
	"github.com/irfndi/kpi-projection/internal/utils"
)

// BacktestService measures how well the retention model predicts the
// holdout window of each reference game.
type BacktestService struct {
	store  history.Store
	fitter *projection.CurveFitter
	tracer *telemetry.BusinessTracer
	logger *logging.Logger
}

// NewBacktestService creates a backtester over the given store.
func NewBacktestService(store history.Store, fitter *projection.CurveFitter, tracer *telemetry.BusinessTracer, logger *logging.Logger) *BacktestService {
	if fitter == nil {
		fitter = projection.NewCurveFitter()
	}
	if tracer == nil {
		tracer = telemetry.NewBusinessTracer(nil)
	}
	if logger == nil {
		logger = logging.NewLogger("info", "production")
	}
	return &BacktestService{store: store, fitter: fitter, tracer: tracer, logger: logger}
}

func validateBacktestConfig(cfg models.BacktestConfig) error {
	if cfg.ObservedDays < 1 || cfg.ObservedDays > models.MaxProjectionDays {
		return utils.NewValidationErrorf("observed_days", "must be between 1 and %d, got %d", models.MaxProjectionDays, cfg.ObservedDays)
	}
	if cfg.HoldoutDays < 1 || cfg.HoldoutDays > models.MaxProjectionDays {
		return utils.NewValidationErrorf("holdout_days", "must be between 1 and %d, got %d", models.MaxProjectionDays, cfg.HoldoutDays)
	}
	if math.IsNaN(cfg.DecayPower) || cfg.DecayPower > 0 {
		return utils.NewValidationErrorf("decay_power", "must be non-positive, got %v", cfg.DecayPower)
	}
	return nil
}

// Run backtests every retention game long enough to cover both windows.
func (b *BacktestService) Run(ctx context.Context, cfg models.BacktestConfig) (*models.BacktestReport, error) {
	if err := validateBacktestConfig(cfg); err != nil {
		return nil, err
	}

	ctx, span := b.tracer.TraceBacktest(ctx)
	defer span.End()

	report := &models.BacktestReport{
		Config:    cfg,
		Games:     []models.GameBacktest{},
		Skipped:   []string{},
		StartedAt: time.Now(),
	}

	games, err := b.store.Games(ctx, models.MetricRetention)
	if err != nil {
		b.tracer.RecordError(span, err)
		return nil, fmt.Errorf("failed to list retention games: %w", err)
	}

	horizon := cfg.ObservedDays + cfg.HoldoutDays
	for _, name := range games {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		actual, err := b.store.Series(ctx, models.MetricRetention, name)
		if errors.Is(err, history.ErrGameNotFound) {
			report.Skipped = append(report.Skipped, name)
			continue
		}
		if err != nil {
			b.tracer.RecordError(span, err)
			return nil, fmt.Errorf("failed to load retention for %q: %w", name, err)
		}
		if len(actual) < horizon {
			report.Skipped = append(report.Skipped, name)
			continue
		}

		game, ok := b.backtestGame(name, actual, cfg)
		if !ok {
			report.Skipped = append(report.Skipped, name)
			continue
		}
		report.Games = append(report.Games, game)
	}

	summarize(report)
	report.CompletedAt = time.Now()
	report.Duration = report.CompletedAt.Sub(report.StartedAt)

	b.tracer.RecordBacktestResult(span, *report)
	b.logger.LogBusinessEvent("backtest_completed", map[string]interface{}{
		"games":        len(report.Games),
		"skipped":      len(report.Skipped),
		"average_mape": report.AverageMAPE,
		"confidence":   string(report.Confidence),
	})
	return report, nil
}

func (b *BacktestService) backtestGame(name string, actual []float64, cfg models.BacktestConfig) (models.GameBacktest, bool) {
	horizon := cfg.ObservedDays + cfg.HoldoutDays
	d1 := actual[0]

	baseline := projection.GenerateRetentionCurve(projection.RetentionCurveParams{A: 1, B: cfg.DecayPower}, d1, horizon)
	errs := holdoutErrors(actual, baseline, cfg.ObservedDays, horizon)
	if len(errs) == 0 {
		return models.GameBacktest{}, false
	}

	fit := b.fitter.FitRetention(actual[:cfg.ObservedDays])
	fitted := projection.GenerateRetentionCurve(fit.Params, fit.Params.At(1), horizon)
	fittedErrs := holdoutErrors(actual, fitted, cfg.ObservedDays, horizon)

	game := models.GameBacktest{
		Game:         name,
		Days:         len(actual),
		ActualD1:     d1,
		ActualD30:    dayValue(actual, 30),
		PredictedD30: dayValue(baseline, 30),
		ActualD60:    dayValue(actual, 60),
		PredictedD60: dayValue(baseline, 60),
		MAPE:         stat.Mean(errs, nil) * 100,
		MaxError:     floats.Max(errs) * 100,
		FittedA:      fit.Params.A,
		FittedB:      fit.Params.B,
		FitStatus:    string(fit.Status),
	}
	if len(fittedErrs) > 0 {
		game.FittedMAPE = stat.Mean(fittedErrs, nil) * 100
	}
	return game, true
}

// holdoutErrors returns |pred-actual|/actual for days (from, to] where the
// actual value is positive.
func holdoutErrors(actual, predicted []float64, from, to int) []float64 {
	errs := make([]float64, 0, to-from)
	for i := from; i < to; i++ {
		if actual[i] <= 0 {
			continue
		}
		errs = append(errs, math.Abs(predicted[i]-actual[i])/actual[i])
	}
	return errs
}

func dayValue(series []float64, day int) float64 {
	if day < 1 || day > len(series) {
		return 0
	}
	return series[day-1]
}

func summarize(report *models.BacktestReport) {
	if len(report.Games) == 0 {
		report.Confidence = models.ConfidenceLow
		return
	}

	mapes := make([]float64, len(report.Games))
	fitted := make([]float64, len(report.Games))
	for i, g := range report.Games {
		mapes[i] = g.MAPE
		fitted[i] = g.FittedMAPE
	}

	report.AverageMAPE = stat.Mean(mapes, nil)
	report.AverageFittedMAPE = stat.Mean(fitted, nil)
	report.MinMAPE = floats.Min(mapes)
	report.MaxMAPE = floats.Max(mapes)

	sorted := slices.Clone(mapes)
	slices.Sort(sorted)
	report.MedianMAPE = median(sorted)
	report.Confidence = models.ConfidenceForMAPE(report.AverageMAPE)
}

// median of sorted values, averaging the middle pair for even counts.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
