// Package history provides read access to the reference game series the
// projection engine blends against.
package history

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/irfndi/kpi-projection/internal/models"
)

var (
	// ErrGameNotFound is returned when a game has no series for a metric.
	ErrGameNotFound = errors.New("reference game not found")
	// ErrUnknownMetric is returned for metric names outside models.AllMetrics.
	ErrUnknownMetric = errors.New("unknown metric")
)

// Store is the read port of the history store.
type Store interface {
	Series(ctx context.Context, metric models.Metric, game string) ([]float64, error)
	Games(ctx context.Context, metric models.Metric) ([]string, error)
	Snapshot(ctx context.Context) (*models.RawGameData, error)
}

// Resolution reports which selected games were found per metric.
type Resolution struct {
	Data    models.ReferenceData
	Missing map[models.Metric][]string
}

// Resolve loads the selected games for every metric. Games the store does
// not know are recorded in Missing and skipped; other errors abort.
func Resolve(ctx context.Context, store Store, selected models.SelectedGames) (Resolution, error) {
	res := Resolution{Missing: map[models.Metric][]string{}}
	for _, metric := range models.AllMetrics {
		for _, game := range selected.For(metric) {
			series, err := store.Series(ctx, metric, game)
			if errors.Is(err, ErrGameNotFound) {
				res.Missing[metric] = append(res.Missing[metric], game)
				continue
			}
			if err != nil {
				return Resolution{}, fmt.Errorf("failed to load %s series for %q: %w", metric, game, err)
			}
			res.Data.Add(metric, series)
		}
	}
	return res, nil
}

func checkMetric(metric models.Metric) error {
	if !metric.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	return nil
}

func sortedKeys(m map[string][]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
