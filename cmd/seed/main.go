// Command seed loads a reference data JSON file into the reference_series
// table.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/irfndi/kpi-projection/internal/app"
	"github.com/irfndi/kpi-projection/internal/config"
	"github.com/irfndi/kpi-projection/internal/history"
	"github.com/irfndi/kpi-projection/internal/models"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	file := fs.String("file", "", "reference data JSON (defaults to history.data_path)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	path := *file
	if path == "" {
		path = cfg.History.DataPath
	}

	ctx := context.Background()
	data, err := loadFile(ctx, path)
	if err != nil {
		return err
	}

	rt, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx) }()

	store, err := rt.PostgresStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open reference database: %w", err)
	}
	rows, err := store.Import(ctx, data)
	if err != nil {
		return err
	}

	rt.Logger.LogBusinessEvent("reference_data_imported", map[string]interface{}{
		"file":  path,
		"rows":  rows,
		"games": countGames(data),
	})
	return nil
}

func loadFile(ctx context.Context, path string) (*models.RawGameData, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reference data file: %w", err)
	}
	return history.NewFileStore(path).Snapshot(ctx)
}

func countGames(data *models.RawGameData) map[models.Metric]int {
	counts := make(map[models.Metric]int, len(models.AllMetrics))
	for _, m := range models.AllMetrics {
		counts[m] = len(data.Games[m])
	}
	return counts
}
