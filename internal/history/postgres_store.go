package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/irfndi/kpi-projection/internal/database"
	"github.com/irfndi/kpi-projection/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS reference_series (
	metric     TEXT             NOT NULL,
	game_name  TEXT             NOT NULL,
	day_index  INTEGER          NOT NULL,
	value      DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (metric, game_name, day_index)
)`

// PostgresStore reads reference series from the reference_series table.
// day_index 1 is a game's launch day.
type PostgresStore struct {
	pool database.DatabasePool
}

func NewPostgresStore(pool database.DatabasePool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the reference_series table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create reference_series: %w", err)
	}
	return nil
}

func (s *PostgresStore) Series(ctx context.Context, metric models.Metric, game string) ([]float64, error) {
	if err := checkMetric(metric); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT value FROM reference_series
		WHERE metric = $1 AND game_name = $2
		ORDER BY day_index`, string(metric), game)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s series: %w", metric, err)
	}
	series, err := pgx.CollectRows(rows, pgx.RowTo[float64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s series: %w", metric, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrGameNotFound, metric, game)
	}
	return series, nil
}

func (s *PostgresStore) Games(ctx context.Context, metric models.Metric) ([]string, error) {
	if err := checkMetric(metric); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT game_name FROM reference_series
		WHERE metric = $1
		ORDER BY game_name`, string(metric))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s games: %w", metric, err)
	}
	games, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s games: %w", metric, err)
	}
	return games, nil
}

func (s *PostgresStore) Snapshot(ctx context.Context) (*models.RawGameData, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT metric, game_name, value FROM reference_series
		ORDER BY metric, game_name, day_index`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference series: %w", err)
	}
	defer rows.Close()

	out := models.EmptyRawGameData()
	for rows.Next() {
		var (
			metric string
			game   string
			value  float64
		)
		if err := rows.Scan(&metric, &game, &value); err != nil {
			return nil, fmt.Errorf("failed to scan reference series: %w", err)
		}
		m := models.Metric(metric)
		if !m.Valid() {
			continue
		}
		out.Games[m][game] = append(out.Games[m][game], value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reference series: %w", err)
	}
	return out, nil
}

// Import replaces the stored series of every game present in data.
// It returns the number of rows written.
func (s *PostgresStore) Import(ctx context.Context, data *models.RawGameData) (int64, error) {
	var written int64
	for _, metric := range models.AllMetrics {
		games := data.Games[metric]
		for _, game := range sortedKeys(games) {
			if _, err := s.pool.Exec(ctx,
				`DELETE FROM reference_series WHERE metric = $1 AND game_name = $2`,
				string(metric), game); err != nil {
				return written, fmt.Errorf("failed to clear %s/%s: %w", metric, game, err)
			}
			for i, v := range games[game] {
				tag, err := s.pool.Exec(ctx,
					`INSERT INTO reference_series (metric, game_name, day_index, value) VALUES ($1, $2, $3, $4)`,
					string(metric), game, i+1, v)
				if err != nil {
					return written, fmt.Errorf("failed to insert %s/%s day %d: %w", metric, game, i+1, err)
				}
				written += tag.RowsAffected()
			}
		}
	}
	return written, nil
}
