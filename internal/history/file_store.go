package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"

	"github.com/irfndi/kpi-projection/internal/models"
)

// FileStore serves the reference data set from a JSON file. The file is read
// on first use and then held in memory; Reload drops it.
type FileStore struct {
	path string

	mu   sync.RWMutex
	data *models.RawGameData
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() (*models.RawGameData, error) {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()
	if data != nil {
		return data, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data != nil {
		return s.data, nil
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.data = models.EmptyRawGameData()
		return s.data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data: %w", err)
	}

	parsed := models.EmptyRawGameData()
	if err := json.Unmarshal(raw, parsed); err != nil {
		return nil, fmt.Errorf("failed to decode reference data %s: %w", s.path, err)
	}
	for _, m := range models.AllMetrics {
		if parsed.Games[m] == nil {
			parsed.Games[m] = map[string][]float64{}
		}
	}
	s.data = parsed
	return s.data, nil
}

// Reload forces the next read to go back to disk.
func (s *FileStore) Reload() {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
}

func (s *FileStore) Series(_ context.Context, metric models.Metric, game string) ([]float64, error) {
	if err := checkMetric(metric); err != nil {
		return nil, err
	}
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	series, ok := data.Games[metric][game]
	if !ok || len(series) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrGameNotFound, metric, game)
	}
	return slices.Clone(series), nil
}

func (s *FileStore) Games(_ context.Context, metric models.Metric) ([]string, error) {
	if err := checkMetric(metric); err != nil {
		return nil, err
	}
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return sortedKeys(data.Games[metric]), nil
}

// Snapshot returns a deep copy of the data set.
func (s *FileStore) Snapshot(context.Context) (*models.RawGameData, error) {
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	out := &models.RawGameData{
		Version:     data.Version,
		Description: data.Description,
		Games:       make(map[models.Metric]map[string][]float64, len(data.Games)),
	}
	for metric, games := range data.Games {
		copied := make(map[string][]float64, len(games))
		for name, series := range games {
			copied[name] = slices.Clone(series)
		}
		out.Games[metric] = copied
	}
	return out, nil
}
