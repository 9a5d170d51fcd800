package services

import (
	"bytes"
	"context"
	"errors"
	"math"
	"slices"
	"sync"

	"github.com/irfndi/kpi-projection/internal/history"
	"github.com/irfndi/kpi-projection/internal/logging"
	"github.com/irfndi/kpi-projection/internal/models"
)

// memStore is an in-memory history.Store.
type memStore struct {
	mu    sync.Mutex
	data  map[models.Metric]map[string][]float64
	err   error
	reads int
}

func newMemStore() *memStore {
	return &memStore{data: models.EmptyRawGameData().Games}
}

func (m *memStore) put(metric models.Metric, game string, series []float64) {
	m.data[metric][game] = series
}

func (m *memStore) Series(_ context.Context, metric models.Metric, game string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.data[metric][game]
	if !ok {
		return nil, history.ErrGameNotFound
	}
	return slices.Clone(s), nil
}

func (m *memStore) Games(_ context.Context, metric models.Metric) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	names := make([]string, 0, len(m.data[metric]))
	for name := range m.data[metric] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (m *memStore) Snapshot(context.Context) (*models.RawGameData, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := models.EmptyRawGameData()
	out.Games = m.data
	return out, nil
}

func (m *memStore) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

var errStoreDown = errors.New("store down")

func powerLaw(d1, b float64, days int) []float64 {
	out := make([]float64, days)
	for t := 1; t <= days; t++ {
		out[t-1] = d1 * math.Pow(float64(t), b)
	}
	return out
}

func testLogger() (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewLoggerWithOutput(&buf, "debug", "production"), &buf
}
