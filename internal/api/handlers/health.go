package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/irfndi/kpi-projection/internal/history"
	"github.com/irfndi/kpi-projection/internal/models"
)

var startTime = time.Now()

// HealthChecker is anything that can report its own connectivity.
type HealthChecker interface {
	// HealthCheck verifies the dependency is reachable.
	HealthCheck(ctx context.Context) error
}

// StoreHealth adapts a history store to HealthChecker by listing the
// retention games.
type StoreHealth struct {
	Store history.Store
}

// HealthCheck implements HealthChecker.
func (s StoreHealth) HealthCheck(ctx context.Context) error {
	_, err := s.Store.Games(ctx, models.MetricRetention)
	return err
}

type dependency struct {
	name     string
	checker  HealthChecker
	critical bool
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	version string
	deps    []dependency
	memory  func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// HealthResponse represents the health status response.
type HealthResponse struct {
	// Status is "healthy", "degraded" or "unhealthy".
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Memory    *MemoryStatus     `json:"memory,omitempty"`
}

// MemoryStatus is the host memory snapshot reported with health checks.
type MemoryStatus struct {
	TotalMB     uint64  `json:"total_mb"`
	AvailableMB uint64  `json:"available_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// NewHealthHandler creates a new instance of HealthHandler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, memory: mem.VirtualMemoryWithContext}
}

// AddCheck registers a dependency. A failing critical dependency makes the
// service unhealthy; a failing optional one only degrades it.
func (h *HealthHandler) AddCheck(name string, checker HealthChecker, critical bool) *HealthHandler {
	h.deps = append(h.deps, dependency{name: name, checker: checker, critical: critical})
	return h
}

// HealthCheck performs a system health check over every registered
// dependency.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	servicesStatus := make(map[string]string, len(h.deps))
	for _, dep := range h.deps {
		if dep.checker == nil {
			servicesStatus[dep.name] = "disabled"
			continue
		}
		if err := dep.checker.HealthCheck(ctx); err != nil {
			servicesStatus[dep.name] = "unhealthy: " + err.Error()
			if dep.critical {
				status = "unhealthy"
			} else if status == "healthy" {
				status = "degraded"
			}
			continue
		}
		servicesStatus[dep.name] = "healthy"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  servicesStatus,
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
	}
	if h.memory != nil {
		if vm, err := h.memory(ctx); err == nil && vm != nil {
			response.Memory = &MemoryStatus{
				TotalMB:     vm.Total / 1024 / 1024,
				AvailableMB: vm.Available / 1024 / 1024,
				UsedPercent: vm.UsedPercent,
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// LivenessCheck reports that the process is responsive.
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
	}); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
