package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/juju/clock"
	"github.com/labstack/echo/v4"
)

// Pinger is a dependency that can report whether it is reachable.
// *pgxpool.Pool, the cache service and the media store all satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db      Pinger
	cache   Pinger
	storage Pinger
	clock   clock.Clock
	started time.Time
	version string
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(db, cache, storage Pinger, clk clock.Clock, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		storage: storage,
		clock:   clk,
		started: clk.Now(),
		version: version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Services   map[string]string `json:"services"`
	Uptime     string            `json:"uptime"`
	Version    string            `json:"version"`
	Goroutines int               `json:"goroutines"`
}

const pingTimeout = 2 * time.Second

// LivenessCheck handles GET /health
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": h.clock.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /health/ready. Any unreachable dependency
// answers 503 so the instance is taken out of rotation.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()

	now := h.clock.Now()
	health := &HealthStatus{
		Status:     "ready",
		Timestamp:  now.UTC().Format(time.RFC3339),
		Services:   make(map[string]string),
		Uptime:     now.Sub(h.started).Truncate(time.Second).String(),
		Version:    h.version,
		Goroutines: runtime.NumGoroutine(),
	}

	checks := map[string]Pinger{"database": h.db, "cache": h.cache, "storage": h.storage}
	for name, dep := range checks {
		if dep == nil {
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			health.Services[name] = "unhealthy"
			health.Status = "not_ready"
		} else {
			health.Services[name] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if health.Status != "ready" {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, health)
}
