package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/adminbase/internal/infrastructure/redis"
	"github.com/yourorg/adminbase/pkg/database"
)

// HealthHandler reports liveness and per-store readiness.
type HealthHandler struct {
	pools       []*database.ConnectionPool
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewHealthHandler(pools []*database.ConnectionPool, redisClient *redis.Client, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthHandler{
		pools:       pools,
		redisClient: redisClient,
		logger:      logger,
	}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /healthz - simple liveness check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz - returns 200 only when all three stores and
// the session backend answer.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	for _, pool := range h.pools {
		if err := pool.Health(ctx); err != nil {
			checks[pool.Name()] = "error: " + err.Error()
			ready = false
		} else {
			checks[pool.Name()] = "ok"
		}
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx); err != nil {
			checks["redis"] = "error: " + err.Error()
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "not configured"
	}

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not ready"
		code = http.StatusServiceUnavailable
		h.logger.Warn("readiness check failed")
	}

	writeJSON(w, code, ReadinessResponse{Status: status, Checks: checks})
}
