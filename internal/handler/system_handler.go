package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/examguard/examguard-backend/internal/response"
)

// SystemHandler serves health and readiness probes.
type SystemHandler struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(pool *pgxpool.Pool, rdb *redis.Client) *SystemHandler {
	return &SystemHandler{pool: pool, rdb: rdb}
}

// Health godoc
// GET /health
// Liveness plus dependency checks: Postgres and Redis pings with a short
// timeout so a hung backend cannot hang the probe.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok"}
	healthy := true

	if err := h.pool.Ping(ctx); err != nil {
		status["postgres"] = "down"
		healthy = false
	} else {
		status["postgres"] = "up"
	}

	if err := h.rdb.Ping(ctx).Err(); err != nil {
		status["redis"] = "down"
		healthy = false
	} else {
		status["redis"] = "up"
	}

	if !healthy {
		status["status"] = "degraded"
		response.Success(c, http.StatusServiceUnavailable, status)
		return
	}
	response.Success(c, http.StatusOK, status)
}
