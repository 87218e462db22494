package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-pool-service/internal/usecase/pool"
	"user-pool-service/pkg/logger"
)

// PoolStatusReader reads a snapshot of the database connection pool.
type PoolStatusReader interface {
	Status() pool.Status
}

// Pinger checks that a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler serves the welcome, pool status and health endpoints.
type SystemHandler struct {
	welcome string
	pool    PoolStatusReader
	db      Pinger
	service string
	log     *zap.Logger
}

// NewSystemHandler creates a new SystemHandler instance
func NewSystemHandler(welcome string, pool PoolStatusReader, db Pinger, service string, log *zap.Logger) *SystemHandler {
	return &SystemHandler{
		welcome: welcome,
		pool:    pool,
		db:      db,
		service: service,
		log:     log,
	}
}

// Welcome handles GET /welcome
func (h *SystemHandler) Welcome(c *gin.Context) {
	c.String(http.StatusOK, h.welcome)
}

// PoolStatus handles GET /pool-status
func (h *SystemHandler) PoolStatus(c *gin.Context) {
	st := h.pool.Status()
	logger.WithContext(c.Request.Context(), h.log).Debug("pool status",
		zap.Int("active", st.Active),
		zap.Int("idle", st.Idle),
		zap.Int("max_open", st.MaxOpen),
	)
	c.String(http.StatusOK, st.String())
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.WithContext(ctx, h.log).Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": h.service,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.service,
	})
}
