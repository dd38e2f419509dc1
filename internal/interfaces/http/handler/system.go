package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler handles health and readiness endpoints
type SystemHandler struct {
	BaseHandler
	db      Pinger
	started time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		BaseHandler: NewBaseHandler(logger),
		db:          db,
		started:     time.Now(),
	}
}

// RegisterRoutes registers system routes on the engine root,
// outside the authenticated API group
func (h *SystemHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)
}

// Healthz reports process liveness and database connectivity
func (h *SystemHandler) Healthz(c *gin.Context) {
	status := http.StatusOK
	overall := "ok"
	dbStatus := "ok"
	if err := h.db.Ping(); err != nil {
		status = http.StatusServiceUnavailable
		overall = "degraded"
		dbStatus = "unreachable"
		h.logger.Warn("health check failed", zap.Error(err))
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"uptime":   time.Since(h.started).Truncate(time.Second).String(),
		"database": dbStatus,
	})
}
