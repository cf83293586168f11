// Package handlers contains the HTTP handlers of the operational surface.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/reposphere/staleweb/pkg/logger"
)

// HealthHandler provides the health check endpoint.
type HealthHandler struct {
	db  *gorm.DB
	log logger.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the service
// runs without a policy database.
func NewHealthHandler(db *gorm.DB, log logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log.WithComponent("HealthHandler")}
}

// HealthCheck reports the service health and the state of its dependencies.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if h.db != nil {
		if err := h.pingDatabase(c); err != nil {
			checks["database"] = "unreachable"
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

func (h *HealthHandler) pingDatabase(c *gin.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(c.Request.Context())
}
