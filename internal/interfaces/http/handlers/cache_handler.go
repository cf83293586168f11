package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reposphere/staleweb/internal/domain/models"
	domain "github.com/reposphere/staleweb/internal/domain/service"
	"github.com/reposphere/staleweb/pkg/logger"
)

// CacheHandler exposes operator-initiated cache purges.
type CacheHandler struct {
	cache   domain.WebServerCache
	metrics domain.Metrics
	log     logger.Logger
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(cache domain.WebServerCache, metrics domain.Metrics, log logger.Logger) *CacheHandler {
	return &CacheHandler{
		cache:   cache,
		metrics: metrics,
		log:     log.WithComponent("CacheHandler"),
	}
}

// PurgeRequest asks for a set of URLs to be invalidated at the edge,
// optionally re-warming them afterwards.
type PurgeRequest struct {
	URLs  []string `json:"urls" binding:"required,min=1"`
	Renew bool     `json:"renew"`
}

// Purge schedules the invalidation and responds immediately; the work happens
// asynchronously in the driver.
func (h *CacheHandler) Purge(c *gin.Context) {
	var req PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	toUpdate := models.NewURLSet()
	toRemove := models.NewURLSet()
	if req.Renew {
		toUpdate.AddAll(req.URLs)
	} else {
		toRemove.AddAll(req.URLs)
	}

	h.cache.InvalidateAndRenew(c.Request.Context(), toUpdate, toRemove)
	h.metrics.RecordPurgeRequest(len(req.URLs))
	h.log.Info(c.Request.Context(), "scheduled operator purge",
		logger.Int("urls", len(req.URLs)),
		logger.F("renew", req.Renew))

	c.JSON(http.StatusAccepted, gin.H{"accepted": len(req.URLs), "renew": req.Renew})
}
