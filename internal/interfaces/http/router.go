// Package http wires the operational HTTP surface: health checks, metrics,
// pprof and the manual purge endpoint.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reposphere/staleweb/internal/config"
	"github.com/reposphere/staleweb/internal/interfaces/http/handlers"
	"github.com/reposphere/staleweb/pkg/logger"
)

// Router bundles the gin engine with its handlers and the underlying server.
type Router struct {
	engine        *gin.Engine
	config        *config.Config
	log           logger.Logger
	healthHandler *handlers.HealthHandler
	cacheHandler  *handlers.CacheHandler
	server        *http.Server
}

// NewRouter creates the operational router.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	healthHandler *handlers.HealthHandler,
	cacheHandler *handlers.CacheHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	return &Router{
		engine:        engine,
		config:        cfg,
		log:           log.WithComponent("Router"),
		healthHandler: healthHandler,
		cacheHandler:  cacheHandler,
	}
}

// SetupRoutes registers all routes on the engine.
func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())

	r.engine.GET("/healthz", r.healthHandler.HealthCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(r.engine)

	v1 := r.engine.Group("/api/v1")
	{
		v1.POST("/cache/purge", r.cacheHandler.Purge)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})
}

// Start runs the HTTP server. It blocks until the server stops.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:         addr,
		Handler:      r.engine,
		ReadTimeout:  time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(r.config.Server.WriteTimeout) * time.Second,
	}

	r.log.Info(context.Background(), "starting HTTP server", logger.String("address", addr))

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting for in-flight requests up to the
// context deadline.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.log.Info(ctx, "stopping HTTP server")
	return r.server.Shutdown(ctx)
}
