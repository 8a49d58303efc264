package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-segmenter/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg                 *config.Config
	segmentationHandler *Segmentation
	startedAt           time.Time
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, segmentationHandler *Segmentation) *Router {
	return &Router{
		cfg:                 cfg,
		segmentationHandler: segmentationHandler,
		startedAt:           time.Now(),
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupSegmentationRoutes(v1)
}

// setupSegmentationRoutes configures segmentation routes
func (rt *Router) setupSegmentationRoutes(g *echo.Group) {
	group := g.Group("/segmentations")

	if rt.segmentationHandler == nil {
		group.POST("", rt.notImplemented)
		group.GET("", rt.notImplemented)
		group.GET("/:id", rt.notImplemented)
		return
	}

	group.POST("", rt.segmentationHandler.CreateSegmentation)

	// Run lookups need the run audit database
	if rt.segmentationHandler.runs != nil {
		group.GET("", rt.segmentationHandler.ListSegmentations)
		group.GET("/:id", rt.segmentationHandler.GetSegmentation)
	} else {
		group.GET("", rt.notImplemented)
		group.GET("/:id", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not available",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Configure a database to record segmentation runs",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	environment := ""
	if rt.cfg != nil {
		environment = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": environment,
		"uptime":      time.Since(rt.startedAt).Round(time.Second).String(),
	})
}
