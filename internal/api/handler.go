package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"industry-pulse/internal/service"
	"industry-pulse/internal/util"
)

// Handler contains HTTP handlers
type Handler struct {
	analytics *service.AnalyticsService
	feedPaths service.FeedPaths
}

// NewHandler creates a new HTTP handler
func NewHandler(analytics *service.AnalyticsService, feedPaths service.FeedPaths) *Handler {
	return &Handler{
		analytics: analytics,
		feedPaths: feedPaths,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/ingest", h.ingestFeeds)
		v1.POST("/runs", h.triggerRun)
		v1.POST("/runs/async", h.requestRun)
		v1.GET("/reports/latest", h.latestReport)
		v1.GET("/reports/:run_id", h.getReport)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// ingestFeeds materializes the configured source feeds in the store
func (h *Handler) ingestFeeds(c *gin.Context) {
	if err := h.analytics.IngestFeeds(c.Request.Context(), h.feedPaths); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to ingest feeds",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ingested"})
}

// triggerRun executes an analytics run synchronously
func (h *Handler) triggerRun(c *gin.Context) {
	report, err := h.analytics.RunAnalytics(c.Request.Context())
	if errors.Is(err, service.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "A run is already in progress",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Analytics run failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, report)
}

// requestRun queues an asynchronous analytics run via the event topic
func (h *Handler) requestRun(c *gin.Context) {
	eventID, err := h.analytics.RequestRun(c.Request.Context(), c.ClientIP())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to request run",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "requested",
		"event_id": eventID,
	})
}

// getReport serves one report by run id
func (h *Handler) getReport(c *gin.Context) {
	report, err := h.analytics.GetReport(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Report not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// latestReport serves the most recent fluctuation report
func (h *Handler) latestReport(c *gin.Context) {
	report, err := h.analytics.LatestReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load report",
			"details": err.Error(),
		})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No report available yet",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
