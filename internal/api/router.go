package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/celerix-dev/circadian-store/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// NewRouter wires the handler, middleware and operational endpoints.
// m may be nil, in which case /metrics is not served.
func NewRouter(h *Handler, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.logger()), CORS())
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/collections/:collection", h.ListRecords)
		apiGroup.POST("/collections/:collection", h.CreateRecord)
		apiGroup.DELETE("/collections/:collection", h.ClearCollection)
		apiGroup.PUT("/collections/:collection/:id", h.ReplaceRecord)
		apiGroup.DELETE("/collections/:collection/:id", h.DeleteRecord)
		apiGroup.DELETE("/collections", h.ClearAll)

		apiGroup.GET("/settings/:key", h.GetSetting)
		apiGroup.PUT("/settings/:key", h.PutSetting)

		apiGroup.GET("/stats/sleep", h.SleepStats)
		apiGroup.GET("/stats/supplements", h.SupplementAdherence)
		apiGroup.GET("/stats/exercise", h.ExerciseStats)
		apiGroup.GET("/stats/health", h.HealthTrends)
		apiGroup.GET("/stats/trend", h.SleepTrend)
		apiGroup.GET("/daily", h.Daily)
		apiGroup.GET("/daily/:date", h.Daily)
		apiGroup.GET("/dashboard", h.Dashboard)

		apiGroup.GET("/export", h.Export)
		apiGroup.POST("/import", h.Import)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API route not found"})
	})
	return r
}

// RequestLogger logs one line per request and tags it with a request id,
// reusing the caller's X-Request-ID when present.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set("request_id", id)

		c.Next()

		logger.Info("HTTP request",
			slog.String("request_id", id),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}

// CORS allows the browser dashboard to call the API from another origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
