package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docsort-backend/internal/shared/metrics"
	"docsort-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request and records request metrics.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		userID, _ := c.Get(userIDKey)
		documentID, _ := c.Get("documentId")
		documentType, _ := c.Get("documentType")

		durationMs := float64(latency.Microseconds()) / 1000.0
		metrics.ObserveRequest(status, durationMs)

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		telemetry.Info("request.complete", map[string]any{
			"request_id":    reqID,
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"route":         route,
			"status":        status,
			"duration_ms":   durationMs,
			"user_id":       userID,
			"document_id":   documentID,
			"document_type": documentType,
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
		})
	}
}
