package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"firealarm/logger"
	"firealarm/metrics"
)

// AccessLog writes one logrus entry per request.
func AccessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	entry := logger.Log.WithFields(logrus.Fields{
		"conn-type":  "http",
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
		"addr":       c.ClientIP(),
		"user-agent": c.Request.UserAgent(),
	})
	if c.Writer.Status() >= 500 {
		entry.Warn("Request served")
		return
	}
	entry.Info("Request served")
}

func RequestMetrics(c *gin.Context) {
	start := time.Now()
	c.Next()
	metrics.ObserveRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
}

// CORS admits browser requests from the listed dashboard origins only. Requests
// without an Origin header (devices, curl) are not affected.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
