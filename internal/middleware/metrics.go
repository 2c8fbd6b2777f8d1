package middleware

import (
	"strconv"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records latency and a status-class counter per route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// /v1/venues/:venue 而不是具体 venue
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		// websocket 连接时长没有意义
		if route != "/v1/activity/stream" {
			metrics.RequestLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
		}
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, statusClass(c.Writer.Status())).Inc()
	}
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
