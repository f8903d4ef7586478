package middleware

import (
	"strconv"

	"network20-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics counts requests by route template, so ids do not explode the
// label set.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
