package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniroom-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics observes request latency per route template. Requests that match
// no route share one label so probing clients cannot inflate cardinality.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		if _, ok := skipped[route]; ok {
			return
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
