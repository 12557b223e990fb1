package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mailapi/backend/internal/monitoring"
)

// HTTPMetrics records request counts and latencies on m. Unmatched routes are
// grouped under "unmatched" to keep label cardinality bounded.
func HTTPMetrics(m *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RecordHTTPRequest(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
