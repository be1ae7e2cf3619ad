package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// unmatchedRoute labels requests that hit no registered route
const unmatchedRoute = "unmatched"

// GinMiddleware returns middleware that instruments API requests.
// Paths are labeled by route template to keep cardinality bounded.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}

		duration := float64(time.Since(start).Milliseconds())
		statusCode := strconv.Itoa(c.Writer.Status())

		RecordAPIRequest(c.Request.Method, path, statusCode, duration)
	}
}
