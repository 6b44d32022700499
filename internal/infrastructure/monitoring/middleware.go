package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		// Route template keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		// Get request size
		reqSize := c.Request.ContentLength
		if reqSize < 0 {
			reqSize = 0
		}

		// Process request
		c.Next()

		// Get response data
		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(c.Writer.Size())
		if respSize < 0 {
			respSize = 0
		}

		// Record metrics
		metrics.RecordHTTPRequest(method, path, status, duration, reqSize, respSize)
	}
}

// Timer measures a probe duration
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
	}
}

// StopProbe stops the timer and records the probe outcome
func (t *Timer) StopProbe(err error) {
	if t.metrics == nil {
		return
	}
	t.metrics.RecordProbe(err != nil, time.Since(t.start))
}
