package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodySize is the default request body limit, 1MB.
const MaxBodySize = 1 << 20

// BodyLimit rejects request bodies larger than maxBytes. Declared lengths
// are checked up front; streamed bodies fail when read past the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = MaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("request body %d bytes exceeds maximum %d bytes", c.Request.ContentLength, maxBytes),
			})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
