package tracing

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware creates Gin middleware that runs every request inside a
// trace. Incoming X-Trace-ID/X-Span-ID headers are continued and the new
// span's IDs are returned in the response headers.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID, parentID := ExtractTraceContext(map[string]string{
			HeaderTraceID: c.GetHeader(HeaderTraceID),
			HeaderSpanID:  c.GetHeader(HeaderSpanID),
		})
		ctx := ContextWithTrace(c.Request.Context(), traceID, parentID)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		_ = tracer.Run(ctx, "http "+c.Request.Method+" "+route, func(ctx context.Context, span *Span) error {
			span.SetAttribute("http.method", c.Request.Method)
			span.SetAttribute("http.route", route)
			span.SetAttribute("http.host", c.Request.Host)

			c.Request = c.Request.WithContext(ctx)
			c.Header(HeaderTraceID, string(span.TraceID()))
			c.Header(HeaderSpanID, string(span.SpanID()))

			c.Next()

			status := c.Writer.Status()
			span.SetAttribute("http.status", status)

			if status >= http.StatusInternalServerError {
				if last := c.Errors.Last(); last != nil {
					return last.Err
				}
				return fmt.Errorf("http status %d", status)
			}
			return nil
		})
	}
}
