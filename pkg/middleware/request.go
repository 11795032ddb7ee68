package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/O-HAM-MA/apartner-sub000/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestContextMiddleware attaches a request id to the request context and
// echoes it in the response header. Incoming ids from trusted callers are
// preserved so traces line up across services.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, reqID)
		c.Next()
	}
}

// RequestLogMiddleware logs one line per completed request. SSE streams show
// up here only after the stream ends.
func RequestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithContext(c.Request.Context()).Infof(
			"%s %s status=%d latency=%s client=%s",
			c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start), c.ClientIP(),
		)
	}
}
