package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-pool-service/pkg/logger"
)

// RequestID attaches a request id to the request context, reusing X-Request-ID when the client sends one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, id := logger.ContextWithRequestID(c.Request.Context(), c.GetHeader(logger.RequestIDHeader))
		c.Request = c.Request.WithContext(ctx)
		c.Header(logger.RequestIDHeader, id)
		c.Next()
	}
}

// Logger writes one access log line per request.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		l := logger.WithContext(c.Request.Context(), log)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			l.Error("http request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			l.Warn("http request", fields...)
		default:
			l.Info("http request", fields...)
		}
	}
}

// Recovery turns a panic in a handler into a 500 response.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithContext(c.Request.Context(), log).Error("panic recovered in http handler",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "internal_error",
					"message": "An internal error occurred",
				})
			}
		}()
		c.Next()
	}
}
