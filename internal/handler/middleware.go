package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skillswap/internal/metrics"
	"skillswap/pkg/response"
)

// LoggerMiddleware logs one line per request.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		fields := []interface{}{
			"status", status,
			"latency", latency,
			"ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
		}
		switch {
		case status >= http.StatusInternalServerError:
			zap.S().Errorw("[HTTP]", fields...)
		case status >= http.StatusBadRequest:
			zap.S().Warnw("[HTTP]", fields...)
		default:
			zap.S().Infow("[HTTP]", fields...)
		}
	}
}

// RecoveryMiddleware turns a panic into a 500 without leaking it to the client.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				zap.S().Errorw("[PANIC] recovered", "err", err, "method", c.Request.Method, "path", c.Request.URL.Path)
				response.ServerError(c, response.MsgInternal)
			}
		}()
		c.Next()
	}
}

// CORSMiddleware
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Signature, X-Razorpay-Signature")
		c.Header("Access-Control-Expose-Headers", "X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// MetricsMiddleware records request counts and latency by route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
