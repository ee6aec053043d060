package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	logEventHTTPRequest = "http"
	logFieldMethod      = "method"
	logFieldPath        = "path"
	logFieldStatus      = "status"
	logFieldDuration    = "dur"
	logFieldClientIP    = "ip"
)

// RequestLogger records one structured log line per handled request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(requestContext *gin.Context) {
		start := time.Now()
		requestContext.Next()
		logger.Info(logEventHTTPRequest,
			zap.String(logFieldMethod, requestContext.Request.Method),
			zap.String(logFieldPath, requestContext.Request.URL.Path),
			zap.Int(logFieldStatus, requestContext.Writer.Status()),
			zap.Duration(logFieldDuration, time.Since(start)),
			zap.String(logFieldClientIP, requestContext.ClientIP()),
		)
	}
}
