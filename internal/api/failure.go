package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
)

// FailureHandler is the single place where request failures are rendered.
// Gates and actions attach errors with response.Abort or response.Wrap; once
// the chain has unwound, the last error is logged and written as JSON.
func FailureHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := response.Status(err)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		}
		if status >= 500 {
			logger.Error("request failed", fields...)
		} else {
			logger.Debug("request rejected", fields...)
		}

		// A streaming action may already have started the response.
		if c.Writer.Written() {
			return
		}
		response.Error(c, err)
	}
}
