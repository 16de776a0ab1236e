package handlers

import (
	"strings"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	OperatorHeader = "X-Operator-ID"
	operatorKey    = "operator"
)

// RequireOperator rejects requests without the operator identity set by the
// auth proxy.
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := strings.TrimSpace(c.GetHeader(OperatorHeader))
		if operator == "" {
			writeError(c, domain.ErrUnauthorized)
			return
		}
		c.Set(operatorKey, operator)
		c.Next()
	}
}

func operatorOf(c *gin.Context) string {
	return c.GetString(operatorKey)
}

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		startedAt := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("operator", operatorOf(c)),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(startedAt)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("http request completed", fields...)
		case status >= 400:
			logger.Warn("http request completed", fields...)
		default:
			logger.Info("http request completed", fields...)
		}
	}
}
