package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Audit writes one structured audit line for every successful write request
// on the wrapped route, naming the acting identity.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
		}
		if sess := SessionFromContext(c); sess != nil {
			fields = append(fields,
				zap.String("session_id", sess.ID),
				zap.String("actor", sess.Identity.ReporterLabel()),
				zap.String("role", string(sess.Identity.Role)),
			)
		}
		logger.Info("audit", fields...)
	}
}
