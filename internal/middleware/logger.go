package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/zach-dev-api/internal/logging"
)

// Logger logs one line per request. Client addresses pass through hashIP
// first so raw IPs never reach the log file.
func Logger(logger *logging.Logger, hashIP func(string) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("[HTTP] %3d | %13v | %16s | %-7s %s | %s",
			c.Writer.Status(),
			time.Since(start),
			hashIP(c.ClientIP()),
			c.Request.Method,
			c.Request.URL.Path,
			c.GetString(RequestIDKey),
		)
	}
}
