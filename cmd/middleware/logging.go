package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"
)

// LoggingMiddleware logs one line per request with the dispatched action.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		var evt *zerolog.Event
		if len(c.Errors) > 0 {
			evt = zlog.Logger.Warn().Str("errors", c.Errors.String())
		} else {
			evt = zlog.Logger.Info()
		}
		evt.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("action", c.Query("action")).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request handled")
	}
}
