package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger prints one line per request with the request id and, once auth
// has run, the acting user.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		var userID int64
		if actor, ok := GetActor(c); ok {
			userID = actor.UserID
		}
		log.Printf("[HTTP] request_id=%s method=%s path=%s status=%d latency_ms=%.3f user_id=%d ip=%s",
			GetRequestID(c),
			c.Request.Method,
			c.FullPath(),
			c.Writer.Status(),
			float64(time.Since(start).Microseconds())/1000.0,
			userID,
			c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Printf("[HTTP] request_id=%s errors=%s", GetRequestID(c), c.Errors.String())
		}
	}
}
