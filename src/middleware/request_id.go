package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID gives every request an id, available to handlers and loggers
// via c.GetString("request_id"), and echoes it back in the X-Request-Id
// response header. An incoming X-Request-Id header is reused as is; a
// fresh UUID is generated only when the header is absent or empty.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}
