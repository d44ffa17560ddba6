package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id; an inbound value from a
// trusted proxy is kept, otherwise one is minted.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request.id"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom returns the correlation id for the request, or "".
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
