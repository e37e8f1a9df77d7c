package middleware

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type requestIDKey struct{}

const RequestIDHeader = "X-Request-Id"

// RequestID assigns each request a snowflake id, echoed in the response
// header and threaded through the request context.
func RequestID(node *snowflake.Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = node.Generate().String()
		}

		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}

// GetRequestID returns the request id from the context, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
