package middleware

import (
	"errors"
	"net/http"

	"milpoint/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error converts errors recorded by handlers into the uniform
// { "message": ... } body. Internal failures are logged with the cause but
// reported with a generic message only.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}

		var be errutil.BaseError
		if errors.As(last.Err, &be) {
			if be.Status() == errutil.StatusInternal || be.Status() == errutil.StatusUnknown {
				zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(last.Err))
				c.JSON(be.Status().HTTPStatus(), gin.H{"message": "unknown error"})
				return
			}
			c.JSON(be.Status().HTTPStatus(), gin.H{"message": be.Message})
			return
		}

		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(last.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "unknown error"})
	}
}
