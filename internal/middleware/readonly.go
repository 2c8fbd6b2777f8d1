package middleware

import (
	"net/http"

	"github.com/GoPolymarket/auctionbot/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

// routes that stay writable in read-only mode; stopping the simulation never changes venue settings
var readOnlyExempt = map[string]string{
	"/v1/bot": http.MethodDelete,
}

// ReadOnlyMiddleware rejects every mutation of venue settings and every manual tick when enabled.
func ReadOnlyMiddleware(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			c.Next()
			return
		}
		if readOnlyExempt[c.FullPath()] == method {
			c.Next()
			return
		}
		c.Error(apperrors.New(apperrors.ErrReadOnly, "venue settings are read-only", nil))
		c.Abort()
	}
}
