package middleware

import (
	"errors"

	"github.com/GoPolymarket/auctionbot/internal/pkg/apperrors"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached to the context as an AppError body.
// Bind errors become INVALID_REQUEST; anything unclassified is INTERNAL_ERROR.
func ErrorHandler() gin.HandlerFunc {
	log := logger.Component("http")
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		appErr := classify(last)

		fields := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"code", appErr.Type,
			"client_ip", c.ClientIP(),
		}
		if venue := c.Param("venue"); venue != "" {
			fields = append(fields, "venue", venue)
		}
		if appErr.HTTPStatus >= 500 {
			logger.LogError(c.Request.Context(), appErr, "request failed", fields...)
		} else {
			log.Warn(appErr.Message, fields...)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(appErr.HTTPStatus, appErr)
	}
}

func classify(e *gin.Error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(e.Err, &appErr) {
		return appErr
	}
	if e.IsType(gin.ErrorTypeBind) {
		return apperrors.New(apperrors.ErrInvalidRequest, e.Err.Error(), e.Err)
	}
	return apperrors.New(apperrors.ErrInternal, e.Err.Error(), e.Err)
}
