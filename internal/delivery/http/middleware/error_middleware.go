package middleware

import (
	"errors"
	"net/http"

	"network20-backend/internal/delivery/http/response"
	"network20-backend/pkg/apperror"
	"network20-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		requestID := c.GetString(RequestIDKey)

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("request failed", "request_id", requestID, "status", appErr.Code, "error", err)
			}
			message := appErr.Message
			if appErr.Code == http.StatusInternalServerError {
				message = "An unexpected error occurred. Please try again later."
			}
			response.Error(c, appErr.Code, message, nil)
			return
		}

		// Never expose internal error details to clients
		logger.Log.Error("internal server error", "request_id", requestID, "error", err)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
