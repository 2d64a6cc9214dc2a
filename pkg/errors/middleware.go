package errors

import (
	"net/http"
	"runtime/debug"

	"ai-character-chat/widget/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler returns a middleware that turns errors attached to the gin
// context into the service's error envelope.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := FromError(c.Errors[0].Err)
		log.Error("request error",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"error_code", appErr.Code,
			"message", appErr.Message,
		)

		status := appErr.HTTPStatus
		if status == 0 || status == http.StatusOK {
			status = http.StatusBadRequest
		}
		c.AbortWithStatusJSON(status, gin.H{
			"error": gin.H{"message": appErr.Message},
		})
	}
}

// RecoveryWithLogger returns a middleware that recovers from panics and logs
// them with a stack trace before answering with the error envelope.
func RecoveryWithLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					"error", r,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{"message": "the server encountered an unexpected error"},
				})
			}
		}()
		c.Next()
	}
}
