package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/polgen/storebackend/apperror"
	"github.com/polgen/storebackend/logging"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Client-facing messages come from *apperror.AppError only; anything else is
// logged and answered with a generic 500.
func ErrorHandler(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperror.From(c.Errors.Last().Err)
		ctx := c.Request.Context()
		if appErr.Code >= 500 {
			log.Error(ctx, "request failed",
				"type", appErr.Type,
				"method", c.Request.Method,
				"path", c.FullPath(),
				"error", appErr.Internal,
			)
		} else {
			log.Debug(ctx, "request rejected", "type", appErr.Type, "status", appErr.Code, "path", c.FullPath())
		}

		c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
	}
}

// Recovery turns a panic into the generic 500 response.
func Recovery(log logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error(c.Request.Context(), "panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		appErr := apperror.NewInternal(nil)
		c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
	})
}
