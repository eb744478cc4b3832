package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/bidme-backend/internal/logger"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно. Хэндлеры складывают
// ошибки через c.Error, сюда они приходят после выполнения цепочки.
// Известные ошибки (*apperror.AppError) переводятся в код, сообщение и
// детали для клиента, всё остальное маскируется как внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"error":  err.Error(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("Unhandled request error")
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "внутренняя ошибка сервера",
				"code":  apperror.ErrCodeInternal,
			})
			return
		}

		if appErr.HTTPStatus >= http.StatusInternalServerError && logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  appErr.Error(),
				"code":   appErr.Code,
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		body := gin.H{
			"error": appErr.Message,
			"code":  appErr.Code,
		}
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		c.JSON(appErr.HTTPStatus, body)
	}
}
