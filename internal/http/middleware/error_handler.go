package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/ecotrack-backend/internal/logger"
	"github.com/ignatzorin/ecotrack-backend/internal/repository"
	"github.com/ignatzorin/ecotrack-backend/internal/service"
)

// ErrorHandler обрабатывает ошибки централизованно: каждая доменная
// ошибка журнала баллов отображается в свой статус и сообщение, чтобы
// клиент мог объяснить причину отказа, а внутренние ошибки маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			statusCode := http.StatusInternalServerError
			message := "внутренняя ошибка сервера"

			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"error":  err.Error(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("Request error")
			}

			switch {
			case errors.Is(err.Err, repository.ErrUserNotFound):
				statusCode = http.StatusNotFound
				message = "пользователь не найден"
			case errors.Is(err.Err, repository.ErrReportNotFound):
				statusCode = http.StatusNotFound
				message = "отчёт не найден"
			case errors.Is(err.Err, repository.ErrReportNotPending):
				statusCode = http.StatusConflict
				message = "отчёт уже взят в работу"
			case errors.Is(err.Err, repository.ErrReportNotInProgress):
				statusCode = http.StatusConflict
				message = "отчёт не находится в работе"
			case errors.Is(err.Err, repository.ErrRewardNotFound):
				statusCode = http.StatusNotFound
				message = "вознаграждение не найдено или недоступно"
			case errors.Is(err.Err, repository.ErrInsufficientPoints):
				statusCode = http.StatusUnprocessableEntity
				message = "недостаточно баллов"
			case errors.Is(err.Err, repository.ErrNoPointsToRedeem):
				statusCode = http.StatusUnprocessableEntity
				message = "нет баллов для списания"
			case errors.Is(err.Err, repository.ErrNotificationNotFound):
				statusCode = http.StatusNotFound
				message = "уведомление не найдено"
			case errors.Is(err.Err, service.ErrNoWasteDetected):
				statusCode = http.StatusBadRequest
				message = "на снимке не обнаружены отходы"
			default:
				if errStr := err.Error(); errStr != "" && !containsInternalKeywords(errStr) {
					message = errStr
					if contains(errStr, "неверный") || contains(errStr, "невалид") || contains(errStr, "должен") || contains(errStr, "обязателен") {
						statusCode = http.StatusBadRequest
					}
				}
			}

			c.JSON(statusCode, gin.H{"error": message})
		}
	}
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
		"repository:",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет вхождение подстроки без учёта регистра.
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
