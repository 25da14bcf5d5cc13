package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/avkuzmin/backoffice/internal/logger"
	"github.com/avkuzmin/backoffice/internal/repository"
	"github.com/avkuzmin/backoffice/internal/repository/common"
	"github.com/avkuzmin/backoffice/internal/service"
)

// notFoundMessages сопоставляет sentinel-ошибки "не найдено" сообщениям
// для клиента.
var notFoundMessages = []struct {
	err     error
	message string
}{
	{repository.ErrCustomerNotFound, "заказчик не найден"},
	{repository.ErrProjectNotFound, "проект не найден"},
	{repository.ErrOrderNotFound, "заказ не найден"},
	{repository.ErrStageNotFound, "этап не найден"},
	{repository.ErrOptionNotFound, "опция не найдена"},
	{repository.ErrUserNotFound, "пользователь не найден"},
	{repository.ErrUnitNotFound, "единица измерения не найдена"},
	{repository.ErrCurrencyNotFound, "валюта не найдена"},
	{repository.ErrStatusNotFound, "статус не найден"},
	{repository.ErrPricingTypeNotFound, "тип ценообразования не найден"},
}

// ErrorHandler обрабатывает ошибки централизованно: доменные ошибки
// превращаются в понятные статусы, внутренние маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("ошибка обработки запроса")
		}

		for _, candidate := range notFoundMessages {
			if errors.Is(err, candidate.err) {
				c.JSON(http.StatusNotFound, gin.H{"error": candidate.message})
				return
			}
		}

		switch {
		case errors.Is(err, repository.ErrDuplicateSequence):
			// Конфликт sequence: клиент обязан пересчитать номер и повторить.
			c.JSON(http.StatusConflict, gin.H{"error": "sequence уже занят другим этапом заказа"})
		case errors.Is(err, common.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "такая запись уже существует"})
		case errors.Is(err, service.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "хранилище временно недоступно, повторите запрос"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
		}
	}
}
