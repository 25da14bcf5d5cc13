package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avkuzmin/backoffice/internal/http/middleware"
	"github.com/avkuzmin/backoffice/internal/models"
)

var errUserNotFound = errors.New("пользователь не найден в контексте")

// currentUserID извлекает userID из контекста.
func currentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, errUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, errUserNotFound
	}

	return userID, nil
}

// currentUserRole извлекает роль пользователя из контекста.
func currentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", errUserNotFound
	}

	role, ok := raw.(string)
	if !ok {
		return "", errUserNotFound
	}

	return role, nil
}

// requireAdmin пропускает только администратора; иначе отвечает 403.
func requireAdmin(c *gin.Context) bool {
	role, err := currentUserRole(c)
	if err != nil || role != models.UserRoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "операция доступна только администратору"})
		return false
	}
	return true
}

// paramID парсит UUID-параметр пути. Формат уже проверен UUIDValidator,
// поэтому ошибка здесь означает отсутствие middleware на маршруте.
func paramID(c *gin.Context, name string) uuid.UUID {
	id, _ := uuid.Parse(c.Param(name))
	return id
}

// parsePositiveInt парсит query-параметр как положительное число с верхней границей.
func parsePositiveInt(v string, max int) (int, error) {
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("значение должно быть положительным")
	}
	if parsed > max {
		parsed = max
	}
	return parsed, nil
}

// parseNonNegativeInt парсит query-параметр как неотрицательное число.
func parseNonNegativeInt(v string) (int, error) {
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if parsed < 0 {
		return 0, fmt.Errorf("значение не может быть отрицательным")
	}
	return parsed, nil
}
