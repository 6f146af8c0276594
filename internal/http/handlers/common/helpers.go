package common

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/ecotrack-backend/internal/http/middleware"
)

var (
	// ErrUserNotInContext возвращается, когда в контексте запроса нет пользователя.
	ErrUserNotInContext = errors.New("пользователь не найден в контексте")

	// ErrInvalidID возвращается при некорректном числовом идентификаторе.
	ErrInvalidID = errors.New("неверный формат идентификатора")
)

// CurrentUserID извлекает идентификатор пользователя из gin.Context.
func CurrentUserID(c *gin.Context) (int64, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, ErrUserNotInContext
	}

	userID, ok := raw.(int64)
	if !ok || userID <= 0 {
		return 0, ErrUserNotInContext
	}

	return userID, nil
}

// CurrentUserRole извлекает роль пользователя из gin.Context.
func CurrentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", ErrUserNotInContext
	}

	role, ok := raw.(string)
	if !ok {
		return "", ErrUserNotInContext
	}

	return role, nil
}

// ParseIDParam парсит числовой идентификатор из параметра пути.
func ParseIDParam(c *gin.Context, paramName string) (int64, error) {
	param := c.Param(paramName)
	if param == "" {
		return 0, fmt.Errorf("параметр %s отсутствует", paramName)
	}

	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}

	return id, nil
}

// ParseIntQuery парсит целочисленный query-параметр с дефолтом.
func ParseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}
