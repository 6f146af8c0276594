package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/ecotrack-backend/internal/http/handlers/common"
	"github.com/ignatzorin/ecotrack-backend/internal/service"
)

// AuthHandler обслуживает маршруты идентификации.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler создаёт новый хэндлер.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name"`
}

type collectorRequest struct {
	SecretKey string `json:"secret_key" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login обрабатывает POST /auth/login: внешняя идентичность уже проверена
// провайдером, здесь email разрешается в пользователя (get-or-create).
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email обязателен"})
		return
	}

	result, err := h.auth.ResolveUser(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   result.User,
		"role":   result.Role,
		"tokens": result.TokenPair,
	})
}

// GrantCollector обрабатывает POST /auth/collector.
func (h *AuthHandler) GrantCollector(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req collectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ключ доступа обязателен"})
		return
	}

	result, err := h.auth.GrantCollector(c.Request.Context(), userID, req.SecretKey)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   result.User,
		"role":   result.Role,
		"tokens": result.TokenPair,
	})
}

// Refresh обрабатывает POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh токен обязателен"})
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh токен невалиден"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}
