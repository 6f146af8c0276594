package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/ecotrack-backend/internal/http/handlers/common"
	"github.com/ignatzorin/ecotrack-backend/internal/service"
)

// RewardHandler обслуживает маршруты баллов и вознаграждений.
type RewardHandler struct {
	rewards *service.RewardService
}

// NewRewardHandler создаёт новый хэндлер.
func NewRewardHandler(rewards *service.RewardService) *RewardHandler {
	return &RewardHandler{rewards: rewards}
}

type redeemRequest struct {
	RewardID *int64 `json:"reward_id" binding:"required"`
}

// Catalog обрабатывает GET /rewards: каталог доступных вознаграждений
// с синтетической записью текущего баланса первой строкой.
func (h *RewardHandler) Catalog(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.rewards.AvailableRewards(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rewards": entries})
}

// Balance обрабатывает GET /rewards/balance.
func (h *RewardHandler) Balance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.rewards.Balance(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// Transactions обрабатывает GET /rewards/transactions.
func (h *RewardHandler) Transactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	limit := common.ParseIntQuery(c, "limit", 20)

	transactions, err := h.rewards.Transactions(c.Request.Context(), userID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// Leaderboard обрабатывает GET /rewards/leaderboard.
func (h *RewardHandler) Leaderboard(c *gin.Context) {
	entries, err := h.rewards.Leaderboard(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// Redeem обрабатывает POST /rewards/redeem. reward_id = 0 списывает
// весь накопленный баланс.
func (h *RewardHandler) Redeem(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reward_id обязателен"})
		return
	}

	account, err := h.rewards.Redeem(c.Request.Context(), userID, *req.RewardID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, account)
}
