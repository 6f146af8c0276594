package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRewardHandler_Balance_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RewardHandler{rewards: nil}
	r.GET("/rewards/balance", handler.Balance)

	req, _ := http.NewRequest("GET", "/rewards/balance", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRewardHandler_Catalog_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RewardHandler{rewards: nil}
	r.GET("/rewards", handler.Catalog)

	req, _ := http.NewRequest("GET", "/rewards", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRewardHandler_Redeem_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RewardHandler{rewards: nil}
	r.POST("/rewards/redeem", handler.Redeem)

	req, _ := http.NewRequest("POST", "/rewards/redeem", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRewardHandler_Transactions_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RewardHandler{rewards: nil}
	r.GET("/rewards/transactions", handler.Transactions)

	req, _ := http.NewRequest("GET", "/rewards/transactions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
